package ledger

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// RedeemerTag says which kind of script purpose a redeemer serves.
type RedeemerTag uint8

const (
	RedeemerSpend RedeemerTag = 0
	RedeemerMint  RedeemerTag = 1
)

// ExUnits is a script execution budget.
type ExUnits struct {
	Mem   uint64
	Steps uint64
}

// Redeemer is a structured argument for one script execution. Index is the
// position of the spent input in the sorted input set (spend) or of the policy
// in the sorted policy set (mint).
type Redeemer struct {
	Tag     RedeemerTag
	Index   uint32
	Data    []byte // structured value CBOR
	ExUnits ExUnits
}

// VKeyWitness is a public key and its signature over the body hash.
type VKeyWitness struct {
	PubKey    []byte
	Signature []byte
}

// TxBody is the signed part of a transaction.
type TxBody struct {
	Inputs          []OutRef
	Outputs         []Output
	Fee             int64
	ValidityStart   *uint64
	TTL             *uint64
	Mint            Assets
	Collateral      []OutRef
	RequiredSigners []Hash28
	ReferenceInputs []OutRef
}

// Witnesses carries signatures, scripts and redeemers.
type Witnesses struct {
	VKeys     []VKeyWitness
	Scripts   []Script
	Redeemers []Redeemer
}

// Tx is a complete transaction.
type Tx struct {
	Body      TxBody
	Witnesses Witnesses
}

// encMode sorts map keys so the same body always encodes to the same bytes.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

type wireInput struct {
	_      struct{} `cbor:",toarray"`
	TxHash []byte
	Index  uint32
}

type wireDatum struct {
	_    struct{} `cbor:",toarray"`
	Kind uint64
	Data cbor.Tag
}

type wireOutput struct {
	Address   []byte          `cbor:"0,keyasint"`
	Value     cbor.RawMessage `cbor:"1,keyasint"`
	Datum     *wireDatum      `cbor:"2,keyasint,omitempty"`
	ScriptRef *cbor.Tag       `cbor:"3,keyasint,omitempty"`
}

type multiAsset map[cbor.ByteString]map[cbor.ByteString]int64

type wireBody struct {
	Inputs          []wireInput  `cbor:"0,keyasint"`
	Outputs         []wireOutput `cbor:"1,keyasint"`
	Fee             uint64       `cbor:"2,keyasint"`
	TTL             *uint64      `cbor:"3,keyasint,omitempty"`
	ValidityStart   *uint64      `cbor:"8,keyasint,omitempty"`
	Mint            multiAsset   `cbor:"9,keyasint,omitempty"`
	Collateral      []wireInput  `cbor:"13,keyasint,omitempty"`
	RequiredSigners [][]byte     `cbor:"14,keyasint,omitempty"`
	ReferenceInputs []wireInput  `cbor:"18,keyasint,omitempty"`
}

type wireVKey struct {
	_         struct{} `cbor:",toarray"`
	PubKey    []byte
	Signature []byte
}

type wireRedeemer struct {
	_       struct{} `cbor:",toarray"`
	Tag     uint8
	Index   uint32
	Data    cbor.RawMessage
	ExUnits []uint64
}

type wireWitnesses struct {
	VKeys     []wireVKey        `cbor:"0,keyasint,omitempty"`
	Native    []cbor.RawMessage `cbor:"1,keyasint,omitempty"`
	PlutusV1  [][]byte          `cbor:"3,keyasint,omitempty"`
	Redeemers []wireRedeemer    `cbor:"5,keyasint,omitempty"`
	PlutusV2  [][]byte          `cbor:"6,keyasint,omitempty"`
	PlutusV3  [][]byte          `cbor:"7,keyasint,omitempty"`
}

type wireTx struct {
	_         struct{} `cbor:",toarray"`
	Body      cbor.RawMessage
	Witnesses wireWitnesses
	Valid     bool
	Aux       interface{}
}

const datumInline = 1
const tagEmbeddedCBOR = 24

// Bytes encodes the body.
func (b TxBody) Bytes() ([]byte, error) {
	w := wireBody{
		Inputs:          toWireInputs(b.Inputs),
		Fee:             uint64(b.Fee),
		TTL:             b.TTL,
		ValidityStart:   b.ValidityStart,
		Collateral:      toWireInputs(b.Collateral),
		ReferenceInputs: toWireInputs(b.ReferenceInputs),
	}
	if b.Fee < 0 {
		return nil, fmt.Errorf("%w: fee %d", ErrNegativeValue, b.Fee)
	}
	w.Outputs = make([]wireOutput, len(b.Outputs))
	for i, o := range b.Outputs {
		wo, err := toWireOutput(o)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		w.Outputs[i] = wo
	}
	if len(b.Mint) > 0 {
		ma, err := toMultiAsset(b.Mint, true)
		if err != nil {
			return nil, fmt.Errorf("mint: %w", err)
		}
		w.Mint = ma
	}
	for _, s := range b.RequiredSigners {
		w.RequiredSigners = append(w.RequiredSigners, s.Bytes())
	}
	return encMode.Marshal(w)
}

// Hash returns the blake2b-256 hash of the encoded body.
func (b TxBody) Hash() (TxHash, error) {
	raw, err := b.Bytes()
	if err != nil {
		return TxHash{}, err
	}
	return Blake2b256(raw), nil
}

// Bytes encodes the full transaction.
func (t Tx) Bytes() ([]byte, error) {
	body, err := t.Body.Bytes()
	if err != nil {
		return nil, err
	}
	var ws wireWitnesses
	for _, vk := range t.Witnesses.VKeys {
		ws.VKeys = append(ws.VKeys, wireVKey{PubKey: vk.PubKey, Signature: vk.Signature})
	}
	for _, s := range t.Witnesses.Scripts {
		switch s.Version {
		case NativeScriptVersion:
			ws.Native = append(ws.Native, cbor.RawMessage(s.Bytes))
		case PlutusV1:
			ws.PlutusV1 = append(ws.PlutusV1, s.Bytes)
		case PlutusV2:
			ws.PlutusV2 = append(ws.PlutusV2, s.Bytes)
		case PlutusV3:
			ws.PlutusV3 = append(ws.PlutusV3, s.Bytes)
		default:
			return nil, fmt.Errorf("%w: unknown script version %d", ErrInvalidTx, s.Version)
		}
	}
	for _, r := range t.Witnesses.Redeemers {
		ws.Redeemers = append(ws.Redeemers, wireRedeemer{
			Tag:     uint8(r.Tag),
			Index:   r.Index,
			Data:    cbor.RawMessage(r.Data),
			ExUnits: []uint64{r.ExUnits.Mem, r.ExUnits.Steps},
		})
	}
	return encMode.Marshal(wireTx{Body: body, Witnesses: ws, Valid: true})
}

// DecodeTx decodes a transaction and returns it with the hash of its body
// bytes as they appear on the wire.
func DecodeTx(raw []byte) (*Tx, TxHash, error) {
	var w wireTx
	if err := cbor.Unmarshal(raw, &w); err != nil {
		return nil, TxHash{}, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	var wb wireBody
	if err := cbor.Unmarshal(w.Body, &wb); err != nil {
		return nil, TxHash{}, fmt.Errorf("%w: body: %w", ErrInvalidTx, err)
	}

	body := TxBody{
		Fee:           int64(wb.Fee),
		TTL:           wb.TTL,
		ValidityStart: wb.ValidityStart,
	}
	var err error
	if body.Inputs, err = fromWireInputs(wb.Inputs); err != nil {
		return nil, TxHash{}, err
	}
	if body.Collateral, err = fromWireInputs(wb.Collateral); err != nil {
		return nil, TxHash{}, err
	}
	if body.ReferenceInputs, err = fromWireInputs(wb.ReferenceInputs); err != nil {
		return nil, TxHash{}, err
	}
	for i, wo := range wb.Outputs {
		o, err := fromWireOutput(wo)
		if err != nil {
			return nil, TxHash{}, fmt.Errorf("%w: output %d: %w", ErrInvalidTx, i, err)
		}
		body.Outputs = append(body.Outputs, o)
	}
	if len(wb.Mint) > 0 {
		if body.Mint, err = fromMultiAsset(wb.Mint); err != nil {
			return nil, TxHash{}, fmt.Errorf("%w: mint: %w", ErrInvalidTx, err)
		}
	}
	for _, s := range wb.RequiredSigners {
		h, err := Hash28FromBytes(s)
		if err != nil {
			return nil, TxHash{}, fmt.Errorf("%w: required signer: %w", ErrInvalidTx, err)
		}
		body.RequiredSigners = append(body.RequiredSigners, h)
	}

	tx := &Tx{Body: body}
	for _, vk := range w.Witnesses.VKeys {
		tx.Witnesses.VKeys = append(tx.Witnesses.VKeys, VKeyWitness{PubKey: vk.PubKey, Signature: vk.Signature})
	}
	for _, n := range w.Witnesses.Native {
		tx.Witnesses.Scripts = append(tx.Witnesses.Scripts, Script{Version: NativeScriptVersion, Bytes: []byte(n)})
	}
	for _, group := range []struct {
		v  ScriptVersion
		bs [][]byte
	}{{PlutusV1, w.Witnesses.PlutusV1}, {PlutusV2, w.Witnesses.PlutusV2}, {PlutusV3, w.Witnesses.PlutusV3}} {
		for _, b := range group.bs {
			tx.Witnesses.Scripts = append(tx.Witnesses.Scripts, Script{Version: group.v, Bytes: b})
		}
	}
	for _, r := range w.Witnesses.Redeemers {
		red := Redeemer{Tag: RedeemerTag(r.Tag), Index: r.Index, Data: []byte(r.Data)}
		if len(r.ExUnits) == 2 {
			red.ExUnits = ExUnits{Mem: r.ExUnits[0], Steps: r.ExUnits[1]}
		}
		tx.Witnesses.Redeemers = append(tx.Witnesses.Redeemers, red)
	}
	return tx, Blake2b256(w.Body), nil
}

// OutputSize returns the encoded size of an output, used for minimum-value
// calculations.
func OutputSize(o Output) (int, error) {
	wo, err := toWireOutput(o)
	if err != nil {
		return 0, err
	}
	b, err := encMode.Marshal(wo)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func toWireInputs(refs []OutRef) []wireInput {
	if len(refs) == 0 {
		return nil
	}
	out := make([]wireInput, len(refs))
	for i, r := range refs {
		out[i] = wireInput{TxHash: append([]byte(nil), r.TxHash[:]...), Index: r.Index}
	}
	return out
}

func fromWireInputs(ws []wireInput) ([]OutRef, error) {
	var out []OutRef
	for _, w := range ws {
		h, err := TxHashFromBytes(w.TxHash)
		if err != nil {
			return nil, fmt.Errorf("%w: input: %w", ErrInvalidTx, err)
		}
		out = append(out, OutRef{TxHash: h, Index: w.Index})
	}
	return out, nil
}

func toWireOutput(o Output) (wireOutput, error) {
	value, err := encodeValue(o.Assets)
	if err != nil {
		return wireOutput{}, err
	}
	wo := wireOutput{Address: o.Address.Bytes(), Value: value}
	if o.Datum != nil {
		wo.Datum = &wireDatum{Kind: datumInline, Data: cbor.Tag{Number: tagEmbeddedCBOR, Content: o.Datum}}
	}
	if o.ScriptRef != nil {
		var inner []byte
		if o.ScriptRef.Version == NativeScriptVersion {
			inner, err = encMode.Marshal([]interface{}{uint8(0), cbor.RawMessage(o.ScriptRef.Bytes)})
		} else {
			inner, err = encMode.Marshal([]interface{}{uint8(o.ScriptRef.Version), o.ScriptRef.Bytes})
		}
		if err != nil {
			return wireOutput{}, fmt.Errorf("script ref: %w", err)
		}
		wo.ScriptRef = &cbor.Tag{Number: tagEmbeddedCBOR, Content: inner}
	}
	return wo, nil
}

func fromWireOutput(wo wireOutput) (Output, error) {
	addr, err := AddressFromBytes(wo.Address)
	if err != nil {
		return Output{}, err
	}
	assets, err := decodeValue(wo.Value)
	if err != nil {
		return Output{}, err
	}
	o := Output{Address: addr, Assets: assets}
	if wo.Datum != nil {
		b, ok := wo.Datum.Data.Content.([]byte)
		if wo.Datum.Kind != datumInline || !ok {
			return Output{}, fmt.Errorf("only inline datums are supported")
		}
		o.Datum = b
	}
	if wo.ScriptRef != nil {
		inner, ok := wo.ScriptRef.Content.([]byte)
		if !ok {
			return Output{}, fmt.Errorf("malformed script ref")
		}
		var parts []cbor.RawMessage
		if err := cbor.Unmarshal(inner, &parts); err != nil || len(parts) != 2 {
			return Output{}, fmt.Errorf("malformed script ref")
		}
		var version uint8
		if err := cbor.Unmarshal(parts[0], &version); err != nil {
			return Output{}, fmt.Errorf("script ref version: %w", err)
		}
		s := &Script{Version: ScriptVersion(version)}
		if s.Version == NativeScriptVersion {
			s.Bytes = []byte(parts[1])
		} else if err := cbor.Unmarshal(parts[1], &s.Bytes); err != nil {
			return Output{}, fmt.Errorf("script ref bytes: %w", err)
		}
		o.ScriptRef = s
	}
	return o, nil
}

func encodeValue(a Assets) (cbor.RawMessage, error) {
	coin := a.Lovelace()
	if coin < 0 {
		return nil, fmt.Errorf("%w: lovelace %d", ErrNegativeValue, coin)
	}
	ma, err := toMultiAsset(a, false)
	if err != nil {
		return nil, err
	}
	if len(ma) == 0 {
		return encMode.Marshal(uint64(coin))
	}
	return encMode.Marshal([]interface{}{uint64(coin), ma})
}

func decodeValue(raw cbor.RawMessage) (Assets, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	if raw[0]>>5 == 0 {
		var coin uint64
		if err := cbor.Unmarshal(raw, &coin); err != nil {
			return nil, err
		}
		return NewAssets(int64(coin)), nil
	}
	var parts []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &parts); err != nil || len(parts) != 2 {
		return nil, fmt.Errorf("malformed multi-asset value")
	}
	var coin uint64
	if err := cbor.Unmarshal(parts[0], &coin); err != nil {
		return nil, err
	}
	var ma multiAsset
	if err := cbor.Unmarshal(parts[1], &ma); err != nil {
		return nil, err
	}
	assets, err := fromMultiAsset(ma)
	if err != nil {
		return nil, err
	}
	assets[Lovelace] = int64(coin)
	return assets.Compact(), nil
}

func toMultiAsset(a Assets, allowNegative bool) (multiAsset, error) {
	ma := multiAsset{}
	for _, u := range a.Units() {
		if u == Lovelace {
			continue
		}
		q := a[u]
		if q < 0 && !allowNegative {
			return nil, fmt.Errorf("%w: %s %d", ErrNegativeValue, u, q)
		}
		policy, name, err := u.Split()
		if err != nil {
			return nil, err
		}
		pk := cbor.ByteString(policy[:])
		if ma[pk] == nil {
			ma[pk] = map[cbor.ByteString]int64{}
		}
		ma[pk][cbor.ByteString(name)] = q
	}
	return ma, nil
}

func fromMultiAsset(ma multiAsset) (Assets, error) {
	out := Assets{}
	policies := make([]string, 0, len(ma))
	for p := range ma {
		policies = append(policies, string(p))
	}
	sort.Strings(policies)
	for _, p := range policies {
		policy, err := Hash28FromBytes([]byte(p))
		if err != nil {
			return nil, err
		}
		for name, q := range ma[cbor.ByteString(p)] {
			out[NewUnit(policy, []byte(name))] += q
		}
	}
	return out.Compact(), nil
}
