package plutus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Constructor tag layout:
//
//	index 0..6     -> tag 121+index
//	index 7..127   -> tag 1280+(index-7)
//	anything else  -> tag 102 [index, fields]
const (
	tagCompactBase   = 121
	tagCompactLast   = 127
	tagExtendedBase  = 1280
	tagExtendedLast  = 1400
	tagGeneral       = 102
	tagPosBignum     = 2
	tagNegBignum     = 3
	cborBreak        = 0xff
	majorUnsigned    = 0
	majorNegative    = 1
	majorBytes       = 2
	majorArray       = 4
	majorMap         = 5
	majorTag         = 6
	additionalIndef  = 31
	additionalUint8  = 24
	additionalUint16 = 25
	additionalUint32 = 26
	additionalUint64 = 27
)

// Marshal encodes d to CBOR.
func Marshal(d Data) ([]byte, error) {
	w, err := toWire(d)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(w)
}

// MustMarshal is Marshal for values built in code; it panics on error.
func MustMarshal(d Data) []byte {
	b, err := Marshal(d)
	if err != nil {
		panic(err)
	}
	return b
}

// Unmarshal decodes a single CBOR item into Data.
func Unmarshal(raw []byte) (Data, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}
	return decode(raw)
}

func toWire(d Data) (interface{}, error) {
	switch v := d.(type) {
	case nil:
		return nil, ErrNilData
	case Constr:
		fields := make([]interface{}, len(v.Fields))
		for i, f := range v.Fields {
			w, err := toWire(f)
			if err != nil {
				return nil, fmt.Errorf("constructor %d field %d: %w", v.Index, i, err)
			}
			fields[i] = w
		}
		switch {
		case v.Index <= tagCompactLast-tagCompactBase:
			return cbor.Tag{Number: tagCompactBase + v.Index, Content: fields}, nil
		case v.Index <= 127:
			return cbor.Tag{Number: tagExtendedBase + v.Index - 7, Content: fields}, nil
		default:
			return cbor.Tag{Number: tagGeneral, Content: []interface{}{v.Index, fields}}, nil
		}
	case Int:
		return v.Big(), nil
	case Bytes:
		return []byte(v), nil
	case List:
		items := make([]interface{}, len(v))
		for i, item := range v {
			w, err := toWire(item)
			if err != nil {
				return nil, fmt.Errorf("list item %d: %w", i, err)
			}
			items[i] = w
		}
		return items, nil
	case Map:
		return orderedMap(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedItem, d)
	}
}

// orderedMap keeps entry order, which a Go map would not.
type orderedMap []Pair

func (m orderedMap) MarshalCBOR() ([]byte, error) {
	buf := appendHead(nil, majorMap, uint64(len(m)))
	for i, p := range m {
		k, err := Marshal(p.Key)
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		v, err := Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
		buf = append(buf, k...)
		buf = append(buf, v...)
	}
	return buf, nil
}

func appendHead(buf []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < additionalUint8:
		return append(buf, m|byte(n))
	case n <= 0xff:
		return append(buf, m|additionalUint8, byte(n))
	case n <= 0xffff:
		return binary.BigEndian.AppendUint16(append(buf, m|additionalUint16), uint16(n))
	case n <= 0xffffffff:
		return binary.BigEndian.AppendUint32(append(buf, m|additionalUint32), uint32(n))
	default:
		return binary.BigEndian.AppendUint64(append(buf, m|additionalUint64), n)
	}
}

func decode(raw []byte) (Data, error) {
	switch raw[0] >> 5 {
	case majorUnsigned, majorNegative:
		return decodeInt(raw)
	case majorBytes:
		var b []byte
		if err := cbor.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%w: bytes: %w", ErrUnsupportedItem, err)
		}
		return Bytes(b), nil
	case majorArray:
		var items []cbor.RawMessage
		if err := cbor.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: list: %w", ErrUnsupportedItem, err)
		}
		return decodeList(items)
	case majorMap:
		return decodeMap(raw)
	case majorTag:
		return decodeTag(raw)
	default:
		return nil, fmt.Errorf("%w: major type %d", ErrUnsupportedItem, raw[0]>>5)
	}
}

func decodeInt(raw []byte) (Data, error) {
	var n big.Int
	if err := cbor.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: integer: %w", ErrUnsupportedItem, err)
	}
	return Int{v: &n}, nil
}

func decodeList(items []cbor.RawMessage) (List, error) {
	out := make(List, len(items))
	for i, item := range items {
		d, err := decode(item)
		if err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

func decodeTag(raw []byte) (Data, error) {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("%w: tag: %w", ErrUnsupportedItem, err)
	}

	switch n := tag.Number; {
	case n == tagPosBignum || n == tagNegBignum:
		return decodeInt(raw)
	case n >= tagCompactBase && n <= tagCompactLast:
		return decodeFields(n-tagCompactBase, tag.Content)
	case n >= tagExtendedBase && n <= tagExtendedLast:
		return decodeFields(n-tagExtendedBase+7, tag.Content)
	case n == tagGeneral:
		var general []cbor.RawMessage
		if err := cbor.Unmarshal(tag.Content, &general); err != nil || len(general) != 2 {
			return nil, fmt.Errorf("%w: malformed general constructor", ErrUnsupportedItem)
		}
		var index uint64
		if err := cbor.Unmarshal(general[0], &index); err != nil {
			return nil, fmt.Errorf("%w: general constructor index: %w", ErrUnsupportedItem, err)
		}
		return decodeFields(index, general[1])
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedItem, n)
	}
}

func decodeFields(index uint64, content cbor.RawMessage) (Data, error) {
	var items []cbor.RawMessage
	if err := cbor.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("%w: constructor %d fields: %w", ErrUnsupportedItem, index, err)
	}
	fields, err := decodeList(items)
	if err != nil {
		return nil, fmt.Errorf("constructor %d: %w", index, err)
	}
	return Constr{Index: index, Fields: []Data(fields)}, nil
}

func decodeMap(raw []byte) (Data, error) {
	count, hdr, indefinite, err := readHead(raw)
	if err != nil {
		return nil, err
	}
	rest := raw[hdr:]
	dec := cbor.NewDecoder(bytes.NewReader(rest))

	var out Map
	for i := uint64(0); indefinite || i < count; i++ {
		if indefinite {
			pos := dec.NumBytesRead()
			if pos >= len(rest) {
				return nil, fmt.Errorf("%w: unterminated map", ErrUnsupportedItem)
			}
			if rest[pos] == cborBreak {
				break
			}
		}
		var k, v cbor.RawMessage
		if err := dec.Decode(&k); err != nil {
			return nil, fmt.Errorf("%w: map key %d: %w", ErrUnsupportedItem, i, err)
		}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: map value %d: %w", ErrUnsupportedItem, i, err)
		}
		kd, err := decode(k)
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		vd, err := decode(v)
		if err != nil {
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
		out = append(out, Pair{Key: kd, Value: vd})
	}
	if out == nil {
		out = Map{}
	}
	return out, nil
}

// readHead parses the initial byte(s) of a container and returns its element
// count, the header length and whether it is indefinite-length.
func readHead(raw []byte) (count uint64, hdr int, indefinite bool, err error) {
	ai := raw[0] & 0x1f
	need := func(n int) error {
		if len(raw) < 1+n {
			return fmt.Errorf("%w: truncated header", ErrUnsupportedItem)
		}
		return nil
	}
	switch {
	case ai < additionalUint8:
		return uint64(ai), 1, false, nil
	case ai == additionalUint8:
		if err := need(1); err != nil {
			return 0, 0, false, err
		}
		return uint64(raw[1]), 2, false, nil
	case ai == additionalUint16:
		if err := need(2); err != nil {
			return 0, 0, false, err
		}
		return uint64(binary.BigEndian.Uint16(raw[1:3])), 3, false, nil
	case ai == additionalUint32:
		if err := need(4); err != nil {
			return 0, 0, false, err
		}
		return uint64(binary.BigEndian.Uint32(raw[1:5])), 5, false, nil
	case ai == additionalUint64:
		if err := need(8); err != nil {
			return 0, 0, false, err
		}
		return binary.BigEndian.Uint64(raw[1:9]), 9, false, nil
	case ai == additionalIndef:
		return 0, 1, true, nil
	default:
		return 0, 0, false, fmt.Errorf("%w: reserved additional info %d", ErrUnsupportedItem, ai)
	}
}
