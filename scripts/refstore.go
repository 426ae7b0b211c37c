package scripts

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/linkedlist-go/ledger"
)

// Ref records where a role's script was published.
type Ref struct {
	OutRef     ledger.OutRef
	ScriptHash ledger.Hash28
}

// RefStore persists the reference outputs of published scripts.
type RefStore interface {
	// Put records the reference output of role, replacing any previous one.
	Put(role Role, ref Ref) error

	// Get returns the reference output of role.
	Get(role Role) (Ref, error)

	// Delete forgets role.
	Delete(role Role) error

	// List returns every recorded role in Roles order.
	List() ([]RoleRef, error)
}

// RoleRef is one registry entry.
type RoleRef struct {
	Role Role
	Ref  Ref
}

// MemRefStore is an in-memory RefStore.
type MemRefStore struct {
	mu   sync.RWMutex
	refs map[Role]Ref
}

// NewMemRefStore creates an empty in-memory registry.
func NewMemRefStore() *MemRefStore {
	return &MemRefStore{refs: make(map[Role]Ref)}
}

var _ RefStore = (*MemRefStore)(nil)

func (s *MemRefStore) Put(role Role, ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[role] = ref
	return nil
}

func (s *MemRefStore) Get(role Role) (Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[role]
	if !ok {
		return Ref{}, fmt.Errorf("%w: %s", ErrNotFound, role)
	}
	return ref, nil
}

func (s *MemRefStore) Delete(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refs, role)
	return nil
}

func (s *MemRefStore) List() ([]RoleRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ordered(s.refs), nil
}

func ordered(refs map[Role]Ref) []RoleRef {
	rank := make(map[Role]int, len(Roles))
	for i, r := range Roles {
		rank[r] = i
	}
	out := make([]RoleRef, 0, len(refs))
	for role, ref := range refs {
		out = append(out, RoleRef{Role: role, Ref: ref})
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i].Role] < rank[out[j].Role] })
	return out
}

var bucketRefs = []byte("refs")

// refRecord is the gob form of a Ref.
type refRecord struct {
	TxHash     []byte
	Index      uint32
	ScriptHash []byte
}

// BoltRefStore persists the registry in a bbolt database.
type BoltRefStore struct {
	db *bbolt.DB
}

var _ RefStore = (*BoltRefStore)(nil)

// OpenBoltRefStore opens or creates the registry at dbPath. The parent
// directory is created if it does not exist.
func OpenBoltRefStore(dbPath string) (*BoltRefStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("scripts: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("scripts: open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRefs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scripts: create bucket: %w", err)
	}
	return &BoltRefStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltRefStore) Close() error { return s.db.Close() }

func (s *BoltRefStore) Put(role Role, ref Ref) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	var buf bytes.Buffer
	rec := refRecord{TxHash: ref.OutRef.TxHash[:], Index: ref.OutRef.Index, ScriptHash: ref.ScriptHash.Bytes()}
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("scripts: encode ref: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRefs).Put([]byte(role), buf.Bytes())
	})
}

func (s *BoltRefStore) Get(role Role) (Ref, error) {
	var ref Ref
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRefs).Get([]byte(role))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, role)
		}
		var err error
		ref, err = decodeRef(data)
		return err
	})
	return ref, err
}

func (s *BoltRefStore) Delete(role Role) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRefs).Delete([]byte(role))
	})
}

func (s *BoltRefStore) List() ([]RoleRef, error) {
	refs := map[Role]Ref{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRefs).ForEach(func(k, v []byte) error {
			ref, err := decodeRef(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			refs[Role(k)] = ref
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ordered(refs), nil
}

func decodeRef(data []byte) (Ref, error) {
	var rec refRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return Ref{}, fmt.Errorf("scripts: decode ref: %w", err)
	}
	h, err := ledger.TxHashFromBytes(rec.TxHash)
	if err != nil {
		return Ref{}, err
	}
	sh, err := ledger.Hash28FromBytes(rec.ScriptHash)
	if err != nil {
		return Ref{}, err
	}
	return Ref{OutRef: ledger.OutRef{TxHash: h, Index: rec.Index}, ScriptHash: sh}, nil
}
