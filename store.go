package factgraph

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is the writable-fact persistence layer described in spec.md §5: a
// flat map from concrete path to tagged value, plus the migration counter
// that gates which migrations still need to run on load.
type Store struct {
	mu                sync.RWMutex
	values            map[string]Value
	migrationsApplied int
}

// NewStore returns an empty store at migration level 0.
func NewStore() *Store {
	return &Store{values: map[string]Value{}}
}

// Get returns the writable value at path, if one has been set.
func (s *Store) Get(path Path) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[path.String()]
	return v, ok
}

// Put records v at path, overwriting any prior value.
func (s *Store) Put(path Path, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[path.String()] = v
}

// Delete removes any value at path.
func (s *Store) Delete(path Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, path.String())
}

// EnumerateWritables returns every concrete path with a stored value,
// sorted for deterministic iteration.
func (s *Store) EnumerateWritables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MigrationsApplied reports the highest migration number this store has
// had applied to it.
func (s *Store) MigrationsApplied() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.migrationsApplied
}

// SetMigrationsApplied records the migration level, per spec.md §7's load
// protocol: after applying migrations k+1..TOTAL, the store is stamped
// with TOTAL.
func (s *Store) SetMigrationsApplied(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.migrationsApplied = n
}

// storeDoc is the on-disk JSON shape of a Store.
type storeDoc struct {
	MigrationsApplied int                        `json:"migrations_applied"`
	Facts             map[string]json.RawMessage `json:"facts"`
}

// ToJSON serializes the store using the tagged value codec for each fact.
func (s *Store) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := storeDoc{MigrationsApplied: s.migrationsApplied, Facts: map[string]json.RawMessage{}}
	for path, v := range s.values {
		encoded, err := EncodeTaggedValue(v)
		if err != nil {
			return nil, newError("Store.ToJSON", KindParseError, path, err)
		}
		doc.Facts[path] = encoded
	}
	return json.Marshal(doc)
}

// StoreFromJSON parses a serialized store. Values are decoded using their
// embedded type tag; Enum/MultiEnum facts are re-hydrated with the empty
// options path, and neither this function nor Graph fills it back in
// from the dictionary.
func StoreFromJSON(data []byte) (*Store, error) {
	var doc storeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, newError("StoreFromJSON", KindParseError, "", err)
	}
	s := NewStore()
	s.migrationsApplied = doc.MigrationsApplied
	for path, raw := range doc.Facts {
		v, err := DecodeTaggedValue(raw)
		if err != nil {
			return nil, newError("StoreFromJSON", KindParseError, path, err)
		}
		s.values[path] = v
	}
	return s, nil
}

// SyncWithDictionary drops any stored fact whose abstract path is no
// longer declared writable in d, returning the concrete paths removed.
// This reconciles a store against a dictionary that has evolved since the
// store was last saved, ahead of migrations running.
func (s *Store) SyncWithDictionary(d *Dictionary) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for key := range s.values {
		p, err := ParsePath(key)
		if err != nil {
			removed = append(removed, key)
			delete(s.values, key)
			continue
		}
		fd, ok := d.LookupConcrete(p)
		if !ok || !fd.Writable {
			removed = append(removed, key)
			delete(s.values, key)
		}
	}
	sort.Strings(removed)
	return removed
}

// NewMemberID mints a fresh collection member identifier, per spec.md
// §4.7's add_member operation.
func NewMemberID() string {
	return uuid.NewString()
}
