package mesh

import (
	"bytes"
	"iter"

	"github.com/gofhir/termsmap/arena"
)

// Record is a stored MeSH node. Its text lives in the owning arena as
// "uid\x00name\x00"; parent refers to the uid bytes of the parent record.
type Record struct {
	buf     arena.Ref
	parent  arena.Ref
	uidLen  uint32
	nameLen uint32

	Kind     Kind
	Category Category
	Modifier Modifier
}

// UIDRef returns the reference to the record's uid bytes.
func (r Record) UIDRef() arena.Ref {
	return r.buf.Slice(0, int(r.uidLen))
}

// NameRef returns the reference to the record's name bytes.
func (r Record) NameRef() arena.Ref {
	return r.buf.Slice(int(r.uidLen)+1, int(r.nameLen))
}

// Entry is a materialised view of a Record. Its strings alias arena memory
// and must not be used after the owning document is closed.
type Entry struct {
	UID       string
	Name      string
	ParentUID string
	Kind      Kind
	Category  Category
	Modifier  Modifier
}

// HasParent reports whether the entry is nested under another record.
func (e Entry) HasParent() bool {
	return e.ParentUID != ""
}

// Store is a multimap of records keyed by uid. The same uid may appear
// under different parents or kinds; an identical (uid, parent, kind)
// triple is kept once, first occurrence wins.
//
// Store is not safe for concurrent writes. Once loading has finished it
// may be read from any number of goroutines.
type Store struct {
	arena   *arena.Arena
	records []Record
	index   map[string][]int32
}

// NewStore creates an empty store allocating from a.
func NewStore(a *arena.Arena) *Store {
	return &Store{
		arena: a,
		index: make(map[string][]int32),
	}
}

// Add packs uid and name into the arena and stores the record. If an
// identical (uid, parent, kind) record exists, nothing is allocated and the
// existing record's uid reference is returned with added == false.
func (s *Store) Add(uid, name []byte, parent arena.Ref, kind Kind, cat Category, mod Modifier) (arena.Ref, bool, error) {
	if i, ok := s.find(uid, parent, kind); ok {
		return s.records[i].UIDRef(), false, nil
	}

	ref, buf, err := s.arena.Alloc(len(uid) + len(name) + 2)
	if err != nil {
		return arena.Ref{}, false, err
	}
	n := copy(buf, uid)
	buf[n] = 0
	m := copy(buf[n+1:], name)
	buf[n+1+m] = 0

	rec := Record{
		buf:      ref,
		parent:   parent,
		uidLen:   uint32(n), //nolint:gosec // bounded by arena region size
		nameLen:  uint32(m), //nolint:gosec // bounded by arena region size
		Kind:     kind,
		Category: cat,
		Modifier: mod,
	}

	key := s.arena.String(rec.UIDRef())
	s.index[key] = append(s.index[key], int32(len(s.records))) //nolint:gosec // record count fits int32
	s.records = append(s.records, rec)
	return rec.UIDRef(), true, nil
}

func (s *Store) find(uid []byte, parent arena.Ref, kind Kind) (int32, bool) {
	want := s.arena.Bytes(parent)
	for _, i := range s.index[string(uid)] {
		rec := s.records[i]
		if rec.Kind == kind && bytes.Equal(s.arena.Bytes(rec.parent), want) {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) entry(r Record) Entry {
	return Entry{
		UID:       s.arena.String(r.UIDRef()),
		Name:      s.arena.String(r.NameRef()),
		ParentUID: s.arena.String(r.parent),
		Kind:      r.Kind,
		Category:  r.Category,
		Modifier:  r.Modifier,
	}
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// HasIdentifier reports whether any record has the given uid.
func (s *Store) HasIdentifier(uid string) bool {
	_, ok := s.index[uid]
	return ok
}

// Lookup returns every record with the given uid, in document order.
func (s *Store) Lookup(uid string) []Entry {
	idx := s.index[uid]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = s.entry(s.records[j])
	}
	return out
}

// All yields every record in document order.
func (s *Store) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, r := range s.records {
			if !yield(s.entry(r)) {
				return
			}
		}
	}
}

// Reset drops all records. The caller is responsible for releasing the arena.
func (s *Store) Reset() {
	clear(s.index)
	s.records = s.records[:0]
}
