package xref

import (
	"bytes"
	"iter"
	"slices"

	"github.com/gofhir/termsmap/arena"
)

// Record is a stored cross-reference. Its text lives in the owning arena as
// "uid\x00source\x00target\x00".
type Record struct {
	buf    arena.Ref
	uidLen uint32
	srcLen uint32
	trgLen uint32
}

// UIDRef returns the reference to the uid bytes.
func (r Record) UIDRef() arena.Ref {
	return r.buf.Slice(0, int(r.uidLen))
}

// SourceRef returns the reference to the source abbreviation bytes.
func (r Record) SourceRef() arena.Ref {
	return r.buf.Slice(int(r.uidLen)+1, int(r.srcLen))
}

// TargetRef returns the reference to the target code bytes.
func (r Record) TargetRef() arena.Ref {
	return r.buf.Slice(int(r.uidLen+r.srcLen)+2, int(r.trgLen))
}

// Entry is a materialised view of a Record. Its strings alias arena memory
// and must not be used after the owning document is closed.
type Entry struct {
	UID    string
	Source string
	Target string
}

// Store is a multimap of cross-references grouped by uid. A full
// (uid, source, target) tuple is stored at most once.
//
// Iteration follows the key order: uid and source compared as one
// concatenated string, ties in insertion order.
type Store struct {
	arena   *arena.Arena
	records []Record
	keys    map[string]struct{}
	groups  map[string][]int32
	order   []int32
	sorted  bool
	scratch []byte
}

// NewStore creates an empty store allocating from a.
func NewStore(a *arena.Arena) *Store {
	return &Store{
		arena:  a,
		keys:   make(map[string]struct{}),
		groups: make(map[string][]int32),
	}
}

// Exists implements pipeline.Tester over the selected uid, source and
// target columns.
func (s *Store) Exists(cols [][]byte) bool {
	if len(cols) != 3 {
		return false
	}
	s.scratch = s.scratch[:0]
	for _, col := range cols {
		s.scratch = append(s.scratch, col...)
		s.scratch = append(s.scratch, 0)
	}
	_, ok := s.keys[string(s.scratch)]
	return ok
}

// Contains reports whether the exact tuple is stored.
func (s *Store) Contains(uid, source, target string) bool {
	_, ok := s.keys[uid+"\x00"+source+"\x00"+target+"\x00"]
	return ok
}

// Insert stores rec unless its tuple is already present.
func (s *Store) Insert(rec Record) bool {
	key := s.arena.String(rec.buf)
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}

	uid := s.arena.String(rec.UIDRef())
	s.groups[uid] = append(s.groups[uid], int32(len(s.records))) //nolint:gosec // record count fits int32
	s.records = append(s.records, rec)
	s.sorted = false
	return true
}

// Add packs uid, source and target into the arena and inserts the record.
func (s *Store) Add(uid, source, target []byte) (bool, error) {
	if s.Exists([][]byte{uid, source, target}) {
		return false, nil
	}
	ref, buf, err := s.arena.Alloc(len(uid) + len(source) + len(target) + 3)
	if err != nil {
		return false, err
	}
	off := 0
	for _, f := range [][]byte{uid, source, target} {
		n := copy(buf[off:], f)
		buf[off+n] = 0
		off += n + 1
	}
	return s.Insert(Record{
		buf:    ref,
		uidLen: uint32(len(uid)),    //nolint:gosec // bounded by arena region size
		srcLen: uint32(len(source)), //nolint:gosec // bounded by arena region size
		trgLen: uint32(len(target)), //nolint:gosec // bounded by arena region size
	}), nil
}

func (s *Store) entry(r Record) Entry {
	return Entry{
		UID:    s.arena.String(r.UIDRef()),
		Source: s.arena.String(r.SourceRef()),
		Target: s.arena.String(r.TargetRef()),
	}
}

// compare orders records by uid+source concatenation.
func (s *Store) compare(a, b Record) int {
	ua, sa := s.arena.Bytes(a.UIDRef()), s.arena.Bytes(a.SourceRef())
	ub, sb := s.arena.Bytes(b.UIDRef()), s.arena.Bytes(b.SourceRef())
	return compareConcat(ua, sa, ub, sb)
}

// compareConcat compares a1+a2 with b1+b2 without building either string.
func compareConcat(a1, a2, b1, b2 []byte) int {
	for {
		if len(a1) == 0 {
			a1, a2 = a2, nil
		}
		if len(b1) == 0 {
			b1, b2 = b2, nil
		}
		if len(a1) == 0 || len(b1) == 0 {
			return len(a1) - len(b1)
		}
		n := min(len(a1), len(b1))
		if c := bytes.Compare(a1[:n], b1[:n]); c != 0 {
			return c
		}
		a1, b1 = a1[n:], b1[n:]
	}
}

func (s *Store) sort() {
	if s.sorted {
		return
	}
	s.order = s.order[:0]
	for i := range s.records {
		s.order = append(s.order, int32(i)) //nolint:gosec // record count fits int32
	}
	slices.SortStableFunc(s.order, func(i, j int32) int {
		return s.compare(s.records[i], s.records[j])
	})
	s.sorted = true
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Groups returns the number of distinct uids.
func (s *Store) Groups() int {
	return len(s.groups)
}

// HasIdentifier reports whether any record has the given uid.
func (s *Store) HasIdentifier(uid string) bool {
	_, ok := s.groups[uid]
	return ok
}

// Lookup returns the records of one uid group in key order.
func (s *Store) Lookup(uid string) []Entry {
	idx := s.group(uid)
	if len(idx) == 0 {
		return nil
	}
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = s.entry(s.records[j])
	}
	return out
}

// group returns the record indices of uid in key order.
func (s *Store) group(uid string) []int32 {
	idx := slices.Clone(s.groups[uid])
	slices.SortStableFunc(idx, func(i, j int32) int {
		return s.compare(s.records[i], s.records[j])
	})
	return idx
}

// UIDs yields the distinct uids in key order.
func (s *Store) UIDs() iter.Seq[string] {
	s.sort()
	return func(yield func(string) bool) {
		last := ""
		for n, i := range s.order {
			uid := s.arena.String(s.records[i].UIDRef())
			if n > 0 && uid == last {
				continue
			}
			last = uid
			if !yield(uid) {
				return
			}
		}
	}
}

// All yields every record in key order.
func (s *Store) All() iter.Seq[Entry] {
	s.sort()
	return func(yield func(Entry) bool) {
		for _, i := range s.order {
			if !yield(s.entry(s.records[i])) {
				return
			}
		}
	}
}

// Erase removes every record of the given uids and returns how many
// records were dropped. Arena memory is not reclaimed until the document
// is closed.
func (s *Store) Erase(uids ...string) int {
	drop := make(map[int32]struct{})
	for _, uid := range uids {
		for _, i := range s.groups[uid] {
			drop[i] = struct{}{}
			delete(s.keys, s.arena.String(s.records[i].buf))
		}
		delete(s.groups, uid)
	}
	if len(drop) == 0 {
		return 0
	}
	s.compact(drop)
	return len(drop)
}

func (s *Store) compact(drop map[int32]struct{}) {
	kept := s.records[:0]
	remap := make(map[int32]int32, len(s.records)-len(drop))
	for i, rec := range s.records {
		if _, gone := drop[int32(i)]; gone { //nolint:gosec // record count fits int32
			continue
		}
		remap[int32(i)] = int32(len(kept)) //nolint:gosec // record count fits int32
		kept = append(kept, rec)
	}
	clear(s.records[len(kept):])
	s.records = kept
	for uid, idx := range s.groups {
		for n, i := range idx {
			idx[n] = remap[i]
		}
		s.groups[uid] = idx
	}
	s.sorted = false
}

// Reset drops all records. The caller is responsible for releasing the arena.
func (s *Store) Reset() {
	clear(s.keys)
	clear(s.groups)
	s.records = s.records[:0]
	s.order = s.order[:0]
	s.sorted = false
}
