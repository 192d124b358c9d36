package xref

import (
	"bytes"

	tm "github.com/gofhir/termsmap"
)

// Prune removes every uid group that does not reach both MeSH and SNOMED
// and returns the number of groups removed.
//
// The first record of a group (in key order) decides which system the
// group must also contain: SNOMED when it is a MeSH row, MeSH otherwise.
func Prune(s *Store) int {
	var orphans []string
	for uid := range s.UIDs() {
		idx := s.group(uid)
		first := s.arena.Bytes(s.records[idx[0]].SourceRef())
		sibling := []byte(siblingOf(first))

		paired := false
		for _, i := range idx[1:] {
			if bytes.HasPrefix(s.arena.Bytes(s.records[i].SourceRef()), sibling) {
				paired = true
				break
			}
		}
		if !paired {
			orphans = append(orphans, uid)
		}
	}
	s.Erase(orphans...)
	return len(orphans)
}

func siblingOf(source []byte) tm.CodingSystem {
	if bytes.HasPrefix(source, meshSource) {
		return tm.MeSH.Sibling()
	}
	return tm.SNOMED.Sibling()
}
