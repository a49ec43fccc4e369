// Package library holds the session's uploaded-document list and the pure
// filtering, search, and sorting that the sections browser runs over it.
package library

import (
	"github.com/nsharda/inklet/internal/backend"
)

// DuplicatePolicy decides what happens when a filename is uploaded twice in
// one session.
type DuplicatePolicy int

const (
	// DuplicateAppend keeps both entries, newest last. This matches the
	// engine frontend's historical behavior.
	DuplicateAppend DuplicatePolicy = iota
	// DuplicateReplace swaps the existing entry in place.
	DuplicateReplace
)

// Store is the session-scoped document list. It is owned by the
// application shell and only ever touched from the event loop.
type Store struct {
	docs   []backend.UploadedDocument
	policy DuplicatePolicy
}

// NewStore returns an empty Store with the given duplicate policy.
func NewStore(policy DuplicatePolicy) *Store {
	return &Store{policy: policy}
}

// Add merges freshly uploaded documents into the session list according to
// the duplicate policy and reports how many were appended vs replaced.
func (s *Store) Add(docs []backend.UploadedDocument) (appended, replaced int) {
	for _, doc := range docs {
		if s.policy == DuplicateReplace {
			if idx := s.indexOf(doc.Filename); idx >= 0 {
				// Keep previously fetched sections when the replacement
				// arrives without them.
				if doc.Sections == nil {
					doc.Sections = s.docs[idx].Sections
				}
				s.docs[idx] = doc
				replaced++
				continue
			}
		}
		s.docs = append(s.docs, doc)
		appended++
	}
	return appended, replaced
}

// SetSections attaches fetched sections to every entry for the filename.
func (s *Store) SetSections(filename string, sections []backend.Section) {
	for i := range s.docs {
		if s.docs[i].Filename == filename {
			s.docs[i].Sections = sections
			s.docs[i].SectionsCount = len(sections)
		}
	}
}

// Documents returns the session list in upload order. Callers must not
// mutate the returned slice.
func (s *Store) Documents() []backend.UploadedDocument {
	return s.docs
}

// Get returns the first entry for filename.
func (s *Store) Get(filename string) (backend.UploadedDocument, bool) {
	if idx := s.indexOf(filename); idx >= 0 {
		return s.docs[idx], true
	}
	return backend.UploadedDocument{}, false
}

// Len reports how many entries the session holds.
func (s *Store) Len() int {
	return len(s.docs)
}

// TotalSections sums the extracted-section counts across the session.
func (s *Store) TotalSections() int {
	total := 0
	for _, doc := range s.docs {
		total += doc.SectionsCount
	}
	return total
}

func (s *Store) indexOf(filename string) int {
	for i, doc := range s.docs {
		if doc.Filename == filename {
			return i
		}
	}
	return -1
}
