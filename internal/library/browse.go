package library

import (
	"sort"
	"strings"

	"github.com/nsharda/inklet/internal/backend"
)

// TaggedSection is one section flattened out of the document list, tagged
// with its owning document's filename.
type TaggedSection struct {
	backend.Section
	Document string
}

// SortOrder enumerates the browser's sort modes.
type SortOrder string

const (
	// SortRelevance preserves input order, which already reflects the
	// engine's relevance ranking.
	SortRelevance SortOrder = "relevance"
	SortTitle     SortOrder = "title"
	SortPage      SortOrder = "page"
	SortDocument  SortOrder = "document"
)

// SortOrders lists the selectable modes in display order.
var SortOrders = []SortOrder{SortRelevance, SortTitle, SortPage, SortDocument}

// Query captures the browser's current filter and sort state.
type Query struct {
	// Search matches section title, owning filename, or snippet,
	// case-insensitively. Empty means no filtering.
	Search string
	// Document restricts to one filename exactly. Empty means all.
	Document string
	Sort     SortOrder
}

// Flatten collects every section across the given documents into one
// sequence in document order. It never mutates its input.
func Flatten(docs []backend.UploadedDocument) []TaggedSection {
	var sections []TaggedSection
	for _, doc := range docs {
		for _, section := range doc.Sections {
			sections = append(sections, TaggedSection{Section: section, Document: doc.Filename})
		}
	}
	return sections
}

// Browse applies the query's filters and sort to the flattened sections.
// The result is always a fresh slice; the input is left untouched.
func Browse(sections []TaggedSection, q Query) []TaggedSection {
	filtered := make([]TaggedSection, 0, len(sections))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, section := range sections {
		if needle != "" && !matchesSearch(section, needle) {
			continue
		}
		if q.Document != "" && section.Document != q.Document {
			continue
		}
		filtered = append(filtered, section)
	}

	switch q.Sort {
	case SortTitle:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Title < filtered[j].Title
		})
	case SortPage:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Page < filtered[j].Page
		})
	case SortDocument:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Document < filtered[j].Document
		})
	case SortRelevance:
		// Input order is the ranking.
	}
	return filtered
}

func matchesSearch(section TaggedSection, needle string) bool {
	return strings.Contains(strings.ToLower(section.Title), needle) ||
		strings.Contains(strings.ToLower(section.Document), needle) ||
		strings.Contains(strings.ToLower(section.Snippet), needle)
}

// FilterPDFNames returns only the names with a .pdf extension, compared
// case-insensitively. Everything else is silently dropped.
func FilterPDFNames(names []string) []string {
	var pdfs []string
	for _, name := range names {
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			pdfs = append(pdfs, name)
		}
	}
	return pdfs
}
