package archive

import (
	"regexp"
	"strings"
)

// continuationMarker matches trailing "(n/m)" thread counters, e.g.
// "some text (2/5)".
var continuationMarker = regexp.MustCompile(`\s*\(\d+/\d+\)\s*$`)

// MergeThreads collapses consecutive self-reply chains into single logical
// records. The input must already be sorted ascending by identifier: a
// chain only forms when a record's reply-to identifier equals the
// identifier of the record currently being accumulated.
//
// The merged record keeps the identifier of the chain's first member. Its
// text is the parts joined with single spaces, trailing continuation
// markers removed, and its entities are replaced by the final part's
// entities, because the last part of a thread carries the authoritative
// URL and media set.
//
// Merging is a pure fold over the input; the caller's slice is not
// modified.
func MergeThreads(records []Record) []Record {
	merged := make([]Record, 0, len(records))
	var open *Record

	for _, rec := range records {
		if open != nil && rec.InReplyToID == open.ID {
			open.FullText = trimContinuationMarker(open.FullText) + " " + trimContinuationMarker(rec.FullText)
			open.Entities = rec.Entities
			continue
		}
		if open != nil {
			merged = append(merged, *open)
		}
		next := rec
		open = &next
	}

	if open != nil {
		merged = append(merged, *open)
	}

	return merged
}

func trimContinuationMarker(text string) string {
	return strings.TrimRight(continuationMarker.ReplaceAllString(text, ""), " ")
}
