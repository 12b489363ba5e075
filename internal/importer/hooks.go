package importer

import "github.com/birdsite/archivist/internal/archive"

// Extension interfaces let callers observe and reshape the pipeline's
// in-flight values without modifying the pipeline itself. Every field of
// Hooks is optional; a nil hook leaves the value untouched.

// RunHook observes the boundaries of a whole import run.
type RunHook interface {
	ImportStarted()
	ImportFinished(result Result)
}

// FileHook observes per-file boundaries and may rewrite the list of files
// to import (to merge several exports, or to drop parts).
type FileHook interface {
	FilterFiles(files []string) []string
	FileStarted(path string)
	FileFinished(path string)
}

// RecordHook customizes top-level item creation. TransformRecord runs
// before any filtering; RecordText receives the body after URL
// substitution and returns the text to store.
type RecordHook interface {
	TransformRecord(rec archive.Record) archive.Record
	BeforeItem(rec archive.Record)
	RecordText(text string, rec archive.Record) string
	AfterItem(itemID int64, rec archive.Record)
}

// CommentHook customizes comment creation for reply records.
type CommentHook interface {
	BeforeComment(rec archive.Record)
	CommentText(text string, rec archive.Record) string
	AfterComment(commentID int64, rec archive.Record)
}

// MediaHook customizes media attachment.
type MediaHook interface {
	TransformMedia(media archive.MediaEntity, rec archive.Record) archive.MediaEntity
	ImageTag(tag string, media archive.MediaEntity, rec archive.Record) string
	MediaImported(media archive.MediaEntity, itemID int64)
}

// TaxonomyHook rewrites the hashtag and ticker-symbol term lists before
// they are attached.
type TaxonomyHook interface {
	Hashtags(tags []string, rec archive.Record) []string
	TickerSymbols(symbols []string, rec archive.Record) []string
}

// PermalinkHook rewrites the synthesized original-post URL.
type PermalinkHook interface {
	PermalinkURL(url string, rec archive.Record) string
}

// Hooks aggregates the optional extension points accepted at pipeline
// construction. Any field may be nil.
type Hooks struct {
	Run       RunHook
	File      FileHook
	Record    RecordHook
	Comment   CommentHook
	Media     MediaHook
	Taxonomy  TaxonomyHook
	Permalink PermalinkHook
}

func (h Hooks) runStarted() {
	if h.Run != nil {
		h.Run.ImportStarted()
	}
}

func (h Hooks) runFinished(result Result) {
	if h.Run != nil {
		h.Run.ImportFinished(result)
	}
}

func (h Hooks) filterFiles(files []string) []string {
	if h.File != nil {
		return h.File.FilterFiles(files)
	}
	return files
}

func (h Hooks) fileStarted(path string) {
	if h.File != nil {
		h.File.FileStarted(path)
	}
}

func (h Hooks) fileFinished(path string) {
	if h.File != nil {
		h.File.FileFinished(path)
	}
}

func (h Hooks) transformRecord(rec archive.Record) archive.Record {
	if h.Record != nil {
		return h.Record.TransformRecord(rec)
	}
	return rec
}

func (h Hooks) beforeItem(rec archive.Record) {
	if h.Record != nil {
		h.Record.BeforeItem(rec)
	}
}

func (h Hooks) recordText(text string, rec archive.Record) string {
	if h.Record != nil {
		return h.Record.RecordText(text, rec)
	}
	return text
}

func (h Hooks) afterItem(itemID int64, rec archive.Record) {
	if h.Record != nil {
		h.Record.AfterItem(itemID, rec)
	}
}

func (h Hooks) beforeComment(rec archive.Record) {
	if h.Comment != nil {
		h.Comment.BeforeComment(rec)
	}
}

func (h Hooks) commentText(text string, rec archive.Record) string {
	if h.Comment != nil {
		return h.Comment.CommentText(text, rec)
	}
	return text
}

func (h Hooks) afterComment(commentID int64, rec archive.Record) {
	if h.Comment != nil {
		h.Comment.AfterComment(commentID, rec)
	}
}

func (h Hooks) transformMedia(media archive.MediaEntity, rec archive.Record) archive.MediaEntity {
	if h.Media != nil {
		return h.Media.TransformMedia(media, rec)
	}
	return media
}

func (h Hooks) imageTag(tag string, media archive.MediaEntity, rec archive.Record) string {
	if h.Media != nil {
		return h.Media.ImageTag(tag, media, rec)
	}
	return tag
}

func (h Hooks) mediaImported(media archive.MediaEntity, itemID int64) {
	if h.Media != nil {
		h.Media.MediaImported(media, itemID)
	}
}

func (h Hooks) hashtags(tags []string, rec archive.Record) []string {
	if h.Taxonomy != nil {
		return h.Taxonomy.Hashtags(tags, rec)
	}
	return tags
}

func (h Hooks) tickerSymbols(symbols []string, rec archive.Record) []string {
	if h.Taxonomy != nil {
		return h.Taxonomy.TickerSymbols(symbols, rec)
	}
	return symbols
}

func (h Hooks) permalinkURL(url string, rec archive.Record) string {
	if h.Permalink != nil {
		return h.Permalink.PermalinkURL(url, rec)
	}
	return url
}
