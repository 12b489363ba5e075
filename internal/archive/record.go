package archive

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// createdAtLayout is the timestamp format used by the archive export,
// e.g. "Tue Feb 07 21:32:03 +0000 2023".
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// platformHost appears in expanded URL entities that point back at the
// platform itself. Any such URL classifies the record as a quote retweet.
// This over-fires on plain self-links too; that matches the behaviour of
// the export format's other consumers and is kept on purpose.
const platformHost = "https://twitter.com/"

// URLEntity is a shortened link in a record's text together with the
// address it resolves to.
type URLEntity struct {
	ShortURL    string
	ExpandedURL string
	DisplayURL  string
}

// MediaEntity references a photo or video attached to a record. The media
// bytes themselves live in the local media pool, keyed by record ID and the
// trailing segment of RemoteURL.
type MediaEntity struct {
	Type      string
	ShortURL  string
	RemoteURL string
}

// Entities holds the structured parts of a record's text.
type Entities struct {
	URLs     []URLEntity
	Hashtags []string
	Symbols  []string
	Media    []MediaEntity
}

// Record is a single decoded, validated unit of the archive.
type Record struct {
	ID            string
	InReplyToID   string
	CreatedAt     time.Time
	FullText      string
	Entities      Entities
	RetweetCount  int
	FavoriteCount int
	Retweeted     bool
}

// AccountMetadata describes the account that produced the archive. Only the
// username is consumed, to synthesize permalink URLs.
type AccountMetadata struct {
	Username    string
	AccountID   string
	DisplayName string
}

// NewRecord builds a validated Record from a sanitized raw tweet.
// Identifier, text and creation timestamp are required; everything else is
// optional and defaults to its zero value.
func NewRecord(raw RawTweet) (Record, error) {
	id := raw.IDStr
	if id == "" {
		id = raw.ID
	}
	if id == "" {
		return Record{}, fmt.Errorf("record has no identifier")
	}
	if raw.FullText == "" {
		return Record{}, fmt.Errorf("record %s has no text", id)
	}
	createdAt, err := time.Parse(createdAtLayout, raw.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("record %s has invalid created_at %q: %w", id, raw.CreatedAt, err)
	}

	rec := Record{
		ID:            id,
		InReplyToID:   raw.InReplyToStatusIDStr,
		CreatedAt:     createdAt,
		FullText:      raw.FullText,
		Retweeted:     raw.Retweeted,
		RetweetCount:  parseCount(raw.RetweetCount),
		FavoriteCount: parseCount(raw.FavoriteCount),
	}
	if rec.InReplyToID == "" {
		rec.InReplyToID = raw.InReplyToStatusID
	}

	for _, u := range raw.Entities.URLs {
		rec.Entities.URLs = append(rec.Entities.URLs, URLEntity{
			ShortURL:    u.URL,
			ExpandedURL: u.ExpandedURL,
			DisplayURL:  u.DisplayURL,
		})
	}
	for _, h := range raw.Entities.Hashtags {
		rec.Entities.Hashtags = append(rec.Entities.Hashtags, h.Text)
	}
	for _, s := range raw.Entities.Symbols {
		rec.Entities.Symbols = append(rec.Entities.Symbols, s.Text)
	}
	for _, m := range raw.Entities.Media {
		rec.Entities.Media = append(rec.Entities.Media, MediaEntity{
			Type:      m.Type,
			ShortURL:  m.URL,
			RemoteURL: m.MediaURL,
		})
	}

	return rec, nil
}

// counts arrive as JSON strings in the export
func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// IsReply reports whether the record replies to another record.
func (r Record) IsReply() bool {
	return r.InReplyToID != ""
}

// IsRetweet reports whether the record is a retweet: an "RT" text prefix,
// the explicit retweeted flag, or a quote-retweet URL each qualify.
func (r Record) IsRetweet() bool {
	if strings.HasPrefix(r.FullText, "RT") {
		return true
	}
	if r.Retweeted {
		return true
	}
	return r.isQuoteRetweet()
}

func (r Record) isQuoteRetweet() bool {
	for _, u := range r.Entities.URLs {
		if strings.Contains(u.ExpandedURL, platformHost) {
			return true
		}
	}
	return false
}

// SortByID orders records ascending by identifier using numeric comparison.
// Identifiers are decimal strings that may exceed 64-bit precision, so they
// are compared by length first and lexically within equal lengths.
func SortByID(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return CompareIDs(records[i].ID, records[j].ID) < 0
	})
}

// CompareIDs compares two numeric-string identifiers, returning -1, 0 or 1.
func CompareIDs(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
