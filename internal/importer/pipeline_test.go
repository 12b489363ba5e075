package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdsite/archivist/internal/archive"
	"github.com/birdsite/archivist/internal/entities"
)

// fakeStore is an in-memory ContentStore for pipeline tests.
type fakeStore struct {
	authors    map[int64]*entities.Author
	itemTypes  map[string]bool
	taxonomies map[string]bool

	items    []*fakeItem
	comments []*fakeComment
	nextID   int64
}

type fakeItem struct {
	id          int64
	itemType    string
	slug        string
	authorID    int64
	status      entities.ItemStatus
	format      string
	body        string
	publishedAt time.Time
	meta        map[string]string
	terms       map[string][]string
}

type fakeComment struct {
	id         int64
	itemID     int64
	authorID   int64
	authorName string
	body       string
	meta       map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		authors: map[int64]*entities.Author{
			1: {ID: 1, Username: "admin", DisplayName: "Administrator"},
		},
		itemTypes:  map[string]bool{DefaultItemType: true},
		taxonomies: map[string]bool{DefaultHashtagTaxonomy: true},
	}
}

func (s *fakeStore) GetAuthor(id int64) (*entities.Author, error) {
	author, ok := s.authors[id]
	if !ok {
		return nil, fmt.Errorf("author %d not found", id)
	}
	return author, nil
}

func (s *fakeStore) HasItemType(name string) (bool, error) { return s.itemTypes[name], nil }
func (s *fakeStore) HasTaxonomy(name string) (bool, error) { return s.taxonomies[name], nil }

func (s *fakeStore) ItemExists(itemType, slug string) (bool, error) {
	for _, item := range s.items {
		if item.itemType == itemType && item.slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CommentExistsWithMeta(itemType, key, value string) (bool, error) {
	for _, comment := range s.comments {
		if comment.meta[key] == value {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateItem(item NewItem) (int64, error) {
	s.nextID++
	s.items = append(s.items, &fakeItem{
		id:          s.nextID,
		itemType:    item.Type,
		slug:        item.Slug,
		authorID:    item.AuthorID,
		status:      item.Status,
		body:        item.Body,
		publishedAt: item.PublishedAt,
		meta:        make(map[string]string),
		terms:       make(map[string][]string),
	})
	return s.nextID, nil
}

func (s *fakeStore) CreateComment(comment NewComment) (int64, error) {
	s.nextID++
	s.comments = append(s.comments, &fakeComment{
		id:         s.nextID,
		itemID:     comment.ItemID,
		authorID:   comment.AuthorID,
		authorName: comment.AuthorName,
		body:       comment.Body,
		meta:       make(map[string]string),
	})
	return s.nextID, nil
}

func (s *fakeStore) SetItemMeta(itemID int64, key, value string) error {
	item := s.itemByID(itemID)
	if item == nil {
		return fmt.Errorf("item %d not found", itemID)
	}
	item.meta[key] = value
	return nil
}

func (s *fakeStore) SetCommentMeta(commentID int64, key, value string) error {
	for _, comment := range s.comments {
		if comment.id == commentID {
			comment.meta[key] = value
			return nil
		}
	}
	return fmt.Errorf("comment %d not found", commentID)
}

func (s *fakeStore) AddItemTerms(itemID int64, taxonomy string, terms []string) error {
	item := s.itemByID(itemID)
	if item == nil {
		return fmt.Errorf("item %d not found", itemID)
	}
	item.terms[taxonomy] = append(item.terms[taxonomy], terms...)
	return nil
}

func (s *fakeStore) SetItemFormat(itemID int64, format string) error {
	item := s.itemByID(itemID)
	if item == nil {
		return fmt.Errorf("item %d not found", itemID)
	}
	item.format = format
	return nil
}

func (s *fakeStore) UpdateItemBody(itemID int64, body string) error {
	item := s.itemByID(itemID)
	if item == nil {
		return fmt.Errorf("item %d not found", itemID)
	}
	item.body = body
	return nil
}

func (s *fakeStore) itemByID(id int64) *fakeItem {
	for _, item := range s.items {
		if item.id == id {
			return item
		}
	}
	return nil
}

func (s *fakeStore) itemBySlug(slug string) *fakeItem {
	for _, item := range s.items {
		if item.slug == slug {
			return item
		}
	}
	return nil
}

var _ ContentStore = (*fakeStore)(nil)

// Archive fixture helpers.

const testDateLayout = "Mon Jan 02 15:04:05 -0700 2006"

func tweet(id, text string) map[string]any {
	return map[string]any{
		"id_str":         id,
		"full_text":      text,
		"created_at":     time.Date(2023, 2, 7, 12, 0, 0, 0, time.UTC).Format(testDateLayout),
		"retweet_count":  "0",
		"favorite_count": "0",
	}
}

func replyTo(t map[string]any, parentID string) map[string]any {
	t["in_reply_to_status_id_str"] = parentID
	return t
}

func createdAt(t map[string]any, instant time.Time) map[string]any {
	t["created_at"] = instant.Format(testDateLayout)
	return t
}

func writeArchive(t *testing.T, tweets ...map[string]any) string {
	t.Helper()
	dir := t.TempDir()

	account := `window.YTD.account.part0 = [ { "account": { "username": "someuser" } } ]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "account.js"), []byte(account), 0o644))

	envelopes := make([]map[string]any, 0, len(tweets))
	for _, tw := range tweets {
		envelopes = append(envelopes, map[string]any{"tweet": tw})
	}
	data, err := json.Marshal(envelopes)
	require.NoError(t, err)

	content := append([]byte("window.YTD.tweets.part0 = "), data...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tweets.js"), content, 0o644))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "tweets_media"), 0o755))

	return dir
}

func runImport(t *testing.T, store ContentStore, opts Options) Result {
	t.Helper()
	result, err := New(store, opts, Hooks{}).Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestImporter_CreatesItemWithMetadataAndTerms(t *testing.T) {
	tw := tweet("1001", "reading #golang and $ACME news https://t.co/abc")
	tw["entities"] = map[string]any{
		"urls": []map[string]any{
			{"url": "https://t.co/abc", "expanded_url": "https://example.com/news", "display_url": "example.com/news"},
		},
		"hashtags": []map[string]any{{"text": "golang"}},
		"symbols":  []map[string]any{{"text": "ACME"}},
	}
	dir := writeArchive(t, tw)

	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1})

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, store.items, 1)

	item := store.items[0]
	assert.Equal(t, "1001", item.slug)
	assert.Equal(t, DefaultItemType, item.itemType)
	assert.Equal(t, entities.ItemStatusPublished, item.status)
	assert.Equal(t, `reading #golang and $ACME news <a href="https://example.com/news">example.com/news</a>`, item.body)

	assert.Equal(t, "1001", item.meta[MetaTweetID])
	assert.Equal(t, "0", item.meta[MetaRetweetCount])
	assert.Equal(t, "0", item.meta[MetaFavoriteCount])
	assert.Equal(t, "https://twitter.com/someuser/status/1001", item.meta[MetaTweetURL])

	assert.Equal(t, []string{"golang", "$ACME"}, item.terms[DefaultHashtagTaxonomy])
}

func TestImporter_Idempotence(t *testing.T) {
	dir := writeArchive(t,
		tweet("1001", "first"),
		tweet("1002", "second"),
	)

	store := newFakeStore()
	first := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1})
	require.Equal(t, 2, first.Processed)
	require.Equal(t, 0, first.Skipped)
	require.Len(t, store.items, 2)

	second := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1})
	assert.Equal(t, 2, second.Processed)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, store.items, 2, "second run must not create items")
	assert.Len(t, store.comments, 0, "second run must not create comments")
}

func TestImporter_ReplyRouting(t *testing.T) {
	dir := writeArchive(t,
		tweet("1001", "the start"),
		tweet("1002", "something unrelated"),
		replyTo(tweet("1003", "following up on the start"), "1001"),
	)

	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1})

	assert.Equal(t, 3, result.Processed)
	require.Len(t, store.items, 2)
	require.Len(t, store.comments, 1)

	parent := store.itemBySlug("1001")
	require.NotNil(t, parent)

	comment := store.comments[0]
	assert.Equal(t, parent.id, comment.itemID)
	assert.Equal(t, "1003", comment.meta[MetaTweetID])
	assert.Equal(t, "Administrator", comment.authorName)
	assert.Equal(t, "1", parent.meta[MetaIsThread])
}

func TestImporter_ReplyRoutingIgnoresSkipRepliesFlag(t *testing.T) {
	// A reply whose parent was imported in this run becomes a comment
	// even with the reply filter on.
	dir := writeArchive(t,
		tweet("1001", "the start"),
		tweet("1002", "noise"),
		replyTo(tweet("1003", "still part of the conversation"), "1001"),
	)

	store := newFakeStore()
	runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1, SkipReplies: true})

	assert.Len(t, store.comments, 1)
	assert.Nil(t, store.itemBySlug("1003"))
}

func TestImporter_SkipRepliesDropsUnresolvedReplies(t *testing.T) {
	dir := writeArchive(t,
		tweet("1001", "standalone"),
		tweet("1002", "noise"),
		replyTo(tweet("1003", "@other sure, agreed"), "555"),
	)

	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1, SkipReplies: true})

	assert.Equal(t, 1, result.Skipped)
	assert.Nil(t, store.itemBySlug("1003"))
}

func TestImporter_ReplyToUnimportedParentBecomesItem(t *testing.T) {
	dir := writeArchive(t,
		tweet("1001", "standalone"),
		tweet("1002", "noise"),
		replyTo(tweet("1003", "@other sure, agreed"), "555"),
	)

	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1})

	assert.Equal(t, 0, result.Skipped)
	item := store.itemBySlug("1003")
	require.NotNil(t, item)
	assert.Equal(t, "555", item.meta[MetaInReplyToID])
}

func TestImporter_SinceDateFilter(t *testing.T) {
	dir := writeArchive(t,
		createdAt(tweet("1001", "old news"), time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)),
		tweet("1002", "recent"),
	)

	since := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1, SinceDate: &since})

	assert.Equal(t, 1, result.Skipped)
	assert.Nil(t, store.itemBySlug("1001"))
	assert.NotNil(t, store.itemBySlug("1002"))
}

func TestImporter_SkipRetweets(t *testing.T) {
	quoted := tweet("1003", "look at this https://t.co/q")
	quoted["entities"] = map[string]any{
		"urls": []map[string]any{
			{"url": "https://t.co/q", "expanded_url": "https://twitter.com/other/status/42", "display_url": "twitter.com/other"},
		},
	}
	retweeted := tweet("1002", "agreed completely")
	retweeted["retweeted"] = true

	dir := writeArchive(t,
		tweet("1001", "RT @someone: their words"),
		retweeted,
		quoted,
		tweet("1004", "my own words"),
	)

	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1, SkipRetweets: true})

	assert.Equal(t, 3, result.Skipped)
	require.Len(t, store.items, 1)
	assert.Equal(t, "1004", store.items[0].slug)
}

func TestImporter_MissingMediaTolerance(t *testing.T) {
	tw := tweet("1001", "photos! https://t.co/m")
	tw["entities"] = map[string]any{
		"media": []map[string]any{
			{"type": "photo", "url": "https://t.co/m", "media_url": "http://pbs.twimg.com/media/First.jpg"},
			{"type": "photo", "url": "https://t.co/m", "media_url": "http://pbs.twimg.com/media/Second.jpg"},
		},
	}
	dir := writeArchive(t, tw)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tweets_media", "1001-First.jpg"), []byte("img"), 0o644))

	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1, MediaBaseURL: "/media"})

	assert.Equal(t, 0, result.Skipped, "missing media must not skip the record")
	require.Len(t, store.items, 1)

	item := store.items[0]
	assert.Equal(t, "1001-First.jpg", item.meta["_media_0"])
	assert.Equal(t, "photo", item.meta["_media_0_type"])
	assert.NotContains(t, item.meta, "_media_1")
	assert.Equal(t, `photos! <img src="/media/1001-First.jpg" />`, item.body)
}

func TestImporter_MediaNotFoundLeavesBodyUntouched(t *testing.T) {
	tw := tweet("1001", "photos! https://t.co/m")
	tw["entities"] = map[string]any{
		"media": []map[string]any{
			{"type": "photo", "url": "https://t.co/m", "media_url": "http://pbs.twimg.com/media/First.jpg"},
		},
	}
	dir := writeArchive(t, tw)

	store := newFakeStore()
	runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1})

	require.Len(t, store.items, 1)
	assert.Equal(t, "photos! https://t.co/m", store.items[0].body)
}

func TestImporter_ThreadMergeEndToEnd(t *testing.T) {
	dir := writeArchive(t,
		tweet("1001", "part one (1/2)"),
		replyTo(tweet("1002", "part two (2/2)"), "1001"),
	)

	store := newFakeStore()
	result := runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1})

	assert.Equal(t, 1, result.Processed)
	require.Len(t, store.items, 1)
	assert.Equal(t, "part one part two", store.items[0].body)
	assert.Equal(t, "1001", store.items[0].slug)
	assert.Len(t, store.comments, 0)
}

func TestImporter_UseAsideFormat(t *testing.T) {
	dir := writeArchive(t, tweet("1001", "short thought"))

	store := newFakeStore()
	runImport(t, store, Options{ArchiveDir: dir, AuthorID: 1, UseAsideFormat: true})

	require.Len(t, store.items, 1)
	assert.Equal(t, entities.ItemFormatAside, store.items[0].format)
}

func TestImporter_InvalidAuthor(t *testing.T) {
	dir := writeArchive(t, tweet("1001", "text"))

	store := newFakeStore()
	_, err := New(store, Options{ArchiveDir: dir, AuthorID: 99}, Hooks{}).Run(context.Background())

	var invalid *InvalidAuthorError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, int64(99), invalid.ID)
}

func TestImporter_ZeroAuthorIsInvalid(t *testing.T) {
	store := newFakeStore()
	_, err := New(store, Options{ArchiveDir: t.TempDir()}, Hooks{}).Run(context.Background())

	var invalid *InvalidAuthorError
	require.ErrorAs(t, err, &invalid)
}

func TestImporter_UnknownItemType(t *testing.T) {
	store := newFakeStore()
	_, err := New(store, Options{ArchiveDir: t.TempDir(), AuthorID: 1, ItemType: "missing"}, Hooks{}).Run(context.Background())

	var unknown *UnknownItemTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)
}

func TestImporter_UnknownTaxonomy(t *testing.T) {
	store := newFakeStore()
	_, err := New(store, Options{ArchiveDir: t.TempDir(), AuthorID: 1, HashtagTaxonomy: "missing"}, Hooks{}).Run(context.Background())

	var unknown *UnknownTaxonomyError
	require.ErrorAs(t, err, &unknown)
}

func TestImporter_MissingArchiveIsFatal(t *testing.T) {
	dir := t.TempDir()
	account := `window.YTD.account.part0 = [ { "account": { "username": "someuser" } } ]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "account.js"), []byte(account), 0o644))

	store := newFakeStore()
	_, err := New(store, Options{ArchiveDir: dir, AuthorID: 1}, Hooks{}).Run(context.Background())

	var missing *archive.MissingArchiveError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, store.items, 0)
}

func TestSubstituteURLs(t *testing.T) {
	urls := []archive.URLEntity{
		{ShortURL: "https://t.co/abc", ExpandedURL: "https://example.com/page", DisplayURL: "example.com/page"},
		{ShortURL: "", ExpandedURL: "https://example.com/other", DisplayURL: "ignored"},
	}

	got := SubstituteURLs("check https://t.co/abc out", urls)
	assert.Equal(t, `check <a href="https://example.com/page">example.com/page</a> out`, got)

	// Every occurrence of a short URL is substituted.
	got = SubstituteURLs("https://t.co/abc twice https://t.co/abc", urls)
	assert.Equal(t,
		`<a href="https://example.com/page">example.com/page</a> twice <a href="https://example.com/page">example.com/page</a>`,
		got)
}
