package importer

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/birdsite/archivist/internal/archive"
	"github.com/birdsite/archivist/internal/entities"
)

// Default destination identifiers. Both can be overridden per run.
const (
	DefaultItemType        = "tweet"
	DefaultHashtagTaxonomy = "hashtags"
)

// Metadata keys written alongside imported content.
const (
	MetaTweetID       = "_tweet_id"
	MetaRetweetCount  = "_retweet_count"
	MetaFavoriteCount = "_favorite_count"
	MetaInReplyToID   = "_in_reply_to_status_id"
	MetaTweetURL      = "_tweet_url"
	MetaIsThread      = "_is_thread"
)

// Options configures a single import run.
type Options struct {
	// ArchiveDir is the root of the export layout (tweets.js, account.js,
	// tweets_media/).
	ArchiveDir string

	// AuthorID is the content-store user who owns the imported content.
	AuthorID int64

	// ItemType and HashtagTaxonomy name the destination content type and
	// term namespace. Empty values fall back to the defaults.
	ItemType        string
	HashtagTaxonomy string

	// SkipReplies drops records that reply to content not imported in
	// this run. SkipRetweets drops retweets. SinceDate, when set, drops
	// records older than the given instant.
	SkipReplies  bool
	SkipRetweets bool
	SinceDate    *time.Time

	// UseAsideFormat marks created items with the aside display format.
	UseAsideFormat bool

	// MediaBaseURL prefixes attached media filenames in generated image
	// tags.
	MediaBaseURL string
}

// ParseSinceDate parses a user-supplied since-date value. Both a plain
// date and a full RFC 3339 timestamp are accepted.
func ParseSinceDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDateError{Value: value}
}

// Result summarizes a finished run. Processed counts every record seen;
// Skipped counts the subset dropped by deduplication or filtering.
type Result struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// Importer drives a whole archive import: file discovery, decoding,
// thread merging, filtering and content-store writes. A single Importer
// performs one run; it is not safe for concurrent use, and the design
// assumes no second importer runs against the same store at the same time
// (parallel runs could race past the duplicate check).
//
// Records are processed in ascending numeric identifier order, which is
// assumed to place every parent before its replies. Exports violating that
// assumption produce orphaned top-level items instead of comments.
type Importer struct {
	store ContentStore
	opts  Options
	hooks Hooks

	account    archive.AccountMetadata
	author     *entities.Author
	mediaIndex *archive.MediaIndex

	// idMap resolves a record identifier to the content item created for
	// it within this run. Replies merged into a thread map to the thread
	// root's item.
	idMap map[string]int64

	processed int
	skipped   int
}

// New creates an Importer writing into the given store.
func New(store ContentStore, opts Options, hooks Hooks) *Importer {
	if opts.ItemType == "" {
		opts.ItemType = DefaultItemType
	}
	if opts.HashtagTaxonomy == "" {
		opts.HashtagTaxonomy = DefaultHashtagTaxonomy
	}
	return &Importer{
		store: store,
		opts:  opts,
		hooks: hooks,
		idMap: make(map[string]int64),
	}
}

// Run executes the import. Fatal errors (missing or malformed archive
// files, unresolvable destination targets) abort immediately; content
// already written stays in the store, and a re-run is safe because every
// imported record is detected by the duplicate check.
func (imp *Importer) Run(ctx context.Context) (Result, error) {
	if err := imp.validateTargets(); err != nil {
		return Result{}, err
	}

	locator := archive.NewLocator(imp.opts.ArchiveDir)

	account, err := archive.DecodeAccountFile(locator.AccountFile())
	if err != nil {
		return Result{}, err
	}
	imp.account = account

	mediaIndex, err := archive.BuildMediaIndex(locator.MediaDir())
	if err != nil {
		return Result{}, err
	}
	imp.mediaIndex = mediaIndex

	files, err := locator.TweetFiles()
	if err != nil {
		return Result{}, err
	}
	files = imp.hooks.filterFiles(files)

	imp.hooks.runStarted()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := imp.processFile(path); err != nil {
			return Result{}, err
		}
	}

	result := Result{Processed: imp.processed, Skipped: imp.skipped}
	imp.hooks.runFinished(result)

	log.Printf("Import complete - %d records processed, %d skipped", result.Processed, result.Skipped)

	return result, nil
}

func (imp *Importer) validateTargets() error {
	if imp.opts.AuthorID == 0 {
		return &InvalidAuthorError{ID: imp.opts.AuthorID}
	}
	author, err := imp.store.GetAuthor(imp.opts.AuthorID)
	if err != nil {
		return &InvalidAuthorError{ID: imp.opts.AuthorID}
	}
	imp.author = author

	ok, err := imp.store.HasItemType(imp.opts.ItemType)
	if err != nil {
		return fmt.Errorf("check content type: %w", err)
	}
	if !ok {
		return &UnknownItemTypeError{Name: imp.opts.ItemType}
	}

	ok, err = imp.store.HasTaxonomy(imp.opts.HashtagTaxonomy)
	if err != nil {
		return fmt.Errorf("check taxonomy: %w", err)
	}
	if !ok {
		return &UnknownTaxonomyError{Name: imp.opts.HashtagTaxonomy}
	}

	return nil
}

func (imp *Importer) processFile(path string) error {
	imp.hooks.fileStarted(path)

	records, err := archive.DecodeRecords(path)
	if err != nil {
		return err
	}

	archive.SortByID(records)
	records = archive.MergeThreads(records)

	total := len(records)
	log.Printf("Starting import of %d records from %s", total, path)

	for i, rec := range records {
		rec = imp.hooks.transformRecord(rec)
		imp.processed++

		log.Printf("Processing record %d of %d", i+1, total)

		skip, err := imp.shouldSkip(rec)
		if err != nil {
			return err
		}
		if skip {
			imp.skipped++
			continue
		}

		if parentID, ok := imp.idMap[rec.InReplyToID]; rec.IsReply() && ok {
			if err := imp.createComment(rec, parentID); err != nil {
				return err
			}
			continue
		}

		if err := imp.createItem(rec); err != nil {
			return err
		}
	}

	imp.hooks.fileFinished(path)

	return nil
}

// shouldSkip applies deduplication and the configured filters, in order:
// already imported, older than since-date, retweet, unresolvable reply.
func (imp *Importer) shouldSkip(rec archive.Record) (bool, error) {
	exists, err := imp.recordAlreadyImported(rec.ID)
	if err != nil {
		return false, err
	}
	if exists {
		log.Printf("Record %s already imported, skipping", rec.ID)
		return true, nil
	}

	if imp.opts.SinceDate != nil && rec.CreatedAt.Before(*imp.opts.SinceDate) {
		log.Printf("Skipping record %s: older than %s", rec.ID, imp.opts.SinceDate.Format("2006-01-02"))
		return true, nil
	}

	if imp.opts.SkipRetweets && rec.IsRetweet() {
		log.Printf("Skipping retweet %s", rec.ID)
		return true, nil
	}

	// A reply whose parent was imported in this run always becomes a
	// comment; the reply filter only drops replies to unimported content.
	if imp.opts.SkipReplies && rec.IsReply() {
		if _, ok := imp.idMap[rec.InReplyToID]; !ok {
			log.Printf("Skipping reply %s", rec.ID)
			return true, nil
		}
	}

	return false, nil
}

// recordAlreadyImported checks the store for a prior run's trace of the
// record: an item whose slug is the record identifier, or a comment
// tagged with it. This is what makes repeated runs over the same archive
// idempotent.
func (imp *Importer) recordAlreadyImported(recordID string) (bool, error) {
	exists, err := imp.store.ItemExists(imp.opts.ItemType, recordID)
	if err != nil {
		return false, fmt.Errorf("look up item %s: %w", recordID, err)
	}
	if exists {
		return true, nil
	}

	exists, err = imp.store.CommentExistsWithMeta(imp.opts.ItemType, MetaTweetID, recordID)
	if err != nil {
		return false, fmt.Errorf("look up comment for %s: %w", recordID, err)
	}
	return exists, nil
}

func (imp *Importer) createComment(rec archive.Record, parentID int64) error {
	imp.hooks.beforeComment(rec)

	text := SubstituteURLs(rec.FullText, rec.Entities.URLs)
	text = imp.hooks.commentText(text, rec)

	commentID, err := imp.store.CreateComment(NewComment{
		ItemID:     parentID,
		AuthorID:   imp.author.ID,
		AuthorName: imp.author.DisplayName,
		Body:       text,
		CreatedAt:  rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create comment for record %s: %w", rec.ID, err)
	}

	if err := imp.store.SetCommentMeta(commentID, MetaTweetID, rec.ID); err != nil {
		return fmt.Errorf("tag comment %d: %w", commentID, err)
	}
	if err := imp.store.SetItemMeta(parentID, MetaIsThread, "1"); err != nil {
		return fmt.Errorf("mark item %d as thread: %w", parentID, err)
	}

	// Deeper replies in the same chain resolve to the same root item.
	imp.idMap[rec.ID] = parentID

	imp.hooks.afterComment(commentID, rec)

	return nil
}

func (imp *Importer) createItem(rec archive.Record) error {
	imp.hooks.beforeItem(rec)

	text := SubstituteURLs(rec.FullText, rec.Entities.URLs)
	text = imp.hooks.recordText(text, rec)

	itemID, err := imp.store.CreateItem(NewItem{
		Type:        imp.opts.ItemType,
		Slug:        rec.ID,
		AuthorID:    imp.author.ID,
		Status:      entities.ItemStatusPublished,
		Body:        text,
		PublishedAt: rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create item for record %s: %w", rec.ID, err)
	}

	imp.idMap[rec.ID] = itemID

	if imp.opts.UseAsideFormat {
		if err := imp.store.SetItemFormat(itemID, entities.ItemFormatAside); err != nil {
			return fmt.Errorf("set format on item %d: %w", itemID, err)
		}
	}

	if err := imp.setItemMeta(rec, itemID); err != nil {
		return err
	}
	if err := imp.setHashtags(rec, itemID); err != nil {
		return err
	}
	if err := imp.setTickerSymbols(rec, itemID); err != nil {
		return err
	}
	if err := imp.attachMedia(rec, itemID, text); err != nil {
		return err
	}

	imp.hooks.afterItem(itemID, rec)

	return nil
}

func (imp *Importer) setItemMeta(rec archive.Record, itemID int64) error {
	meta := map[string]string{
		MetaRetweetCount:  strconv.Itoa(rec.RetweetCount),
		MetaFavoriteCount: strconv.Itoa(rec.FavoriteCount),
		MetaTweetURL:      imp.permalink(rec),
		MetaTweetID:       rec.ID,
	}
	if rec.IsReply() {
		meta[MetaInReplyToID] = rec.InReplyToID
	}

	for key, value := range meta {
		if err := imp.store.SetItemMeta(itemID, key, value); err != nil {
			return fmt.Errorf("set %s on item %d: %w", key, itemID, err)
		}
	}
	return nil
}

// permalink synthesizes the original post URL; the export does not carry
// one.
func (imp *Importer) permalink(rec archive.Record) string {
	url := "https://twitter.com/" + imp.account.Username + "/status/" + rec.ID
	return imp.hooks.permalinkURL(url, rec)
}

func (imp *Importer) setHashtags(rec archive.Record, itemID int64) error {
	tags := imp.hooks.hashtags(rec.Entities.Hashtags, rec)
	if len(tags) == 0 {
		return nil
	}
	if err := imp.store.AddItemTerms(itemID, imp.opts.HashtagTaxonomy, tags); err != nil {
		return fmt.Errorf("set hashtags on item %d: %w", itemID, err)
	}
	return nil
}

func (imp *Importer) setTickerSymbols(rec archive.Record, itemID int64) error {
	symbols := make([]string, 0, len(rec.Entities.Symbols))
	for _, s := range rec.Entities.Symbols {
		symbols = append(symbols, "$"+s)
	}
	symbols = imp.hooks.tickerSymbols(symbols, rec)
	if len(symbols) == 0 {
		return nil
	}
	if err := imp.store.AddItemTerms(itemID, imp.opts.HashtagTaxonomy, symbols); err != nil {
		return fmt.Errorf("set ticker symbols on item %d: %w", itemID, err)
	}
	return nil
}

// attachMedia resolves the record's media entities against the local pool.
// Matched files are recorded as indexed metadata and collected into image
// tags that replace the media short-URL in the item body. A missing pool
// file is a warning, never a failure: the record stays imported and its
// short URL stays in the body when nothing matched.
func (imp *Importer) attachMedia(rec archive.Record, itemID int64, body string) error {
	if len(rec.Entities.Media) == 0 {
		return nil
	}

	var tags strings.Builder
	shortURL := ""
	matched := 0

	for i, media := range rec.Entities.Media {
		media = imp.hooks.transformMedia(media, rec)

		filename := archive.ExpectedFilename(rec.ID, media)
		if !imp.mediaIndex.Contains(rec.ID, filename) {
			log.Printf("WARNING: unable to find media (%s): %s", media.Type, filename)
			continue
		}

		log.Printf("Found media (%s): %s", media.Type, filename)

		prefix := fmt.Sprintf("_media_%d", i)
		if err := imp.store.SetItemMeta(itemID, prefix, filename); err != nil {
			return fmt.Errorf("set media meta on item %d: %w", itemID, err)
		}
		if err := imp.store.SetItemMeta(itemID, prefix+"_type", media.Type); err != nil {
			return fmt.Errorf("set media type meta on item %d: %w", itemID, err)
		}

		tag := fmt.Sprintf("<img src=%q />", imp.opts.MediaBaseURL+"/"+filename)
		tags.WriteString(imp.hooks.imageTag(tag, media, rec))

		if shortURL == "" {
			shortURL = media.ShortURL
		}
		matched++

		imp.hooks.mediaImported(media, itemID)
	}

	if matched == 0 || shortURL == "" {
		return nil
	}

	newBody := strings.ReplaceAll(body, shortURL, tags.String())
	if err := imp.store.UpdateItemBody(itemID, newBody); err != nil {
		return fmt.Errorf("update body of item %d: %w", itemID, err)
	}
	return nil
}

// SubstituteURLs replaces every shortened link in text with an anchor tag
// around its expanded URL, using the display text as the link text.
func SubstituteURLs(text string, urls []archive.URLEntity) string {
	for _, u := range urls {
		if u.ShortURL == "" {
			continue
		}
		tag := fmt.Sprintf("<a href=%q>%s</a>", u.ExpandedURL, u.DisplayURL)
		text = strings.ReplaceAll(text, u.ShortURL, tag)
	}
	return text
}
