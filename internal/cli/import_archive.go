package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/birdsite/archivist/internal/config"
	"github.com/birdsite/archivist/internal/contentstore"
	"github.com/birdsite/archivist/internal/importer"
)

// ImportArchiveCommand imports an unpacked archive export into the
// content store.
type ImportArchiveCommand struct {
	AuthorID        int64
	ArchiveDir      string
	DatabasePath    string
	MediaBaseURL    string
	ItemType        string
	HashtagTaxonomy string
	SkipReplies     bool
	SkipRetweets    bool
	SinceDate       string
	UseAsideFormat  bool
}

func NewImportArchiveCommand() *ImportArchiveCommand {
	return &ImportArchiveCommand{}
}

func (cmd *ImportArchiveCommand) ParseFlags(args []string) error {
	// The author ID is positional and comes first:
	//   archivist import 1 -skip-replies
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid author ID %q", args[0])
		}
		cmd.AuthorID = id
		args = args[1:]
	}

	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.ArchiveDir, "archive-dir", config.DefaultArchiveDir, "Root directory of the unpacked archive export")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the content store database")
	fs.StringVar(&cmd.MediaBaseURL, "media-base-url", config.DefaultMediaBaseURL, "URL prefix for attached media files in generated image tags")
	fs.StringVar(&cmd.ItemType, "post-type", importer.DefaultItemType, "Destination content type for imported records")
	fs.StringVar(&cmd.HashtagTaxonomy, "hashtag-taxonomy", importer.DefaultHashtagTaxonomy, "Taxonomy for imported hashtags and ticker symbols")
	fs.BoolVar(&cmd.SkipReplies, "skip-replies", false, "Skip records that reply to content not imported in this run")
	fs.BoolVar(&cmd.SkipRetweets, "skip-retweets", false, "Skip retweets and quote retweets")
	fs.StringVar(&cmd.SinceDate, "since-date", "", "Skip records older than this date (YYYY-MM-DD)")
	fs.BoolVar(&cmd.UseAsideFormat, "use-aside-format", false, "Mark created items with the aside display format")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import <author-id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import an unpacked archive export into the content store.\n\n")
		fmt.Fprintf(os.Stderr, "The archive directory must contain account.js, tweets.js (plus any\n")
		fmt.Fprintf(os.Stderr, "tweets-part<N>.js continuations) and a tweets_media/ directory.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import everything as author 1:\n")
		fmt.Fprintf(os.Stderr, "  %s import 1 -archive-dir ./twitter-archive\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Skip replies and retweets, import only recent records:\n")
		fmt.Fprintf(os.Stderr, "  %s import 1 -skip-replies -skip-retweets -since-date 2020-01-01\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.AuthorID == 0 {
		return fmt.Errorf("required author ID argument not provided")
	}

	return nil
}

func (cmd *ImportArchiveCommand) Run() error {
	fmt.Println("Archive Import")
	fmt.Println("==============")
	fmt.Printf("Archive: %s\n", cmd.ArchiveDir)
	fmt.Printf("Database: %s\n", cmd.DatabasePath)

	opts := importer.Options{
		ArchiveDir:      cmd.ArchiveDir,
		MediaBaseURL:    cmd.MediaBaseURL,
		AuthorID:        cmd.AuthorID,
		ItemType:        cmd.ItemType,
		HashtagTaxonomy: cmd.HashtagTaxonomy,
		SkipReplies:     cmd.SkipReplies,
		SkipRetweets:    cmd.SkipRetweets,
		UseAsideFormat:  cmd.UseAsideFormat,
	}

	if cmd.SinceDate != "" {
		since, err := importer.ParseSinceDate(cmd.SinceDate)
		if err != nil {
			return fmt.Errorf("invalid -since-date value: %w", err)
		}
		opts.SinceDate = &since
	}

	store, err := contentstore.NewStore(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open content store: %w", err)
	}
	defer store.Close()

	imp := importer.New(store, opts, importer.Hooks{})
	result, err := imp.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("\nImport complete: %d records processed, %d skipped\n", result.Processed, result.Skipped)

	return nil
}
