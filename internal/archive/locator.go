package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	primaryTweetFile = "tweets.js"
	tweetPartPattern = "tweets-part*.js"
	accountFile      = "account.js"
	mediaDirName     = "tweets_media"
)

// Locator discovers the input files of an archive laid out under a single
// root directory.
type Locator struct {
	root string
}

// NewLocator creates a Locator for the given archive root directory.
func NewLocator(root string) *Locator {
	return &Locator{root: root}
}

// TweetFiles returns the primary tweets file followed by any numbered
// continuation parts. The order of continuation files carries no meaning;
// records are re-sorted after decoding. Returns MissingArchiveError when
// the primary file is absent.
func (l *Locator) TweetFiles() ([]string, error) {
	primary := filepath.Join(l.root, primaryTweetFile)
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		return nil, &MissingArchiveError{Path: primary}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", primary, err)
	}

	parts, err := filepath.Glob(filepath.Join(l.root, tweetPartPattern))
	if err != nil {
		return nil, fmt.Errorf("glob archive parts: %w", err)
	}
	sort.Strings(parts)

	return append([]string{primary}, parts...), nil
}

// AccountFile returns the path of the account metadata file.
func (l *Locator) AccountFile() string {
	return filepath.Join(l.root, accountFile)
}

// MediaDir returns the path of the local media pool directory.
func (l *Locator) MediaDir() string {
	return filepath.Join(l.root, mediaDirName)
}
