package archive

import (
	"fmt"
	"os"
	"strings"
)

// MediaIndex maps a record identifier to the filenames in the local media
// pool that belong to it. Pool files are named
// "<record-id>-<remote-media-id>.<ext>"; the owning identifier is the
// segment before the first dash. The index is built once per run and is
// read-only afterwards.
type MediaIndex struct {
	byOwner map[string][]string
}

// BuildMediaIndex scans the media pool directory once. A missing directory
// yields an empty index: archives without media are valid.
func BuildMediaIndex(dir string) (*MediaIndex, error) {
	idx := &MediaIndex{byOwner: make(map[string][]string)}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan media pool %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		owner, _, found := strings.Cut(name, "-")
		if !found {
			continue
		}
		idx.byOwner[owner] = append(idx.byOwner[owner], name)
	}

	return idx, nil
}

// Filenames returns the pool filenames owned by the given record
// identifier, in directory order.
func (idx *MediaIndex) Filenames(recordID string) []string {
	return idx.byOwner[recordID]
}

// Contains reports whether the exact filename exists in the pool under the
// given owning identifier.
func (idx *MediaIndex) Contains(recordID, filename string) bool {
	for _, name := range idx.byOwner[recordID] {
		if name == filename {
			return true
		}
	}
	return false
}

// ExpectedFilename derives the pool filename for one media entity: the
// owning record identifier joined with the trailing path segment of the
// media's remote URL.
func ExpectedFilename(recordID string, media MediaEntity) string {
	segment := media.RemoteURL
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	return recordID + "-" + segment
}
