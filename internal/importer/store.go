package importer

import (
	"time"

	"github.com/birdsite/archivist/internal/entities"
)

// NewItem describes a content item to be created.
type NewItem struct {
	Type        string
	Slug        string
	AuthorID    int64
	Status      entities.ItemStatus
	Body        string
	PublishedAt time.Time
}

// NewComment describes a comment to be created under an existing item.
type NewComment struct {
	ItemID     int64
	AuthorID   int64
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

// ContentStore is the destination the pipeline writes into. The importer
// only depends on this interface; internal/contentstore provides the
// SQLite-backed implementation.
type ContentStore interface {
	// GetAuthor resolves an author by ID, or returns an error when no
	// such author exists.
	GetAuthor(id int64) (*entities.Author, error)

	// HasItemType and HasTaxonomy report whether the destination
	// recognizes the given content type / term namespace.
	HasItemType(name string) (bool, error)
	HasTaxonomy(name string) (bool, error)

	// ItemExists reports whether a top-level item of the given type
	// carries the given slug.
	ItemExists(itemType, slug string) (bool, error)

	// CommentExistsWithMeta reports whether any comment under an item of
	// the given type carries the metadata pair.
	CommentExistsWithMeta(itemType, key, value string) (bool, error)

	CreateItem(item NewItem) (int64, error)
	CreateComment(comment NewComment) (int64, error)

	SetItemMeta(itemID int64, key, value string) error
	SetCommentMeta(commentID int64, key, value string) error

	// AddItemTerms appends taxonomy terms to an item, creating missing
	// terms in the taxonomy as needed.
	AddItemTerms(itemID int64, taxonomy string, terms []string) error

	SetItemFormat(itemID int64, format string) error
	UpdateItemBody(itemID int64, body string) error
}
