package entities

import "time"

// ItemStatus is the publication state of a content item.
type ItemStatus string

const (
	ItemStatusPublished ItemStatus = "publish"
	ItemStatusDraft     ItemStatus = "draft"
)

// ItemFormatAside marks an item for compact, title-less display.
const ItemFormatAside = "aside"

// Author is a user of the content store who can own items and comments.
type Author struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:100" json:"username"`
	DisplayName string    `gorm:"size:200" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Author) TableName() string {
	return "authors"
}

// Item is a top-level content item. Imported records use their source
// identifier as the slug, which is what makes repeated imports detectable.
type Item struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Type        string     `gorm:"index:idx_items_type_slug;size:50" json:"type"`
	Slug        string     `gorm:"index:idx_items_type_slug;size:100" json:"slug"`
	AuthorID    int64      `gorm:"index" json:"author_id"`
	Status      ItemStatus `gorm:"size:20" json:"status"`
	Format      string     `gorm:"size:20" json:"format,omitempty"`
	Body        string     `gorm:"type:text" json:"body"`
	PublishedAt time.Time  `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`

	Meta  []ItemMeta `gorm:"foreignKey:ItemID" json:"meta,omitempty"`
	Terms []Term     `gorm:"many2many:item_terms" json:"terms,omitempty"`
}

func (Item) TableName() string {
	return "items"
}

// Comment is attached to an item. Reply records imported from an archive
// become comments on the item created for their thread root.
type Comment struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	ItemID     int64     `gorm:"index" json:"item_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `gorm:"size:200" json:"author_name"`
	Body       string    `gorm:"type:text" json:"body"`
	CreatedAt  time.Time `json:"created_at"`

	Meta []CommentMeta `gorm:"foreignKey:CommentID" json:"meta,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

// ItemMeta is one key/value metadata row attached to an item.
type ItemMeta struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	ItemID int64  `gorm:"index:idx_item_meta_key" json:"item_id"`
	Key    string `gorm:"index:idx_item_meta_key;column:meta_key;size:100" json:"key"`
	Value  string `gorm:"column:meta_value;type:text" json:"value"`
}

func (ItemMeta) TableName() string {
	return "item_meta"
}

// CommentMeta is one key/value metadata row attached to a comment.
type CommentMeta struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	CommentID int64  `gorm:"index:idx_comment_meta_key" json:"comment_id"`
	Key       string `gorm:"index:idx_comment_meta_key;column:meta_key;size:100" json:"key"`
	Value     string `gorm:"column:meta_value;type:text" json:"value"`
}

func (CommentMeta) TableName() string {
	return "comment_meta"
}

// Term is a taxonomy entry (a hashtag or ticker symbol for imported
// records). Terms are unique per taxonomy.
type Term struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Taxonomy string `gorm:"uniqueIndex:idx_terms_taxonomy_name;size:50" json:"taxonomy"`
	Name     string `gorm:"uniqueIndex:idx_terms_taxonomy_name;size:200" json:"name"`
}

func (Term) TableName() string {
	return "terms"
}

// ItemType registers a destination content type items can be created as.
type ItemType struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50" json:"name"`
}

func (ItemType) TableName() string {
	return "item_types"
}

// Taxonomy registers a term namespace.
type Taxonomy struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50" json:"name"`
}

func (Taxonomy) TableName() string {
	return "taxonomies"
}
