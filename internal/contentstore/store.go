// Package contentstore provides the SQLite-backed content store the
// import pipeline writes into.
//
// The importer only depends on the importer.ContentStore interface; this
// package is the default implementation.
package contentstore

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/birdsite/archivist/internal/entities"
	"github.com/birdsite/archivist/internal/importer"
)

var defaultItemTypes = []entities.ItemType{
	{Name: importer.DefaultItemType},
	{Name: "post"},
}

var defaultTaxonomies = []entities.Taxonomy{
	{Name: importer.DefaultHashtagTaxonomy},
	{Name: "tags"},
}

// DefaultAuthorID is the author seeded into a fresh store.
const DefaultAuthorID int64 = 1

// Store is a GORM-backed content store.
type Store struct {
	DB *gorm.DB
}

// NewStore opens (or creates) the store database at the given path,
// migrates the schema and seeds the default content types, taxonomies and
// author.
func NewStore(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := newStore(db)
	if err != nil {
		return nil, err
	}

	log.Printf("Content store initialized at %s", dbPath)

	return store, nil
}

func newStore(db *gorm.DB) (*Store, error) {
	err := db.AutoMigrate(
		&entities.Author{},
		&entities.ItemType{},
		&entities.Taxonomy{},
		&entities.Item{},
		&entities.ItemMeta{},
		&entities.Comment{},
		&entities.CommentMeta{},
		&entities.Term{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store := &Store{DB: db}

	if err := store.seedDefaults(); err != nil {
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}

	return store, nil
}

func (s *Store) seedDefaults() error {
	for _, itemType := range defaultItemTypes {
		var existing entities.ItemType
		result := s.DB.Where("name = ?", itemType.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := s.DB.Create(&itemType).Error; err != nil {
				return err
			}
		} else if result.Error != nil {
			return result.Error
		}
	}

	for _, taxonomy := range defaultTaxonomies {
		var existing entities.Taxonomy
		result := s.DB.Where("name = ?", taxonomy.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := s.DB.Create(&taxonomy).Error; err != nil {
				return err
			}
		} else if result.Error != nil {
			return result.Error
		}
	}

	var count int64
	if err := s.DB.Model(&entities.Author{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		author := entities.Author{
			ID:          DefaultAuthorID,
			Username:    "admin",
			DisplayName: "Administrator",
		}
		if err := s.DB.Create(&author).Error; err != nil {
			return err
		}
	}

	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetAuthor resolves an author by ID.
func (s *Store) GetAuthor(id int64) (*entities.Author, error) {
	var author entities.Author
	if err := s.DB.First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// HasItemType reports whether the content type is registered.
func (s *Store) HasItemType(name string) (bool, error) {
	var count int64
	err := s.DB.Model(&entities.ItemType{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// HasTaxonomy reports whether the taxonomy is registered.
func (s *Store) HasTaxonomy(name string) (bool, error) {
	var count int64
	err := s.DB.Model(&entities.Taxonomy{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// ItemExists reports whether an item of the given type carries the slug.
func (s *Store) ItemExists(itemType, slug string) (bool, error) {
	var count int64
	err := s.DB.Model(&entities.Item{}).
		Where("type = ? AND slug = ?", itemType, slug).
		Count(&count).Error
	return count > 0, err
}

// CommentExistsWithMeta reports whether a comment under an item of the
// given type carries the metadata pair.
func (s *Store) CommentExistsWithMeta(itemType, key, value string) (bool, error) {
	var count int64
	err := s.DB.Model(&entities.CommentMeta{}).
		Joins("JOIN comments ON comments.id = comment_meta.comment_id").
		Joins("JOIN items ON items.id = comments.item_id").
		Where("items.type = ? AND comment_meta.meta_key = ? AND comment_meta.meta_value = ?", itemType, key, value).
		Count(&count).Error
	return count > 0, err
}

// CreateItem creates a content item and returns its ID.
func (s *Store) CreateItem(item importer.NewItem) (int64, error) {
	row := entities.Item{
		Type:        item.Type,
		Slug:        item.Slug,
		AuthorID:    item.AuthorID,
		Status:      item.Status,
		Body:        item.Body,
		PublishedAt: item.PublishedAt,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// CreateComment creates a comment and returns its ID.
func (s *Store) CreateComment(comment importer.NewComment) (int64, error) {
	row := entities.Comment{
		ItemID:     comment.ItemID,
		AuthorID:   comment.AuthorID,
		AuthorName: comment.AuthorName,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

// SetItemMeta stores a key/value pair on an item, replacing a previous
// value for the same key.
func (s *Store) SetItemMeta(itemID int64, key, value string) error {
	var existing entities.ItemMeta
	result := s.DB.Where("item_id = ? AND meta_key = ?", itemID, key).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		return s.DB.Create(&entities.ItemMeta{ItemID: itemID, Key: key, Value: value}).Error
	}
	if result.Error != nil {
		return result.Error
	}
	existing.Value = value
	return s.DB.Save(&existing).Error
}

// SetCommentMeta stores a key/value pair on a comment.
func (s *Store) SetCommentMeta(commentID int64, key, value string) error {
	var existing entities.CommentMeta
	result := s.DB.Where("comment_id = ? AND meta_key = ?", commentID, key).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		return s.DB.Create(&entities.CommentMeta{CommentID: commentID, Key: key, Value: value}).Error
	}
	if result.Error != nil {
		return result.Error
	}
	existing.Value = value
	return s.DB.Save(&existing).Error
}

// AddItemTerms appends taxonomy terms to an item, creating missing terms.
func (s *Store) AddItemTerms(itemID int64, taxonomy string, terms []string) error {
	var item entities.Item
	if err := s.DB.First(&item, itemID).Error; err != nil {
		return err
	}

	for _, name := range terms {
		term, err := s.getOrCreateTerm(taxonomy, name)
		if err != nil {
			return err
		}
		if err := s.DB.Model(&item).Association("Terms").Append(term); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) getOrCreateTerm(taxonomy, name string) (*entities.Term, error) {
	var term entities.Term
	err := s.DB.Where("taxonomy = ? AND name = ?", taxonomy, name).First(&term).Error
	if err == gorm.ErrRecordNotFound {
		term = entities.Term{Taxonomy: taxonomy, Name: name}
		if err := s.DB.Create(&term).Error; err != nil {
			return nil, err
		}
		return &term, nil
	}
	if err != nil {
		return nil, err
	}
	return &term, nil
}

// SetItemFormat sets the display format of an item.
func (s *Store) SetItemFormat(itemID int64, format string) error {
	return s.DB.Model(&entities.Item{}).Where("id = ?", itemID).Update("format", format).Error
}

// UpdateItemBody replaces the body of an item.
func (s *Store) UpdateItemBody(itemID int64, body string) error {
	return s.DB.Model(&entities.Item{}).Where("id = ?", itemID).Update("body", body).Error
}

// Compile-time check that the store satisfies the importer's collaborator
// interface.
var _ importer.ContentStore = (*Store)(nil)
