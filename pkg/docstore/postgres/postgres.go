// Package postgres provides a PostgreSQL implementation of [docstore.Store]
// using GORM.
//
// Documents live in one table with a JSONB fields column, so collections need
// no schema of their own. Merges use the jsonb || operator and native queries
// use jsonb containment, which compares values with their JSON types: the
// string "true" does not contain the boolean true.
package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/surrealdb/sitecontent/pkg/docstore"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// jsonFields maps a document body to a JSONB column.
type jsonFields map[string]any

func (f jsonFields) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *jsonFields) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*f = jsonFields{}
		return nil
	default:
		return fmt.Errorf("unsupported fields column type %T", src)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*f = out
	return nil
}

// document is the row layout. Seq gives GetAll its insertion order.
type document struct {
	Seq        int64      `gorm:"primaryKey;autoIncrement"`
	Collection string     `gorm:"not null;uniqueIndex:idx_documents_collection_id"`
	DocID      string     `gorm:"column:doc_id;not null;uniqueIndex:idx_documents_collection_id"`
	Fields     jsonFields `gorm:"type:jsonb;not null"`
	UpdatedAt  time.Time
}

func (document) TableName() string {
	return "documents"
}

// Store implements docstore.Store on PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ docstore.Store = (*Store)(nil)

// Open connects to PostgreSQL and creates the documents table if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Migrate creates the documents table and its index.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&document{}); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	var rows []document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("seq").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return toDocuments(rows), nil
}

func (s *Store) GetOne(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var row document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &docstore.Document{ID: row.DocID, Fields: row.Fields}, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	row := document{
		Collection: collection,
		DocID:      uuid.NewString(),
		Fields:     jsonFields(fields),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to add to %s: %w", collection, err)
	}
	return row.DocID, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	row := document{
		Collection: collection,
		DocID:      id,
		Fields:     jsonFields(fields),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := jsonFields(fields).Value()
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&document{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Updates(map[string]any{
			"fields":     gorm.Expr("fields || ?::jsonb", patch),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&document{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, filter *docstore.Equals, orderBy string) ([]docstore.Document, error) {
	tx := s.db.WithContext(ctx).Where("collection = ?", collection)
	if filter != nil {
		if !fieldName.MatchString(filter.Field) {
			return nil, fmt.Errorf("invalid filter field %q", filter.Field)
		}
		probe, err := jsonFields{filter.Field: filter.Value}.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		tx = tx.Where("fields @> ?::jsonb", probe)
	}
	if orderBy != "" {
		if !fieldName.MatchString(orderBy) {
			return nil, fmt.Errorf("invalid order field %q", orderBy)
		}
		// orderBy is a validated identifier, safe to inline.
		tx = tx.Where(fmt.Sprintf("jsonb_typeof(fields -> '%s') <> 'null'", orderBy)).
			Order(fmt.Sprintf("fields -> '%s', seq", orderBy))
	} else {
		tx = tx.Order("seq")
	}

	var rows []document
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return toDocuments(rows), nil
}

func toDocuments(rows []document) []docstore.Document {
	out := make([]docstore.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, docstore.Document{ID: r.DocID, Fields: r.Fields})
	}
	return out
}
