package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is the row of the documents table.
type Document struct {
	Collection string         `gorm:"primaryKey;size:64"`
	ID         string         `gorm:"primaryKey;size:64"`
	Body       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Document) TableName() string { return "documents" }

type GormStore struct {
	db  *gorm.DB
	ids IDGenerator
}

func NewGormStore(conn *gorm.DB, ids IDGenerator) *GormStore {
	return &GormStore{db: conn, ids: ids}
}

func (s *GormStore) Create(ctx context.Context, collection string, doc any) (string, error) {
	body, err := encodeObject(doc)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := s.ids.NextID()
		raw, err := json.Marshal(body.withID(id))
		if err != nil {
			return "", err
		}

		err = s.db.WithContext(ctx).Create(&Document{
			Collection: collection,
			ID:         id,
			Body:       datatypes.JSON(raw),
			CreatedAt:  now,
			UpdatedAt:  now,
		}).Error
		if db.IsDuplicateKeyErr(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
	return "", ErrIDExhausted
}

func (s *GormStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	changes, err := encodePartial(partial)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("collection = ? AND id = ?", collection, id)
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var doc Document
		if err := q.Take(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
			}
			return err
		}

		var body fields
		if err := json.Unmarshal(doc.Body, &body); err != nil || body == nil {
			body = fields{}
		}
		raw, err := json.Marshal(body.merge(changes))
		if err != nil {
			return err
		}

		return tx.Model(&Document{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{
				"body":       datatypes.JSON(raw),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (s *GormStore) Get(ctx context.Context, collection, id string, out any) (bool, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(doc.Body, out); err != nil {
		return true, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}

var _ Store = (*GormStore)(nil)
