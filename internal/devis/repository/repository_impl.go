package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/pkg/docstore"
)

const fieldUpdatedAt = "updatedAt"

type repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) devisdomain.Repository {
	return &repository{store: store}
}

func (r *repository) Create(ctx context.Context, cfg *devisdomain.QuoteConfiguration) (string, error) {
	if cfg == nil {
		return "", devisdomain.ErrInvalidFieldValue
	}
	return r.store.Create(ctx, devisdomain.CollectionName, cfg)
}

func (r *repository) UpdateField(ctx context.Context, id string, field devisdomain.Field, value any, updatedAt time.Time) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return devisdomain.ErrNotFound
	}

	err := r.store.Update(ctx, devisdomain.CollectionName, id, map[string]any{
		string(field):  value,
		fieldUpdatedAt: updatedAt,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", devisdomain.ErrNotFound, id)
	}
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*devisdomain.StoredConfiguration, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	var stored devisdomain.StoredConfiguration
	found, err := r.store.Get(ctx, devisdomain.CollectionName, id, &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &stored, nil
}
