// Package docstore stores schemaless JSON documents grouped in collections.
//
// A document is a JSON object. Updates are partial: only the given top-level
// keys are replaced, the others are kept.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound        = errors.New("document_not_found")
	ErrInvalidDocument = errors.New("invalid_document")
	ErrIDExhausted     = errors.New("document_id_exhausted")
)

// IDField is the top-level key holding the document id.
const IDField = "id"

type Store interface {
	// Create inserts doc under a fresh id, which is also written to the
	// document's "id" key.
	Create(ctx context.Context, collection string, doc any) (string, error)
	// Update replaces the given top-level keys of an existing document.
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	// Get decodes the document into out. It reports false when the
	// document does not exist.
	Get(ctx context.Context, collection, id string, out any) (bool, error)
}

type IDGenerator interface {
	NextID() string
}

type SnowflakeIDs struct {
	node *snowflake.Node
}

func NewSnowflakeIDs(nodeID int64) (*SnowflakeIDs, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeIDs{node: node}, nil
}

func (g *SnowflakeIDs) NextID() string {
	return g.node.Generate().String()
}

const maxCreateAttempts = 3
