package docstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeObject(t *testing.T) {
	f, err := encodeObject(map[string]any{"title": "A", "count": 2})
	require.NoError(t, err)
	assert.JSONEq(t, `"A"`, string(f["title"]))
	assert.JSONEq(t, `2`, string(f["count"]))

	_, err = encodeObject("scalar")
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = encodeObject(nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestFieldsMergeKeepsOtherKeys(t *testing.T) {
	base := fields{"a": json.RawMessage(`1`), "b": json.RawMessage(`2`)}
	changes, err := encodePartial(map[string]any{"b": []int{3}})
	require.NoError(t, err)

	merged := base.merge(changes)

	var out map[string]any
	require.NoError(t, merged.decode(&out))
	assert.Equal(t, map[string]any{"a": 1.0, "b": []any{3.0}}, out)
}

func TestHashArgs_SortedPairs(t *testing.T) {
	f := fields{"title": json.RawMessage(`"A"`), "id": json.RawMessage(`"1"`)}
	assert.Equal(t, []any{"id", `"1"`, "title", `"A"`}, hashArgs(f))
	assert.Equal(t, "docstore:devis:42", documentKey("devis", "42"))
}

func TestSnowflakeIDs(t *testing.T) {
	ids, err := NewSnowflakeIDs(1)
	require.NoError(t, err)
	assert.NotEqual(t, ids.NextID(), ids.NextID())

	_, err = NewSnowflakeIDs(-1)
	assert.Error(t, err)
}
