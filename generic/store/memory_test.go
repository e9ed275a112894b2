package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/generic/store"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, found, err := m.Get(ctx, "sales")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.Set(ctx, "sales", []byte(`[1]`)))
	raw, found, err := m.Get(ctx, "sales")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1]`, string(raw))

	raw[0] = 'x'
	again, _, _ := m.Get(ctx, "sales")
	assert.Equal(t, `[1]`, string(again), "returned bytes are a copy")

	require.NoError(t, m.Delete(ctx, "sales"))
	require.NoError(t, m.Delete(ctx, "sales"))
	assert.Empty(t, m.Keys())
}

func TestMemory_BatchAndFailure(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, generic.SetAll(ctx, m, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	m.FailWith = errors.New("offline")
	err := m.SetBatch(ctx, map[string][]byte{"c": []byte("3")})
	assert.EqualError(t, err, "offline")
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	type row struct {
		Name string `json:"name"`
	}

	fallback := []row{{Name: "default"}}
	found, err := generic.Load(ctx, m, "rows", &fallback)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "default", fallback[0].Name, "absent key leaves the default")

	require.NoError(t, generic.Save(ctx, m, "rows", []row{{Name: "x"}, {Name: "y"}}))
	var out []row
	found, err = generic.Load(ctx, m, "rows", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, out, 2)

	require.NoError(t, m.Set(ctx, "broken", []byte("{")))
	_, err = generic.Load(ctx, m, "broken", &out)
	assert.Error(t, err)
}
