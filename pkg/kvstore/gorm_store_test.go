package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGormStore(t *testing.T) *GormStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func TestGormStore_Upsert(t *testing.T) {
	store := setupGormStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "oauth:token", sample{Name: "a"}))
	require.NoError(t, store.Put(ctx, "oauth:token", sample{Name: "b"}))

	var got sample
	require.NoError(t, store.Get(ctx, "oauth:token", &got))
	assert.Equal(t, "b", got.Name)

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestGormStore_KeysAndDelete(t *testing.T) {
	store := setupGormStore(t)
	ctx := context.Background()

	for _, k := range []string{"description:JAL1", "description:JAL2", "record:JAL1", "description_x"} {
		require.NoError(t, store.Put(ctx, k, sample{Name: k}))
	}

	keys, err := store.Keys(ctx, "description:")
	require.NoError(t, err)
	assert.Equal(t, []string{"description:JAL1", "description:JAL2"}, keys)

	require.NoError(t, store.Delete(ctx, "description:JAL1"))
	var got sample
	assert.ErrorIs(t, store.Get(ctx, "description:JAL1", &got), ErrNotFound)
}
