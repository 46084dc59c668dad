package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildInsertSQL(t *testing.T) {
	sql, args := buildInsertSQL("users",
		[]string{"email", "first_name"},
		[][]any{
			{"a@example.com", "Ann"},
			{"b@example.com", "Bob"},
		})

	assert.Equal(t,
		`INSERT INTO "users" ("email", "first_name") VALUES ($1, $2), ($3, $4)`,
		sql)
	assert.Equal(t, []any{"a@example.com", "Ann", "b@example.com", "Bob"}, args)
}

func TestBuildUpdateSQL(t *testing.T) {
	t.Run("sorted deterministic columns", func(t *testing.T) {
		sql, args, err := buildUpdateSQL("products",
			map[string]any{"title": "Lamp", "category": "home"},
			map[string]any{"sku": "SKU-1"})
		require.NoError(t, err)

		assert.Equal(t,
			`UPDATE "products" SET "category" = $1, "title" = $2 WHERE "sku" = $3`,
			sql)
		assert.Equal(t, []any{"home", "Lamp", "SKU-1"}, args)
	})

	t.Run("empty set clause", func(t *testing.T) {
		_, _, err := buildUpdateSQL("products", map[string]any{}, map[string]any{"sku": "x"})
		assert.Error(t, err)
	})

	t.Run("empty where clause", func(t *testing.T) {
		_, _, err := buildUpdateSQL("products", map[string]any{"title": "x"}, map[string]any{})
		assert.Error(t, err)
	})
}

func TestBuildUpsertSQL(t *testing.T) {
	t.Run("updates non-conflict columns from excluded", func(t *testing.T) {
		sql, args := buildUpsertSQL("products",
			[]string{"sku", "title"},
			[]string{"sku"},
			[][]any{{"SKU-1", "Lamp"}})

		assert.Equal(t,
			`INSERT INTO "products" ("sku", "title") VALUES ($1, $2)`+
				` ON CONFLICT ("sku") DO UPDATE SET "title" = EXCLUDED."title" RETURNING *`,
			sql)
		assert.Equal(t, []any{"SKU-1", "Lamp"}, args)
	})

	t.Run("do nothing when every column conflicts", func(t *testing.T) {
		sql, _ := buildUpsertSQL("tags", []string{"name"}, []string{"name"}, [][]any{{"sale"}})
		assert.Contains(t, sql, "DO NOTHING")
		assert.Contains(t, sql, "RETURNING *")
	})
}

func TestCheckRowShape(t *testing.T) {
	assert.NoError(t, checkRowShape([]string{"a", "b"}, [][]any{{1, 2}}))
	assert.Error(t, checkRowShape([]string{"a", "b"}, [][]any{{1}}))
	assert.Error(t, checkRowShape(nil, [][]any{{1}}))
}

func TestBulkOperationsDisconnected(t *testing.T) {
	db := New(Config{}, zap.NewNop())
	ctx := context.Background()

	t.Run("empty insert is a no-op", func(t *testing.T) {
		n, err := db.BulkInsert(ctx, "users", []string{"email"}, nil, 0)
		assert.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		n, err := db.BulkUpdate(ctx, "users", nil, 0)
		assert.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("empty upsert is a no-op", func(t *testing.T) {
		rows, err := db.Upsert(ctx, "users", []string{"email"}, []string{"email"}, nil)
		assert.NoError(t, err)
		assert.Nil(t, rows)
	})

	t.Run("insert with rows needs a connection", func(t *testing.T) {
		_, err := db.BulkInsert(ctx, "users", []string{"email"}, [][]any{{"a@example.com"}}, 0)
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("upsert rejects missing conflict columns before touching the pool", func(t *testing.T) {
		_, err := db.Upsert(ctx, "users", []string{"email"}, nil, [][]any{{"a@example.com"}})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotConnected)
	})
}
