package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateStatement(t *testing.T) {
	t.Parallel()

	got := TruncateStatement("orders", "order_items")
	assert.Equal(t, `TRUNCATE TABLE "orders", "order_items" RESTART IDENTITY CASCADE`, got)
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
