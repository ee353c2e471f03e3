package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestIntoContext_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn").With("service", "test")
	ctx := IntoContext(context.Background(), l)

	FromContext(ctx).Info("dropped")
	FromContext(ctx).Warn("kept", "status", 409)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "test", line["service"])
	assert.EqualValues(t, 409, line["status"])
}

func TestWithTenant_TagsLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	org := uint(4)
	ctx := IntoContext(context.Background(), NewWithWriter(&buf, "info"))
	ctx = WithTenant(ctx, Tenant{UserID: 9, Role: "STAFF", OrgID: &org})

	FromContext(ctx).Info("bulk_status_success")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.EqualValues(t, 9, line["user_id"])
	assert.Equal(t, "STAFF", line["role"])
	assert.EqualValues(t, 4, line["org_id"])
	assert.NotContains(t, line, "store_id")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
