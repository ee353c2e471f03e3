package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h)
}

// ParseLevel maps LOG_LEVEL onto a slog level; unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// Tenant is the caller a request runs for.
type Tenant struct {
	UserID  uint
	Role    string
	OrgID   *uint
	StoreID *uint
}

func (t Tenant) attrs() []any {
	out := []any{"user_id", t.UserID, "role", t.Role}
	if t.OrgID != nil {
		out = append(out, "org_id", *t.OrgID)
	}
	if t.StoreID != nil {
		out = append(out, "store_id", *t.StoreID)
	}
	return out
}

// WithTenant tags every later log line of ctx with the caller's tenant.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return IntoContext(ctx, FromContext(ctx).With(t.attrs()...))
}
