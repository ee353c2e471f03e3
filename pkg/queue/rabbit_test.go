package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDial_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := Dial("")
	require.Error(t, err)
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	var e Enqueuer = Discard{}
	require.NoError(t, e.Enqueue(context.Background(), QueuePushNotifications, map[string]any{"token": "t"}))
}
