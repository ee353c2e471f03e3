package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/quickcommerce/internal/service"
)

// PushSender delivers one push notification to a device.
type PushSender interface {
	Send(ctx context.Context, job service.PushJob) error
}

// LogSender writes pushes to the log instead of a provider.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, job service.PushJob) error {
	s.Log.Info("push_sent",
		"campaign_id", job.CampaignID, "user_id", job.UserID, "platform", job.Platform, "title", job.Title)
	return nil
}

// PushHandler decodes push_notifications jobs for the queue consumer.
func PushHandler(sender PushSender) func(ctx context.Context, body []byte) error {
	return func(ctx context.Context, body []byte) error {
		var job service.PushJob
		if err := json.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("decode push job: %w", err)
		}
		if job.Token == "" {
			return fmt.Errorf("push job without token")
		}
		return sender.Send(ctx, job)
	}
}
