package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Skotchmaster/quickcommerce/pkg/events"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

// CampaignMessage is the payload on the campaign_events topic.
type CampaignMessage struct {
	Type       string `json:"type"`
	CampaignID uint   `json:"campaign_id"`
}

// CampaignRunner delivers one campaign end to end.
type CampaignRunner func(ctx context.Context, campaignID uint) error

// KafkaDispatcher queues campaigns on campaign_events for cmd/worker.
type KafkaDispatcher struct {
	Events events.Publisher
}

func (d KafkaDispatcher) Dispatch(ctx context.Context, campaignID uint) error {
	return d.Events.PublishEvent(ctx, events.TopicCampaigns, strconv.FormatUint(uint64(campaignID), 10),
		CampaignMessage{Type: "campaign_queued", CampaignID: campaignID})
}

// InlineDispatcher runs campaigns on a goroutine of the API process. It is
// used when no broker is configured.
type InlineDispatcher struct {
	Run CampaignRunner
	Log *slog.Logger
}

func (d InlineDispatcher) Dispatch(ctx context.Context, campaignID uint) error {
	runCtx := logging.IntoContext(context.WithoutCancel(ctx), d.Log.With("campaign_id", campaignID))
	go func() {
		if err := d.Run(runCtx, campaignID); err != nil {
			d.Log.Error("campaign_run_failed", "campaign_id", campaignID, "error", err)
		}
	}()
	return nil
}

// CampaignHandler turns campaign_events messages into campaign runs.
func CampaignHandler(run CampaignRunner, log *slog.Logger) events.Handler {
	return func(ctx context.Context, _, value []byte) error {
		var msg CampaignMessage
		if err := json.Unmarshal(value, &msg); err != nil {
			return fmt.Errorf("decode campaign message: %w", err)
		}
		if msg.CampaignID == 0 {
			return fmt.Errorf("campaign message without campaign_id")
		}
		ctx = logging.IntoContext(ctx, log.With("campaign_id", msg.CampaignID))
		return run(ctx, msg.CampaignID)
	}
}
