package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
	"github.com/Skotchmaster/quickcommerce/pkg/queue"
)

const maxCampaignUsers = 10000

// CampaignDispatcher hands a queued campaign to whatever sends it.
type CampaignDispatcher interface {
	Dispatch(ctx context.Context, campaignID uint) error
}

// PushJob is one device delivery on the push_notifications queue.
type PushJob struct {
	CampaignID uint   `json:"campaign_id"`
	UserID     uint   `json:"user_id"`
	Token      string `json:"token"`
	Platform   string `json:"platform"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

type NotificationService struct {
	core
	Dispatcher CampaignDispatcher
}

func notifyUser(ctx context.Context, tx *repo.GormRepo, userID uint, typ, title, body string) error {
	return tx.CreateNotifications(ctx, []models.Notification{{UserID: userID, Type: typ, Title: title, Body: body}})
}

func (s *NotificationService) Send(ctx context.Context, a Actor, req transport.SendCampaignRequest) (*models.NotificationCampaign, error) {
	l := logging.FromContext(ctx).With("svc", "notifications.send")

	orgID, err := a.orgFor(req.OrganizationID)
	if err != nil {
		return nil, err
	}
	title, body := strings.TrimSpace(req.Title), strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		return nil, fmt.Errorf("%w: title and body required", ErrValidation)
	}

	audience := strings.ToUpper(req.Audience)
	storeID := req.StoreID
	if a.Is(models.RoleStoreManager) {
		if audience == models.AudienceAllCustomers {
			return nil, fmt.Errorf("%w: store managers can only message their store's customers", ErrForbidden)
		}
		storeID = a.StoreID
	}
	aq := repo.AudienceQuery{Audience: audience, OrgID: orgID}
	switch audience {
	case models.AudienceAllCustomers:
		storeID = nil
	case models.AudienceStoreCustomers:
		if storeID == nil {
			return nil, fmt.Errorf("%w: store_id required for STORE_CUSTOMERS", ErrValidation)
		}
	case models.AudienceUsers:
		if len(req.UserIDs) == 0 || len(req.UserIDs) > maxCampaignUsers {
			return nil, fmt.Errorf("%w: user_ids must hold 1..%d ids", ErrValidation, maxCampaignUsers)
		}
		aq.UserIDs = req.UserIDs
	default:
		return nil, fmt.Errorf("%w: audience must be ALL_CUSTOMERS, STORE_CUSTOMERS or USERS", ErrValidation)
	}
	if storeID != nil {
		store, err := managedStore(ctx, s.Repo, a, *storeID)
		if err != nil {
			return nil, err
		}
		if store.OrganizationID != orgID {
			return nil, fmt.Errorf("%w: store belongs to another organization", ErrValidation)
		}
		aq.StoreID = storeID
	}

	total, err := s.Repo.CountAudience(ctx, aq)
	if err != nil {
		return nil, err
	}
	c := &models.NotificationCampaign{
		OrganizationID:  orgID,
		StoreID:         storeID,
		Title:           title,
		Body:            body,
		Audience:        audience,
		UserIDs:         joinIDs(aq.UserIDs),
		Status:          models.CampaignQueued,
		TotalRecipients: int(total),
		CreatedByID:     a.UserID,
	}
	if err := s.Repo.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}

	if s.Dispatcher != nil {
		if err := s.Dispatcher.Dispatch(ctx, c.ID); err != nil {
			l.Error("campaign_dispatch_failed", "campaign_id", c.ID, "error", err)
			_ = s.Repo.FinishCampaign(ctx, c.ID, models.CampaignFailed, "dispatch failed", s.now())
			return nil, fmt.Errorf("dispatch campaign %d: %w", c.ID, err)
		}
	}
	l.Info("campaign_queued", "campaign_id", c.ID, "recipients", total)
	return c, nil
}

func (s *NotificationService) Campaigns(ctx context.Context, a Actor, w repo.Window) (int64, []models.NotificationCampaign, error) {
	return s.Repo.ListCampaigns(ctx, a.Scope(), w)
}

func (s *NotificationService) Progress(ctx context.Context, a Actor, id uint) (*transport.CampaignProgress, error) {
	c, err := s.Repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, notFound(err, "campaign")
	}
	if !a.inOrg(c.OrganizationID) {
		return nil, fmt.Errorf("%w: campaign", ErrNotFound)
	}
	if a.Is(models.RoleStoreManager) && (c.StoreID == nil || a.StoreID == nil || *c.StoreID != *a.StoreID) {
		return nil, fmt.Errorf("%w: campaign", ErrNotFound)
	}
	return progressOf(c), nil
}

func progressOf(c *models.NotificationCampaign) *transport.CampaignProgress {
	p := &transport.CampaignProgress{
		ID:     c.ID,
		Status: c.Status,
		Total:  c.TotalRecipients,
		Sent:   c.SentCount,
		Failed: c.FailedCount,
		Done:   c.Status == models.CampaignCompleted || c.Status == models.CampaignFailed,
		Error:  c.LastError,
	}
	switch {
	case p.Total > 0:
		p.Percent = (p.Sent + p.Failed) * 100 / p.Total
		if p.Percent > 100 {
			p.Percent = 100
		}
	case p.Done:
		p.Percent = 100
	}
	return p
}

// RunCampaign delivers a queued campaign in batches. It is safe to call more
// than once for the same id: only the first call claims the campaign.
func (s *NotificationService) RunCampaign(ctx context.Context, id uint, batchSize int, push queue.Enqueuer) error {
	l := logging.FromContext(ctx).With("svc", "notifications.run_campaign", "campaign_id", id)

	claimed, err := s.Repo.ClaimCampaign(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !claimed {
		l.Info("campaign_already_claimed")
		return nil
	}
	abort := func(reason string, err error) error {
		if ferr := s.Repo.FinishCampaign(context.WithoutCancel(ctx), id, models.CampaignFailed, reason, s.now()); ferr != nil {
			l.Error("campaign_finish_failed", "error", ferr)
		}
		l.Error("campaign_failed", "reason", reason, "error", err)
		return err
	}

	c, err := s.Repo.GetCampaign(ctx, id)
	if err != nil {
		return abort(err.Error(), err)
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	aq := repo.AudienceQuery{Audience: c.Audience, OrgID: c.OrganizationID, StoreID: c.StoreID, UserIDs: splitIDs(c.UserIDs)}
	var after uint
	var sent, failed int
	for {
		if err := ctx.Err(); err != nil {
			_ = abort("interrupted", err)
			return nil
		}
		ids, err := s.Repo.AudiencePage(ctx, aq, after, batchSize)
		if err != nil {
			return abort(err.Error(), err)
		}
		if len(ids) == 0 {
			break
		}
		after = ids[len(ids)-1]

		batchSent, batchFailed := s.deliverBatch(ctx, c, ids, push)
		sent += batchSent
		failed += batchFailed
		if err := s.Repo.AddCampaignProgress(ctx, id, batchSent, batchFailed); err != nil {
			return abort(err.Error(), err)
		}
		l.Debug("campaign_batch_done", "sent", batchSent, "failed", batchFailed, "after_id", after)
	}

	status, lastErr := models.CampaignCompleted, ""
	if sent == 0 && failed > 0 {
		status, lastErr = models.CampaignFailed, "all deliveries failed"
	}
	l.Info("campaign_finished", "status", status, "sent", sent, "failed", failed)
	return s.Repo.FinishCampaign(ctx, id, status, lastErr, s.now())
}

func (s *NotificationService) deliverBatch(ctx context.Context, c *models.NotificationCampaign, ids []uint, push queue.Enqueuer) (int, int) {
	l := logging.FromContext(ctx)
	campaignID := c.ID
	rows := make([]models.Notification, 0, len(ids))
	for _, uid := range ids {
		rows = append(rows, models.Notification{
			UserID: uid, CampaignID: &campaignID, Type: models.NotificationCampaignMsg, Title: c.Title, Body: c.Body,
		})
	}
	if err := s.Repo.CreateNotifications(ctx, rows); err != nil {
		l.Error("campaign_batch_failed", "campaign_id", c.ID, "error", err)
		return 0, len(ids)
	}
	if push == nil {
		return len(ids), 0
	}
	devices, err := s.Repo.DeviceTokens(ctx, ids)
	if err != nil {
		l.Warn("campaign_devices_failed", "campaign_id", c.ID, "error", err)
		return len(ids), 0
	}
	for _, d := range devices {
		job := PushJob{CampaignID: c.ID, UserID: d.UserID, Token: d.Token, Platform: d.Platform, Title: c.Title, Body: c.Body}
		if err := push.Enqueue(ctx, queue.QueuePushNotifications, job); err != nil {
			l.Warn("push_enqueue_failed", "campaign_id", c.ID, "user_id", d.UserID, "error", err)
		}
	}
	return len(ids), 0
}

func (s *NotificationService) Inbox(ctx context.Context, a Actor, unreadOnly bool, w repo.Window) (int64, []models.Notification, error) {
	return s.Repo.ListNotifications(ctx, a.UserID, unreadOnly, w)
}

func (s *NotificationService) UnreadCount(ctx context.Context, a Actor) (int64, error) {
	return s.Repo.UnreadCount(ctx, a.UserID)
}

func (s *NotificationService) MarkRead(ctx context.Context, a Actor, id uint) error {
	return notFound(s.Repo.MarkRead(ctx, a.UserID, id, s.now()), "notification")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, a Actor) (int64, error) {
	return s.Repo.MarkAllRead(ctx, a.UserID, s.now())
}

func (s *NotificationService) RegisterDevice(ctx context.Context, a Actor, req transport.DeviceTokenRequest) (*models.DeviceToken, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, fmt.Errorf("%w: token required", ErrValidation)
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	switch platform {
	case "ios", "android", "web":
	default:
		return nil, fmt.Errorf("%w: platform must be ios, android or web", ErrValidation)
	}
	d := &models.DeviceToken{UserID: a.UserID, Token: token, Platform: platform}
	if err := s.Repo.UpsertDeviceToken(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func joinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) []uint {
	if s == "" {
		return nil
	}
	out := make([]uint, 0)
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64); err == nil {
			out = append(out, uint(n))
		}
	}
	return out
}
