package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/quickcommerce/internal/models"
	"github.com/Skotchmaster/quickcommerce/internal/repo"
	"github.com/Skotchmaster/quickcommerce/internal/transport"
	"github.com/Skotchmaster/quickcommerce/pkg/logging"
)

var TicketTransitions = map[string][]string{
	models.TicketOpen:       {models.TicketInProgress, models.TicketResolved, models.TicketClosed},
	models.TicketInProgress: {models.TicketOpen, models.TicketResolved, models.TicketClosed},
	models.TicketResolved:   {models.TicketOpen, models.TicketClosed},
}

type SupportService struct {
	core
}

func validPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}

func (s *SupportService) Create(ctx context.Context, a Actor, req transport.CreateTicketRequest) (*models.SupportTicket, error) {
	subject, msg := strings.TrimSpace(req.Subject), strings.TrimSpace(req.Message)
	if subject == "" || msg == "" {
		return nil, fmt.Errorf("%w: subject and message required", ErrValidation)
	}
	priority := strings.ToUpper(strings.TrimSpace(req.Priority))
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !validPriority(priority) {
		return nil, fmt.Errorf("%w: priority must be LOW, MEDIUM or HIGH", ErrValidation)
	}

	t := &models.SupportTicket{
		TicketNumber: shortCode("TCK", 8),
		CustomerID:   a.UserID,
		OrderID:      req.OrderID,
		StoreID:      req.StoreID,
		Subject:      subject,
		Category:     strings.TrimSpace(req.Category),
		Priority:     priority,
		Status:       models.TicketOpen,
		Messages:     []models.TicketMessage{{AuthorID: a.UserID, Body: msg}},
	}

	if req.OrderID != nil {
		o, err := s.Repo.GetOrder(ctx, *req.OrderID)
		if err != nil {
			return nil, notFound(err, "order")
		}
		if o.CustomerID != a.UserID {
			return nil, fmt.Errorf("%w: order", ErrNotFound)
		}
		t.StoreID = uintPtr(o.StoreID)
	}
	switch {
	case t.StoreID != nil:
		store, err := s.Repo.GetStore(ctx, *t.StoreID)
		if err != nil {
			return nil, notFound(err, "store")
		}
		t.OrganizationID = store.OrganizationID
	case req.OrganizationID != nil:
		org, err := s.Repo.GetOrganization(ctx, *req.OrganizationID)
		if err != nil {
			return nil, notFound(err, "organization")
		}
		t.OrganizationID = org.ID
	default:
		return nil, fmt.Errorf("%w: order_id, store_id or organization_id required", ErrValidation)
	}

	if err := s.Repo.CreateTicket(ctx, t); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("ticket_created", "svc", "support.create", "ticket_id", t.ID, "priority", t.Priority)
	return t, nil
}

func (s *SupportService) visible(a Actor, t *models.SupportTicket) error {
	switch {
	case a.Is(models.RoleCustomer):
		if t.CustomerID == a.UserID {
			return nil
		}
	case a.Is(models.RoleStoreManager, models.RoleStaff):
		if a.inOrg(t.OrganizationID) && t.StoreID != nil && a.StoreID != nil && *t.StoreID == *a.StoreID {
			return nil
		}
	case a.Is(models.RoleSuperAdmin, models.RoleOrgAdmin):
		if a.inOrg(t.OrganizationID) {
			return nil
		}
	}
	return fmt.Errorf("%w: ticket", ErrNotFound)
}

// Get returns a ticket with its thread. Internal notes are left out for customers.
func (s *SupportService) Get(ctx context.Context, a Actor, id uint) (*models.SupportTicket, error) {
	t, err := s.Repo.GetTicket(ctx, id, a.Staff())
	if err != nil {
		return nil, notFound(err, "ticket")
	}
	if err := s.visible(a, t); err != nil {
		return nil, err
	}
	return t, nil
}

type TicketQuery struct {
	Status       string
	Priority     string
	AssignedToID *uint
}

func (s *SupportService) List(ctx context.Context, a Actor, q TicketQuery, w repo.Window) (int64, []models.SupportTicket, error) {
	return s.Repo.ListTickets(ctx, repo.TicketFilter{
		Scope:        a.Scope(),
		Status:       strings.ToUpper(q.Status),
		Priority:     strings.ToUpper(q.Priority),
		AssignedToID: q.AssignedToID,
	}, w)
}

// AddMessage appends to the thread. A customer reply reopens a resolved ticket.
func (s *SupportService) AddMessage(ctx context.Context, a Actor, id uint, req transport.TicketMessageRequest) (*models.TicketMessage, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: body required", ErrValidation)
	}
	internal := req.IsInternal && a.Staff()

	var m *models.TicketMessage
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		t, err := tx.GetTicket(ctx, id, false)
		if err != nil {
			return notFound(err, "ticket")
		}
		if err := s.visible(a, t); err != nil {
			return err
		}
		if t.Status == models.TicketClosed {
			return fmt.Errorf("%w: ticket is closed", ErrConflict)
		}
		m = &models.TicketMessage{TicketID: t.ID, AuthorID: a.UserID, Body: body, IsInternal: internal}
		if err := tx.AddTicketMessage(ctx, m); err != nil {
			return err
		}
		if a.Is(models.RoleCustomer) && t.Status == models.TicketResolved {
			t.Status = models.TicketOpen
		}
		if err := tx.SaveTicket(ctx, t); err != nil {
			return err
		}
		if !a.Is(models.RoleCustomer) && !internal {
			return notifyUser(ctx, tx, t.CustomerID, models.NotificationSupport,
				"Ticket "+t.TicketNumber, "Support replied to your ticket.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SupportService) Patch(ctx context.Context, a Actor, id uint, req transport.PatchTicketRequest) (*models.SupportTicket, error) {
	var out *models.SupportTicket
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		t, err := tx.GetTicket(ctx, id, true)
		if err != nil {
			return notFound(err, "ticket")
		}
		if err := s.visible(a, t); err != nil {
			return err
		}
		statusChanged := false
		if req.Status != nil {
			to := strings.ToUpper(strings.TrimSpace(*req.Status))
			if to != t.Status {
				if !canMove(TicketTransitions, t.Status, to) {
					return fmt.Errorf("%w: cannot move ticket from %s to %s", ErrConflict, t.Status, to)
				}
				t.Status = to
				statusChanged = true
			}
		}
		if req.Priority != nil {
			p := strings.ToUpper(strings.TrimSpace(*req.Priority))
			if !validPriority(p) {
				return fmt.Errorf("%w: priority must be LOW, MEDIUM or HIGH", ErrValidation)
			}
			t.Priority = p
		}
		if req.AssignedToID != nil {
			u, err := tx.GetUser(ctx, *req.AssignedToID)
			if err != nil && !repo.IsNotFound(err) {
				return err
			}
			staff := u != nil && u.Role != models.RoleCustomer && u.Role != models.RoleRider
			if !staff || u.OrganizationID == nil || *u.OrganizationID != t.OrganizationID {
				return fmt.Errorf("%w: assigned_to_id must be staff of this organization", ErrValidation)
			}
			t.AssignedToID = &u.ID
		}
		if err := tx.SaveTicket(ctx, t); err != nil {
			return err
		}
		if statusChanged {
			if err := notifyUser(ctx, tx, t.CustomerID, models.NotificationSupport,
				"Ticket "+t.TicketNumber, "Your ticket is now "+t.Status+"."); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
