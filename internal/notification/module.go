// Package notification fans domain events out to in-app notifications and,
// when configured, email. Delivery is fire-and-forget: a failed notification
// never fails the operation that triggered it.
package notification

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"fieldcrm_backend/internal/email"
	"fieldcrm_backend/internal/events"
	"fieldcrm_backend/internal/notification/inapp"
	"fieldcrm_backend/platform/httpkit"
	"fieldcrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AddressBook resolves a user's email address for optional mail delivery.
type AddressBook interface {
	EmailFor(ctx context.Context, userID uuid.UUID) (string, error)
}

type Module struct {
	Inapp *inapp.Repository

	sender    email.Sender
	addresses AddressBook
	log       *logger.Logger
}

func NewModule(pool *pgxpool.Pool, sender email.Sender, addresses AddressBook, log *logger.Logger) *Module {
	return &Module{
		Inapp:     inapp.NewRepository(pool),
		sender:    sender,
		addresses: addresses,
		log:       log,
	}
}

// Subscribe attaches the module to the domain events it turns into
// notifications.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(m.onLeadAssigned))
	bus.Subscribe(events.LeadConverted{}.EventName(), events.HandlerFunc(m.onLeadConverted))
	bus.Subscribe(events.CallLaterDue{}.EventName(), events.HandlerFunc(m.onCallLaterDue))
}

func (m *Module) onLeadAssigned(ctx context.Context, raw events.Event) error {
	e, ok := raw.(events.LeadAssigned)
	if !ok {
		return nil
	}
	title := "New lead assigned"
	body := fmt.Sprintf("Lead %q has been assigned to you as %s.", e.CustomerName, e.TargetRole)
	m.deliver(ctx, e.TargetUserID, "lead_assigned", title, body, &e.LeadID)
	return nil
}

func (m *Module) onLeadConverted(ctx context.Context, raw events.Event) error {
	e, ok := raw.(events.LeadConverted)
	if !ok {
		return nil
	}
	if e.SalesmanID == nil {
		return nil
	}
	title := "Lead converted"
	body := fmt.Sprintf("Your lead %q is now customer %s.", e.CustomerName, e.CustomerID)
	m.deliver(ctx, *e.SalesmanID, "lead_converted", title, body, &e.LeadID)
	return nil
}

func (m *Module) onCallLaterDue(ctx context.Context, raw events.Event) error {
	e, ok := raw.(events.CallLaterDue)
	if !ok {
		return nil
	}
	title := "Scheduled call due"
	body := fmt.Sprintf("The call for lead %q scheduled on %s is due.", e.CustomerName, e.ScheduledDate)
	m.deliver(ctx, e.OperatorID, "call_later_due", title, body, &e.LeadID)
	return nil
}

func (m *Module) deliver(ctx context.Context, userID uuid.UUID, kind, title, body string, leadID *uuid.UUID) {
	if _, err := m.Inapp.Create(ctx, inapp.CreateParams{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		LeadID: leadID,
	}); err != nil {
		m.log.NotificationError(kind, userID.String(), err)
	}

	address, err := m.addresses.EmailFor(ctx, userID)
	if err != nil || address == "" {
		return
	}
	if err := m.sender.Send(ctx, address, title, body); err != nil {
		m.log.NotificationError(kind+"_email", userID.String(), err)
	}
}

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	LeadID    *uuid.UUID `json:"lead_id,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt string     `json:"created_at"`
}

func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	notifications := api.Group("/notifications")
	notifications.GET("", m.list)
	notifications.GET("/unread-count", m.unreadCount)
	notifications.POST("/:id/read", m.markRead)
	notifications.POST("/read-all", m.markAllRead)
}

func (m *Module) list(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := m.Inapp.ListForUser(c.Request.Context(), identity.UserID(), limit)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "could not load notifications", nil)
		return
	}

	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, notificationResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			LeadID:    n.LeadID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	httpkit.OK(c, gin.H{"notifications": out})
}

func (m *Module) unreadCount(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	count, err := m.Inapp.UnreadCount(c.Request.Context(), identity.UserID())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "could not count notifications", nil)
		return
	}
	httpkit.OK(c, gin.H{"count": count})
}

func (m *Module) markRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}

	if err := m.Inapp.MarkRead(c.Request.Context(), id, identity.UserID()); err != nil {
		if err == inapp.ErrNotFound {
			httpkit.Error(c, http.StatusNotFound, "notification not found", nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "could not update notification", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) markAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if err := m.Inapp.MarkAllRead(c.Request.Context(), identity.UserID()); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "could not update notifications", nil)
		return
	}
	c.Status(http.StatusNoContent)
}
