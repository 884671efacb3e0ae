package events

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBookingCreated         Type = "booking.created"
	TypeBookingStatusChanged   Type = "booking.status_changed"
	TypeServiceRequestAssigned Type = "service_request.assigned"
	TypeServiceRequestApproved Type = "service_request.approved"
	TypeServiceRequestRejected Type = "service_request.rejected"
	TypePaymentCreated         Type = "payment.created"
	TypePaymentCompleted       Type = "payment.completed"
	TypeCompanyRatingUpdated   Type = "company_rating.updated"
	TypeAvailabilityChanged    Type = "availability.changed"
)

// Event is a fact about the fulfillment domain, published after its transaction commits.
// CompanyID scopes delivery to company dashboards.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	CompanyID  string    `json:"companyId"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func New(eventType Type, companyID string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CompanyID:  companyID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nop struct{}

func Nop() Publisher { return nop{} }

func (nop) Publish(context.Context, Event) error { return nil }

// Emitter delivers events to every publisher. Delivery is best effort:
// failures are logged and never reach the operation that produced the event.
type Emitter struct {
	logger     *log.Logger
	publishers []Publisher
}

func NewEmitter(logger *log.Logger, publishers ...Publisher) *Emitter {
	return &Emitter{logger: logger, publishers: publishers}
}

func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	for _, p := range e.publishers {
		if err := p.Publish(ctx, event); err != nil {
			e.logger.Printf("Error publishing %s event %s: %s", event.Type, event.ID, err)
		}
	}
}
