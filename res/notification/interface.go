package notification

import "context"

// RejectedAssignment describes a service request declined by its assigned staff member
type RejectedAssignment struct {
	CompanyID        string
	BookingID        string
	ServiceRequestID string
	StaffName        string
	Reason           string
}

// CancelledBooking describes a booking cancelled after it was confirmed
type CancelledBooking struct {
	CompanyID     string
	BookingID     string
	CancelledByID string
	Reason        string
}

// NotificationService defines the interface for company-facing operational alerts
type NotificationService interface {
	// NotifyAssignmentRejected alerts the company that a booking needs reassignment
	NotifyAssignmentRejected(ctx context.Context, alert RejectedAssignment) error
	// NotifyBookingCancelled alerts the company that a confirmed booking was cancelled
	NotifyBookingCancelled(ctx context.Context, alert CancelledBooking) error
}

type nop struct{}

// Nop returns a NotificationService that drops every alert
func Nop() NotificationService {
	return nop{}
}

func (nop) NotifyAssignmentRejected(context.Context, RejectedAssignment) error { return nil }

func (nop) NotifyBookingCancelled(context.Context, CancelledBooking) error { return nil }
