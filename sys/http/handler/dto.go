package handler

import (
	"time"

	"cleanbuddy-fulfillment/res/store"
	"cleanbuddy-fulfillment/sys/assignment"
	"cleanbuddy-fulfillment/sys/availability"
)

// Amounts are in cents, dates are YYYY-MM-DD, slot times are HH:MM

type bookingResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customerId"`
	CompanyID   string              `json:"companyId"`
	ServiceID   string              `json:"serviceId"`
	BookingDate string              `json:"bookingDate"`
	StartTime   time.Time           `json:"startTime"`
	EndTime     time.Time           `json:"endTime"`
	AddressLine string              `json:"addressLine"`
	Latitude    *float64            `json:"latitude,omitempty"`
	Longitude   *float64            `json:"longitude,omitempty"`
	TotalPrice  int                 `json:"totalPrice"`
	Status      store.BookingStatus `json:"status"`
	ConfirmedAt *time.Time          `json:"confirmedAt,omitempty"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	CancelledAt *time.Time          `json:"cancelledAt,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func mapBooking(b *store.Booking) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		CustomerID:  b.CustomerID,
		CompanyID:   b.CompanyID,
		ServiceID:   b.ServiceID,
		BookingDate: b.BookingDate.Format(time.DateOnly),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		AddressLine: b.AddressLine,
		Latitude:    b.Latitude,
		Longitude:   b.Longitude,
		TotalPrice:  b.TotalPrice,
		Status:      b.Status,
		ConfirmedAt: b.ConfirmedAt,
		StartedAt:   b.StartedAt,
		CompletedAt: b.CompletedAt,
		CancelledAt: b.CancelledAt,
		Notes:       b.CustomerNotes,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

type serviceRequestResponse struct {
	ID              string                     `json:"id"`
	BookingID       string                     `json:"bookingId"`
	CompanyID       string                     `json:"companyId"`
	CustomerID      string                     `json:"customerId"`
	ServiceID       string                     `json:"serviceId"`
	AssignedStaffID *string                    `json:"assignedStaffId"`
	RequestedDate   string                     `json:"requestedDate"`
	StartTime       time.Time                  `json:"startTime"`
	EndTime         time.Time                  `json:"endTime"`
	AddressLine     string                     `json:"addressLine"`
	Status          store.ServiceRequestStatus `json:"status"`
	ApprovedAt      *time.Time                 `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time                 `json:"rejectedAt,omitempty"`
	RejectionReason *string                    `json:"rejectionReason,omitempty"`
	Notes           string                     `json:"notes,omitempty"`
}

func mapServiceRequest(r *store.ServiceRequest) serviceRequestResponse {
	return serviceRequestResponse{
		ID:              r.ID,
		BookingID:       r.BookingID,
		CompanyID:       r.CompanyID,
		CustomerID:      r.CustomerID,
		ServiceID:       r.ServiceID,
		AssignedStaffID: r.AssignedStaffID,
		RequestedDate:   r.RequestedDate.Format(time.DateOnly),
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		AddressLine:     r.AddressLine,
		Status:          r.Status,
		ApprovedAt:      r.ApprovedAt,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		Notes:           r.Notes,
	}
}

type assignmentResponse struct {
	ServiceRequest serviceRequestResponse `json:"serviceRequest"`
	Staff          *store.StaffProfile    `json:"staff"`
}

func mapAssignment(a *assignment.Assignment) assignmentResponse {
	return assignmentResponse{
		ServiceRequest: mapServiceRequest(a.Request),
		Staff:          a.Staff,
	}
}

type slotResponse struct {
	ID          string `json:"id"`
	CompanyID   string `json:"companyId"`
	StaffID     string `json:"staffId"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	IsAvailable bool   `json:"isAvailable"`
}

func mapSlot(s *store.AvailabilitySlot) slotResponse {
	start, end := availability.WindowOf(s)
	return slotResponse{
		ID:          s.ID,
		CompanyID:   s.CompanyID,
		StaffID:     s.StaffID,
		Date:        s.Date.Format(time.DateOnly),
		Start:       start.String(),
		End:         end.String(),
		IsAvailable: s.IsAvailable,
	}
}

type paymentResponse struct {
	ID             string              `json:"id"`
	BookingID      string              `json:"bookingId"`
	PayerID        string              `json:"payerId"`
	Amount         int                 `json:"amount"`
	Method         store.PaymentMethod `json:"method"`
	Status         store.PaymentStatus `json:"status"`
	TransactionRef *string             `json:"transactionRef,omitempty"`
	PaidAt         *time.Time          `json:"paidAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func mapPayment(p *store.Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		BookingID:      p.BookingID,
		PayerID:        p.PayerID,
		Amount:         p.Amount,
		Method:         p.Method,
		Status:         p.Status,
		TransactionRef: p.TransactionRef,
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
}

type reviewResponse struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"bookingId"`
	CustomerID string    `json:"customerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func mapReview(r *store.Review) reviewResponse {
	return reviewResponse{
		ID:         r.ID,
		BookingID:  r.BookingID,
		CustomerID: r.CustomerID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
