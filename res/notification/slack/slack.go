package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"cleanbuddy-fulfillment/res/notification"
)

// notificationService implements the NotificationService interface
type notificationService struct {
	webhookURL string
	httpClient *http.Client
	logger     *log.Logger
}

// slackMessage represents the structure of a Slack message
type slackMessage struct {
	Text string `json:"text"`
}

// New creates a new NotificationService instance
func New(webhookURL string, timeout time.Duration, logger *log.Logger) notification.NotificationService {
	return &notificationService{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NotifyAssignmentRejected asks the company on Slack to reassign a rejected booking
func (s *notificationService) NotifyAssignmentRejected(ctx context.Context, alert notification.RejectedAssignment) error {
	// If webhook URL is not configured, skip notification silently
	if s.webhookURL == "" {
		s.logger.Printf("Slack webhook URL not configured, skipping rejection alert")
		return nil
	}

	message := slackMessage{
		Text: fmt.Sprintf(
			":warning: Assignment rejected, booking needs a new staff member\n*Company:* %s\n*Booking:* %s\n*Service request:* %s\n*Staff:* %s\n*Reason:* %s",
			alert.CompanyID, alert.BookingID, alert.ServiceRequestID, alert.StaffName, alert.Reason,
		),
	}

	return s.sendToSlack(ctx, message)
}

// NotifyBookingCancelled tells the company a confirmed booking was cancelled
func (s *notificationService) NotifyBookingCancelled(ctx context.Context, alert notification.CancelledBooking) error {
	if s.webhookURL == "" {
		s.logger.Printf("Slack webhook URL not configured, skipping cancellation alert")
		return nil
	}

	message := slackMessage{
		Text: fmt.Sprintf(
			":x: Booking cancelled\n*Company:* %s\n*Booking:* %s\n*By:* %s\n*Reason:* %s",
			alert.CompanyID, alert.BookingID, alert.CancelledByID, alert.Reason,
		),
	}

	return s.sendToSlack(ctx, message)
}

// sendToSlack is a helper method to send messages to Slack
func (s *notificationService) sendToSlack(ctx context.Context, message slackMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack API returned non-OK status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
