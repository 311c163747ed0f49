package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/example/mediatower/internal/models"
)

// EmailService sends transactional mail through an HTTP mail provider.
// Sending is always best-effort: failures are logged and never block the
// triggering request.
type EmailService struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func NewEmailService(apiURL, apiKey, from string) *EmailService {
	return &EmailService{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type mailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send delivers a single message. A missing API key disables sending.
func (s *EmailService) Send(to, subject, html string) error {
	if s.apiKey == "" || s.apiURL == "" {
		log.Println("[Mail] provider not configured, skipping send")
		return nil
	}

	body, err := json.Marshal(mailMessage{From: s.from, To: to, Subject: subject, HTML: html})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[Mail] failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Mail] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	return nil
}

// SendAsync dispatches a message off the calling goroutine.
func (s *EmailService) SendAsync(to, subject, html string) {
	go func() {
		if err := s.Send(to, subject, html); err != nil {
			log.Printf("[Mail] async send to %s failed: %v", to, err)
		}
	}()
}

// SendOrderConfirmation notifies a customer that their order was delivered and
// product access is available.
func (s *EmailService) SendOrderConfirmation(user *models.User, order *models.Order) error {
	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your order <b>%s</b> is confirmed. Your purchases are now available in your library.</p>
<p>Total: %.2f</p>`, user.FirstName, order.ID, order.TotalAmount)
	return s.Send(user.Email, "Your order is confirmed", html)
}

// SendBookingConfirmed asks the customer to pay before the deadline.
func (s *EmailService) SendBookingConfirmed(user *models.User, booking *models.Booking, serviceName string) {
	deadline := ""
	if booking.PaymentDueDate != nil {
		deadline = booking.PaymentDueDate.Format(time.RFC1123)
	}
	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your booking for <b>%s</b> has been confirmed. Please complete the payment before <b>%s</b> to keep your reservation.</p>`,
		user.FirstName, serviceName, deadline)
	s.SendAsync(user.Email, "Booking confirmed — payment required", html)
}

// SendBookingInProgress tells the customer that work has started.
func (s *EmailService) SendBookingInProgress(user *models.User, serviceName string) {
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Payment received. Work on <b>%s</b> has started.</p>`,
		user.FirstName, serviceName)
	s.SendAsync(user.Email, "Work started on your booking", html)
}

// SendBookingCompleted asks the customer to leave a review.
func (s *EmailService) SendBookingCompleted(user *models.User, serviceName string) {
	html := fmt.Sprintf(`<p>Hi %s,</p><p><b>%s</b> is complete. We would love to hear your feedback — please leave a review.</p>`,
		user.FirstName, serviceName)
	s.SendAsync(user.Email, "Your booking is complete", html)
}

// SendBookingCancelled notifies the customer of a cancellation.
func (s *EmailService) SendBookingCancelled(user *models.User, serviceName string, bySystem bool) {
	reason := "has been cancelled."
	if bySystem {
		reason = "was cancelled because the payment deadline passed."
	}
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Your booking for <b>%s</b> %s</p>`,
		user.FirstName, serviceName, reason)
	s.SendAsync(user.Email, "Booking cancelled", html)
}

// SendBookingRequested acknowledges a new booking request.
func (s *EmailService) SendBookingRequested(user *models.User, serviceName string) {
	html := fmt.Sprintf(`<p>Hi %s,</p><p>We received your booking request for <b>%s</b>. Our team will get back to you shortly.</p>`,
		user.FirstName, serviceName)
	s.SendAsync(user.Email, "Booking request received", html)
}
