package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const paypalTokenLeeway = 30 * time.Second

// PayPalService talks to the PayPal Orders v2 API. Access tokens are cached
// behind a mutex and refreshed once on 401.
type PayPalService struct {
	baseURL  string
	clientID string
	secret   string

	client *http.Client

	tokenMu     sync.RWMutex
	token       string
	tokenExpiry time.Time
}

func NewPayPalService(baseURL, clientID, secret string) *PayPalService {
	return &PayPalService{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		secret:   secret,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether client credentials are present.
func (s *PayPalService) Configured() bool {
	return s.clientID != "" && s.secret != ""
}

// PayPalOrder is the subset of the checkout order resource the backend needs.
type PayPalOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		CustomID string `json:"custom_id"`
	} `json:"purchase_units"`
}

// CreateCheckout opens a CAPTURE order for the given amount. The custom id is
// either "order-<uuid>" or "booking-<uuid>" and is how the webhook routes the
// approval back to the right record.
func (s *PayPalService) CreateCheckout(customID string, amount float64, currency string) (*PayPalOrder, error) {
	if !s.Configured() {
		return nil, errors.New("PayPal credentials are not configured")
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"custom_id": customID,
				"amount": map[string]string{
					"currency_code": currency,
					"value":         strconv.FormatFloat(amount, 'f', 2, 64),
				},
			},
		},
	}

	var created PayPalOrder
	if err := s.doJSON(http.MethodPost, "/v2/checkout/orders", payload, &created); err != nil {
		return nil, fmt.Errorf("create PayPal checkout: %w", err)
	}
	return &created, nil
}

// OrderCustomID builds the custom_id carried on order checkouts.
func OrderCustomID(orderID uuid.UUID) string {
	return "order-" + orderID.String()
}

// BookingCustomID builds the custom_id carried on booking checkouts.
func BookingCustomID(bookingID uuid.UUID) string {
	return "booking-" + bookingID.String()
}

// ParseCustomID splits a custom_id into its kind ("order" or "booking") and
// record id.
func ParseCustomID(customID string) (kind string, id uuid.UUID, err error) {
	kind, raw, found := strings.Cut(customID, "-")
	if !found || (kind != "order" && kind != "booking") {
		return "", uuid.Nil, fmt.Errorf("unrecognized custom_id %q", customID)
	}
	id, err = uuid.Parse(raw)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("parse custom_id %q: %w", customID, err)
	}
	return kind, id, nil
}

// Capture finalizes an approved checkout order.
func (s *PayPalService) Capture(checkoutID string) (*PayPalOrder, error) {
	var captured PayPalOrder
	path := "/v2/checkout/orders/" + url.PathEscape(checkoutID) + "/capture"
	if err := s.doJSON(http.MethodPost, path, struct{}{}, &captured); err != nil {
		return nil, fmt.Errorf("capture PayPal order %s: %w", checkoutID, err)
	}
	return &captured, nil
}

// GetOrder fetches a checkout order, used to verify state before trusting a
// client-reported approval.
func (s *PayPalService) GetOrder(checkoutID string) (*PayPalOrder, error) {
	var order PayPalOrder
	path := "/v2/checkout/orders/" + url.PathEscape(checkoutID)
	if err := s.doJSON(http.MethodGet, path, nil, &order); err != nil {
		return nil, fmt.Errorf("fetch PayPal order %s: %w", checkoutID, err)
	}
	return &order, nil
}

func (s *PayPalService) doJSON(method, path string, body, out any) error {
	token, err := s.getToken(false)
	if err != nil {
		return err
	}

	resp, respBody, err := s.do(method, path, body, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Token likely expired; refresh and retry once.
		token, err = s.getToken(true)
		if err != nil {
			return err
		}
		resp, respBody, err = s.do(method, path, body, token)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("PayPal request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal PayPal response: %w", err)
		}
	}
	return nil
}

func (s *PayPalService) do(method, path string, body any, token string) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal PayPal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("create PayPal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("execute PayPal request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read PayPal response: %w", err)
	}
	return resp, respBody, nil
}

func (s *PayPalService) getToken(force bool) (string, error) {
	if !force {
		s.tokenMu.RLock()
		token := s.currentTokenLocked()
		s.tokenMu.RUnlock()
		if token != "" {
			return token, nil
		}
	}

	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	// Check again in case another goroutine refreshed while we waited.
	if !force {
		if token := s.currentTokenLocked(); token != "" {
			return token, nil
		}
	}

	if !s.Configured() {
		return "", errors.New("PayPal credentials are not configured")
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create PayPal auth request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute PayPal auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read PayPal auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("PayPal auth request failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var authResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return "", fmt.Errorf("unmarshal PayPal auth response: %w", err)
	}
	if authResp.AccessToken == "" {
		return "", errors.New("PayPal auth response missing access_token")
	}

	s.token = authResp.AccessToken
	if authResp.ExpiresIn > 0 {
		s.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn) * time.Second)
	} else {
		s.tokenExpiry = time.Now().Add(5 * time.Minute)
	}
	return s.token, nil
}

func (s *PayPalService) currentTokenLocked() string {
	if s.token == "" {
		return ""
	}
	if time.Now().Add(paypalTokenLeeway).After(s.tokenExpiry) {
		return ""
	}
	return s.token
}
