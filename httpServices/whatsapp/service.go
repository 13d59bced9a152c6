package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"qr-offers/logger"
)

// Notifier delivers outbound customer messages. Delivery is an opaque
// external collaborator: failures are reported to the caller, never retried
// here.
type Notifier interface {
	SendMessage(phone, message string) error
}

// Client is the WhatsApp gateway client. With no WHATSAPP_API_URL configured
// it runs in dev mode and logs messages instead of sending them.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: strings.TrimRight(os.Getenv("WHATSAPP_API_URL"), "/"),
		token:   os.Getenv("WHATSAPP_API_TOKEN"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SendMessage posts one message to the gateway.
func (c *Client) SendMessage(phone, message string) error {
	if c.baseURL == "" {
		// Dev mode: no gateway configured
		logger.Info(fmt.Sprintf("WhatsApp (dev mode) to %s: %s", phone, message))
		return nil
	}

	reqBody, err := json.Marshal(sendRequest{To: phone, Body: message})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway error: status=%d", resp.StatusCode)
	}

	var sResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err == nil {
		if strings.ToLower(sResp.Status) == "failed" {
			return fmt.Errorf("gateway rejected message: %s", sResp.Message)
		}
	}

	return nil
}
