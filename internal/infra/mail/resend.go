package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainMail "groona_alerts/internal/domain/mail"
)

// ResendClient talks to the Resend REST API. One request per call; the
// caller decides whether to try again.
type ResendClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewResendClient(baseURL, apiKey string) *ResendClient {
	return &ResendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type resendSendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendSendResponse struct {
	ID string `json:"id"`
}

type resendEmail struct {
	ID        string   `json:"id"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	LastEvent string   `json:"last_event"`
	CreatedAt string   `json:"created_at"`
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("resend: %d %s: %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("resend: %d %s", e.StatusCode, e.Message)
}

func (c *ResendClient) Send(ctx context.Context, msg domainMail.Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("resend: message has no recipients")
	}
	var out resendSendResponse
	err := c.do(ctx, http.MethodPost, "/emails", resendSendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *ResendClient) Status(ctx context.Context, id string) (*domainMail.Delivery, error) {
	if id == "" {
		return nil, fmt.Errorf("resend: email id is required")
	}
	var out resendEmail
	if err := c.do(ctx, http.MethodGet, "/emails/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	d := &domainMail.Delivery{ID: out.ID, To: out.To, Subject: out.Subject, LastEvent: out.LastEvent}
	if out.CreatedAt != "" {
		// Resend uses "2006-01-02 15:04:05.999999+00" as well as RFC 3339.
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07", "2006-01-02 15:04:05.999999+00"} {
			if t, err := time.Parse(layout, out.CreatedAt); err == nil {
				d.CreatedAt = t
				break
			}
		}
	}
	return d, nil
}

func (c *ResendClient) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
	}
	return nil
}
