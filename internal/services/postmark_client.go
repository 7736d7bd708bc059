package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultPostmarkURL = "https://api.postmarkapp.com"

// PostmarkClient sends transactional email through the Postmark HTTP
// API. The call is synchronous; callers decide whether a failure is
// fatal to their request.
type PostmarkClient struct {
	baseURL     string
	serverToken string
	from        string
	httpClient  *http.Client
}

func NewPostmarkClient(serverToken, from string) *PostmarkClient {
	return &PostmarkClient{
		baseURL:     defaultPostmarkURL,
		serverToken: serverToken,
		from:        from,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *PostmarkClient) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

func (c *PostmarkClient) SetBaseURL(u string) {
	if strings.TrimSpace(u) != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func (c *PostmarkClient) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	if strings.TrimSpace(c.serverToken) == "" {
		return errors.New("postmark server token is required")
	}

	payload := map[string]string{
		"From":          c.from,
		"To":            to,
		"Subject":       subject,
		"HtmlBody":      htmlBody,
		"MessageStream": "outbound",
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("postmark send failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
