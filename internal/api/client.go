// Package api is the HTTP client for the SageAlpha backend. All product
// functionality lives behind that service; this package only speaks its
// JSON contract and normalizes its error shapes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to one backend origin on behalf of one persona.
type Client struct {
	http      *resty.Client
	assistant Assistant
	topK      int
}

// New creates a backend client. clientID, when non-empty, is attached to
// every request as the anonymous device id the backend meters usage by.
func New(baseURL string, assistant Assistant, clientID string, timeout time.Duration) *Client {
	http := resty.New()
	http.SetBaseURL(baseURL)
	http.SetTimeout(timeout)
	if clientID != "" {
		http.SetHeader("x-demo-id", clientID)
	}

	return &Client{
		http:      http,
		assistant: assistant,
		topK:      5,
	}
}

// Assistant returns the persona this client is pointed at.
func (c *Client) Assistant() Assistant {
	return c.assistant
}

// Chat sends one conversational message and returns the assistant's reply.
// The general persona threads a session id through the exchange; the other
// personas are stateless query routes.
func (c *Client) Chat(ctx context.Context, message, sessionID string) (*ChatResult, error) {
	var body interface{}
	if c.assistant == AssistantGeneral {
		body = chatRequest{Message: message, SessionID: sessionID, TopK: c.topK}
	} else {
		body = queryRequest{Query: message}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.assistant.ChatPath())
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if resp.IsError() {
		return nil, chatError(resp)
	}

	var data chatResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("unexpected response format: %w", err)
	}
	if data.Code == usageLimitCode {
		return nil, ErrUsageLimitReached
	}
	if answer := firstNonEmpty(data.Response, data.Reply, data.Answer); answer != "" {
		return &ChatResult{Response: answer, SessionID: data.SessionID}, nil
	}
	if data.Error != "" {
		return nil, fmt.Errorf("%s", data.Error)
	}
	return nil, fmt.Errorf("unexpected response format")
}

// CreateReport asks the backend to generate an equity research report for a
// company and returns the report announcement text, which carries the
// download link.
func (c *Client) CreateReport(ctx context.Context, companyName, sessionID string) (*ChatResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reportRequest{CompanyName: companyName, SessionID: sessionID}).
		Post("/chat/create-report")
	if err != nil {
		return nil, fmt.Errorf("report request failed: %w", err)
	}

	if resp.IsError() {
		return nil, chatError(resp)
	}

	var data chatResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("unexpected response format: %w", err)
	}
	if data.Code == usageLimitCode {
		return nil, ErrUsageLimitReached
	}
	if data.Success && data.Response != "" {
		return &ChatResult{Response: data.Response, SessionID: data.SessionID}, nil
	}
	if data.Error != "" {
		return nil, fmt.Errorf("%s", data.Error)
	}
	return nil, fmt.Errorf("unexpected response format")
}

// Upload sends one file as a multipart request and returns the stored
// document's descriptor.
func (c *Client) Upload(ctx context.Context, path string) (*Upload, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", path).
		Post("/upload")
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("upload failed: %s", resp.Status())
	}

	var up Upload
	if err := json.Unmarshal(resp.Body(), &up); err != nil {
		return nil, fmt.Errorf("parse upload response: %w", err)
	}
	return &up, nil
}

// MarketIntelligence fetches the structured intelligence payload for a
// ticker symbol.
func (c *Client) MarketIntelligence(ctx context.Context, ticker string) (*Intelligence, error) {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(intelligenceRequest{Ticker: ticker}).
		Post("/api/market-intelligence")
	if err != nil {
		return nil, fmt.Errorf("market intelligence request failed: %w", err)
	}

	if resp.IsError() {
		var e errorResponse
		if json.Unmarshal(resp.Body(), &e) == nil {
			if msg := firstNonEmpty(e.Message, e.Error); msg != "" {
				return nil, fmt.Errorf("%s", msg)
			}
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.Status())
	}

	var env intelligenceEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("parse market intelligence response: %w", err)
	}
	if env.Status != "success" || env.Data == nil {
		if env.Message != "" {
			return nil, fmt.Errorf("%s", env.Message)
		}
		return nil, fmt.Errorf("invalid response format from server")
	}
	return env.Data, nil
}

// UsageStatus reports how much of the free tier the caller has consumed.
func (c *Client) UsageStatus(ctx context.Context) (*UsageStatus, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/usage/status")
	if err != nil {
		return nil, fmt.Errorf("usage status request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("usage status failed: %s", resp.Status())
	}

	var status UsageStatus
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return nil, fmt.Errorf("parse usage status: %w", err)
	}
	return &status, nil
}

// SharedChat loads the read-only transcript behind a share link. Unknown and
// lapsed links map to distinct sentinel errors so the caller can render
// dedicated states for each.
func (c *Client) SharedChat(ctx context.Context, shareID string) (*SharedChat, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/share/" + shareID)
	if err != nil {
		return nil, fmt.Errorf("shared chat request failed: %w", err)
	}

	switch resp.StatusCode() {
	case 404:
		return nil, ErrShareNotFound
	case 410:
		return nil, ErrShareExpired
	}
	if resp.IsError() {
		var e errorResponse
		if json.Unmarshal(resp.Body(), &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s", e.Error)
		}
		return nil, fmt.Errorf("failed to load shared chat: %s", resp.Status())
	}

	var shared SharedChat
	if err := json.Unmarshal(resp.Body(), &shared); err != nil {
		return nil, fmt.Errorf("parse shared chat: %w", err)
	}
	return &shared, nil
}

// Session loads a stored conversation's transcript.
func (c *Client) Session(ctx context.Context, sessionID string) ([]Message, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/sessions/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to load session: %s", resp.Status())
	}

	var data sessionResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return data.Session.Messages, nil
}

// DownloadReport fetches a generated report PDF into destDir and returns the
// written path.
func (c *Client) DownloadReport(ctx context.Context, reportID, destDir string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/reports/download/" + reportID)
	if err != nil {
		return "", fmt.Errorf("report download failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("report download failed: %s", resp.Status())
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	dest := filepath.Join(destDir, fmt.Sprintf("sagealpha-report-%s.pdf", reportID))
	if err := os.WriteFile(dest, resp.Body(), 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return dest, nil
}

// SendReportEmail asks the backend to deliver a generated report by email.
func (c *Client) SendReportEmail(ctx context.Context, reportID, email string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendEmailRequest{Email: strings.TrimSpace(email), ReportID: reportID}).
		Post("/report/send-email")
	if err != nil {
		return fmt.Errorf("send report failed: %w", err)
	}

	var data struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	parseErr := json.Unmarshal(resp.Body(), &data)
	if resp.IsError() || parseErr != nil || !data.Success {
		if msg := firstNonEmpty(data.Error, data.Message); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("failed to send report")
	}
	return nil
}

// chatError normalizes a non-2xx chat-style response, mapping the reserved
// usage-limit code to its sentinel.
func chatError(resp *resty.Response) error {
	var e errorResponse
	if json.Unmarshal(resp.Body(), &e) == nil {
		if e.Code == usageLimitCode {
			return ErrUsageLimitReached
		}
		if msg := firstNonEmpty(e.Message, e.Error); msg != "" {
			return fmt.Errorf("%s", msg)
		}
	}
	if resp.Status() != "" {
		return fmt.Errorf("%s", resp.Status())
	}
	return fmt.Errorf("something went wrong, please try again")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
