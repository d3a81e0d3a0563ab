// Package notify sends customer messages through the external messaging service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pos-service/pkg/config"
	"pos-service/prometheus"
)

// Forward carries the caller's credentials to the messaging service
type Forward struct {
	Authorization string
	Cookie        string
}

// ForwardFromRequest copies the credential headers of an inbound request
func ForwardFromRequest(r *http.Request) Forward {
	return Forward{
		Authorization: r.Header.Get("Authorization"),
		Cookie:        r.Header.Get("Cookie"),
	}
}

type forwardKey struct{}

// WithForward returns a copy of ctx carrying fwd
func WithForward(ctx context.Context, fwd Forward) context.Context {
	return context.WithValue(ctx, forwardKey{}, fwd)
}

// ForwardFrom returns the Forward carried by ctx, or an empty one
func ForwardFrom(ctx context.Context) Forward {
	fwd, _ := ctx.Value(forwardKey{}).(Forward)
	return fwd
}

// Message is a single outbound text message
type Message struct {
	To     string `json:"to"`
	Text   string `json:"message"`
	Tenant string `json:"tenant,omitempty"`
	Ref    string `json:"ref,omitempty"`
}

// Client posts messages to {BaseURL}/api/messages
type Client struct {
	BaseURL       string
	InternalToken string
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// NewClient creates a client from config. An empty base URL disables sending.
func NewClient(cfg config.NotifyConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		InternalToken: cfg.InternalToken,
		HTTPClient:    &http.Client{Timeout: cfg.Timeout},
		Logger:        logger,
	}
}

// Enabled reports whether a messaging service is configured
func (c *Client) Enabled() bool {
	return c != nil && c.BaseURL != ""
}

// Send posts msg once. Errors are logged and counted here; callers may ignore them.
func (c *Client) Send(ctx context.Context, fwd Forward, msg Message) error {
	if !c.Enabled() {
		prometheus.RecordNotification("skipped")
		return nil
	}
	if msg.To == "" {
		prometheus.RecordNotification("skipped")
		return nil
	}

	err := c.send(ctx, fwd, msg)
	if err != nil {
		prometheus.RecordNotification("failed")
		c.Logger.Warn("Failed to send notification",
			zap.String("to", msg.To),
			zap.String("ref", msg.Ref),
			zap.Error(err))
		return err
	}

	prometheus.RecordNotification("sent")
	c.Logger.Info("Notification sent",
		zap.String("to", msg.To),
		zap.String("ref", msg.Ref))
	return nil
}

func (c *Client) send(ctx context.Context, fwd Forward, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	switch {
	case fwd.Authorization != "" || fwd.Cookie != "":
		if fwd.Authorization != "" {
			req.Header.Set("Authorization", fwd.Authorization)
		}
		if fwd.Cookie != "" {
			req.Header.Set("Cookie", fwd.Cookie)
		}
	case c.InternalToken != "":
		req.Header.Set("Authorization", "Bearer "+c.InternalToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("messaging service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
