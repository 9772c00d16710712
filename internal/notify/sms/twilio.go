// Package sms sends text messages through the Twilio Messages REST API.
package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"account-service/internal/logging"
)

const (
	defaultTimeout = 15 * time.Second
	// DefaultBaseURL is the Twilio REST API root.
	DefaultBaseURL = "https://api.twilio.com/2010-04-01"
)

// TwilioClient sends SMS via Twilio. Failures are logged here and returned to the caller.
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	HTTPClient *http.Client
	log        *zap.Logger
}

// NewTwilioClient returns a client for the given account. An empty baseURL selects DefaultBaseURL.
func NewTwilioClient(accountSID, authToken, from, baseURL string, log *zap.Logger) *TwilioClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TwilioClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		log:        log,
	}
}

// Send posts body to the Messages endpoint. Does not log the body.
func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	err := c.send(ctx, to, body)
	if err != nil {
		c.log.Error("sms send failed", zap.String("to", logging.MaskAddress(to)), zap.Error(err))
	}
	return err
}

func (c *TwilioClient) send(ctx context.Context, to, body string) error {
	if c.AccountSID == "" || c.AuthToken == "" || c.From == "" {
		return errors.New("sms: twilio credentials not configured")
	}
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.BaseURL, url.PathEscape(c.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
