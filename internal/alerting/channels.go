package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Channel delivers a fired event to one destination. Send never returns an
// error; the outcome is captured in the ChannelResult so the engine can
// aggregate the all-or-nothing delivered flag.
type Channel interface {
	Name() string
	Send(ctx context.Context, event *model.AlertEvent) model.ChannelResult
}

// SlackChannel posts a formatted text message to a Slack incoming webhook.
type SlackChannel struct {
	webhookURL string
	client     *http.Client
}

func NewSlackChannel(webhookURL string) *SlackChannel {
	return &SlackChannel{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackChannel) Name() string { return "slack" }

func (s *SlackChannel) Send(ctx context.Context, event *model.AlertEvent) model.ChannelResult {
	var b strings.Builder
	fmt.Fprintf(&b, "*[%s]* %s\n%s", strings.ToUpper(string(event.Severity)), event.RuleName, event.Message)
	if event.CompanyID != "" {
		fmt.Fprintf(&b, "\nempresa: %s", event.CompanyID)
	}
	if event.Vendor != "" {
		fmt.Fprintf(&b, "\nprovedor: %s", event.Vendor)
	}

	status, err := postJSON(ctx, s.client, s.webhookURL, map[string]string{"text": b.String()})
	return channelResult(s.Name(), status, err)
}

// WebhookChannel posts the raw event JSON to an arbitrary endpoint.
type WebhookChannel struct {
	url    string
	client *http.Client
}

func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookChannel) Name() string { return "webhook" }

func (w *WebhookChannel) Send(ctx context.Context, event *model.AlertEvent) model.ChannelResult {
	status, err := postJSON(ctx, w.client, w.url, event)
	return channelResult(w.Name(), status, err)
}

// EmailChannel sends the event as an HTML mail over SMTP.
type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

func NewEmailChannel(host string, port int, username, password, from string, to []string) *EmailChannel {
	return &EmailChannel{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Send(_ context.Context, event *model.AlertEvent) model.ChannelResult {
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(event.Severity)), event.RuleName)
	body := fmt.Sprintf(
		"<h3>%s</h3><p>%s</p><p><small>regra: %s | disparado em: %s</small></p>",
		subject, event.Message, event.RuleName, event.CreatedAt.Format(time.RFC3339),
	)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", e.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(e.to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	if err := smtp.SendMail(addr, auth, e.from, e.to, msg.Bytes()); err != nil {
		return model.ChannelResult{Channel: e.Name(), OK: false, Error: err.Error()}
	}
	return model.ChannelResult{Channel: e.Name(), OK: true}
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) (int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func channelResult(name string, status int, err error) model.ChannelResult {
	res := model.ChannelResult{Channel: name, Status: status, OK: err == nil}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
