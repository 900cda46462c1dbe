// Package notifier delivers user-facing notices raised when an optimistic
// action is rolled back or a background refresh fails.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/logger"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is an alert-level message for the user.
type Notice struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func Errorf(title, format string, args ...any) Notice {
	return Notice{Level: LevelError, Title: title, Message: fmt.Sprintf(format, args...), Time: time.Now()}
}

func Info(title, message string) Notice {
	return Notice{Level: LevelInfo, Title: title, Message: message, Time: time.Now()}
}

type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Console prints notices to a writer, stderr by default.
type Console struct {
	mu  sync.Mutex
	Out io.Writer
}

func NewConsole() *Console {
	return &Console{Out: os.Stderr}
}

func (c *Console) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	style := infoStyle
	prefix := "ℹ"
	if n.Level == LevelError {
		style = errorStyle
		prefix = "❌"
	}
	fmt.Fprintln(c.Out, style.Render(fmt.Sprintf("%s %s: %s", prefix, n.Title, n.Message)))
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, x := range m {
		if x != nil {
			x.Notify(n)
		}
	}
}

type WebhookPayload struct {
	Text       string `json:"text"`
	Level      Level  `json:"level"`
	DurationMs uint32 `json:"duration_ms"`
}

// Webhook posts notices as JSON to a user-configured endpoint. Delivery
// failures are logged, never returned.
type Webhook struct {
	URL    string
	Secret string
	Client *http.Client
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (w *Webhook) Notify(n Notice) {
	if err := w.Send(context.Background(), n); err != nil {
		logger.Warn("Failed to deliver notice", "url", w.URL, "error", err)
	}
}

func (w *Webhook) Send(ctx context.Context, n Notice) error {
	payload := WebhookPayload{
		Text:       fmt.Sprintf("%s: %s", n.Title, n.Message),
		Level:      n.Level,
		DurationMs: constants.NotificationDurationMs,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Secret != "" {
		req.Header.Set(constants.WebhookSecretHeader, w.Secret)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
