package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/golang/glog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"io"
	"net/http"
	"time"
)

// Sender delivers one text message to a messaging channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, content string) error
}

// Notifier formats price messages and hands them to every configured sender.
type Notifier struct {
	senders   []Sender
	eventName string
	buyURL    string
	printer   *message.Printer
}

// NewNotifier with no senders is valid; Notify is then a no-op.
func NewNotifier(eventName, buyURL string, senders ...Sender) *Notifier {
	return &Notifier{
		senders:   senders,
		eventName: eventName,
		buyURL:    buyURL,
		printer:   message.NewPrinter(language.AmericanEnglish),
	}
}

func (n *Notifier) Enabled() bool { return len(n.senders) > 0 }

// Notify is best-effort: delivery failures are logged and dropped, never retried.
func (n *Notifier) Notify(ctx context.Context, price decimal.Decimal, alert bool) {
	if !n.Enabled() {
		return
	}
	content := n.FormatMessage(price, alert)
	for _, s := range n.senders {
		if err := s.Send(ctx, content); err != nil {
			glog.Warningf("notifier: %s: %v", s.Name(), err)
			continue
		}
		glog.V(1).Infof("notifier: %s delivered (alert=%t)", s.Name(), alert)
	}
}

// FormatMessage 根据是否触发提醒生成不同的消息
func (n *Notifier) FormatMessage(price decimal.Decimal, alert bool) string {
	// 金额带千分位，例如 $1,204.50
	amount := n.printer.Sprintf("%.2f", price.Round(2).InexactFloat64())
	if alert {
		return fmt.Sprintf("🚨 **TICKET DROP ALERT!** 🚨\n%s is down to **$%s**!\nBuy here: %s", n.eventName, amount, n.buyURL)
	}
	return fmt.Sprintf("ℹ️ **Hourly Update:** The current lowest price is **$%s**.", amount)
}

// WebhookSender posts {"content": ...} to a chat webhook (Discord style).
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *WebhookSender) Name() string { return "webhook" }

func (s *WebhookSender) Send(ctx context.Context, content string) error {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: %w %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
