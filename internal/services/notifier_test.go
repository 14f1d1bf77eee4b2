package services

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/kylelemons/godebug/pretty"
	"github.com/shopspring/decimal"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const listingURL = "https://www.maizetix.com/games/398"

type recordingSender struct {
	name     string
	err      error
	messages []string
}

func (s *recordingSender) Name() string { return s.name }

func (s *recordingSender) Send(ctx context.Context, content string) error {
	s.messages = append(s.messages, content)
	return s.err
}

func TestFormatMessage(t *testing.T) {
	n := NewNotifier("Michigan vs MSU", listingURL)

	tests := []struct {
		price string
		alert bool
		want  string
	}{
		{
			price: "65.5",
			alert: true,
			want:  "🚨 **TICKET DROP ALERT!** 🚨\nMichigan vs MSU is down to **$65.50**!\nBuy here: " + listingURL,
		},
		{
			price: "75",
			alert: false,
			want:  "ℹ️ **Hourly Update:** The current lowest price is **$75.00**.",
		},
		{
			price: "1204.499",
			alert: false,
			want:  "ℹ️ **Hourly Update:** The current lowest price is **$1,204.50**.",
		},
	}

	for _, test := range tests {
		got := n.FormatMessage(decimal.RequireFromString(test.price), test.alert)
		if got != test.want {
			t.Errorf("FormatMessage(%s, %t) = %q, want %q", test.price, test.alert, got, test.want)
		}
	}
}

func TestNotifyFansOutAndSwallowsErrors(t *testing.T) {
	failing := &recordingSender{name: "broken", err: errors.New("connection refused")}
	ok := &recordingSender{name: "ok"}
	n := NewNotifier("Michigan vs MSU", listingURL, failing, ok)

	n.Notify(context.Background(), decimal.RequireFromString("65.00"), true)

	if len(failing.messages) != 1 || len(ok.messages) != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", len(failing.messages), len(ok.messages))
	}
	if ok.messages[0] != n.FormatMessage(decimal.RequireFromString("65.00"), true) {
		t.Errorf("unexpected message %q", ok.messages[0])
	}
}

func TestNotifyWithoutSendersIsNoop(t *testing.T) {
	n := NewNotifier("Michigan vs MSU", listingURL)
	if n.Enabled() {
		t.Fatal("notifier without senders reports enabled")
	}
	n.Notify(context.Background(), decimal.RequireFromString("65.00"), true)
}

func TestWebhookSender(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []map[string]string
		ctype    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		ctype = r.Header.Get("Content-Type")
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		payloads = append(payloads, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier("Michigan vs MSU", listingURL, NewWebhookSender(srv.URL, 5*time.Second))
	n.Notify(context.Background(), decimal.RequireFromString("75.00"), false)

	mu.Lock()
	defer mu.Unlock()
	want := []map[string]string{
		{"content": "ℹ️ **Hourly Update:** The current lowest price is **$75.00**."},
	}
	if diff := pretty.Compare(want, payloads); diff != "" {
		t.Errorf("payloads -want +got:\n%s", diff)
	}
	if ctype != "application/json" {
		t.Errorf("Content-Type = %q", ctype)
	}
}

func TestWebhookSenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL, 5*time.Second).Send(context.Background(), "hi")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("err = %v, want ErrUnexpectedStatus", err)
	}
}
