package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

func TestPollerDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	served := 0
	_, api := newFake(t, func(method string, body map[string]any) (int, string) {
		mu.Lock()
		defer mu.Unlock()
		served++
		switch served {
		case 1:
			return 500, `oops`
		case 2:
			return 200, `{"ok":true,"result":[
				{"update_id":1,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"text":"first"}},
				{"update_id":2,"message":{"message_id":2,"chat":{"id":5,"type":"private"},"text":"second"}}]}`
		default:
			return 200, `{"ok":true,"result":[]}`
		}
	})
	p := NewPoller(api, PollerOptions{PollTimeout: time.Second, ErrorBackoff: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan event.Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(ev event.Event) { got <- ev })
	}()

	var texts []string
	for len(texts) < 2 {
		select {
		case ev := <-got:
			texts = append(texts, ev.Text)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", texts)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if texts[0] != "first" || texts[1] != "second" {
		t.Fatalf("texts = %v", texts)
	}
	if p.offset != 3 {
		t.Fatalf("offset = %d, want 3", p.offset)
	}
}

func TestPollerStopsOnUnauthorized(t *testing.T) {
	_, api := newFake(t, func(method string, body map[string]any) (int, string) {
		return 401, `{"ok":false,"error_code":401,"description":"Unauthorized"}`
	})
	err := NewPoller(api, PollerOptions{}).Run(context.Background(), func(event.Event) {})
	if !IsUnauthorized(err) {
		t.Fatalf("Run() error = %v, want unauthorized", err)
	}
}
