package chatlog

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/db"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/db/models"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := db.DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "chatlog.sqlite")
	gdb, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	s, err := New(gdb)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 2, 8, 23, 59, 0, 0, time.UTC) }
	return s
}

func TestArchiveAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := event.Message{ChatID: -100, MessageID: 5, FromUserID: 42, Text: "hello", ReplyToMessageID: 3}
	if err := s.Archive(ctx, msg); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	msg.Text = "hello (edited)"
	if err := s.Archive(ctx, msg); err != nil {
		t.Fatalf("Archive() re-archive error = %v", err)
	}

	got, ok, err := s.Lookup(ctx, -100, 5, 77)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok {
		t.Fatalf("Lookup() found = false, want true")
	}
	if got.Text != "hello (edited)" || got.FromUserID != 42 || got.ReplyToMessageID != 3 {
		t.Fatalf("Lookup() = %#v", got)
	}

	var rows int64
	s.db.Model(&models.Message{}).Count(&rows)
	if rows != 1 {
		t.Fatalf("archived rows = %d, want 1", rows)
	}

	if _, ok, err := s.Lookup(ctx, -100, 6, 42); err != nil || ok {
		t.Fatalf("Lookup() missing message = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestArchiveRequiresIDs(t *testing.T) {
	s := newTestStore(t)
	if err := s.Archive(context.Background(), event.Message{Text: "x"}); err == nil {
		t.Fatalf("Archive() expected error without ids")
	}
}

func TestIncrementCounterAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.IncrementCounter(ctx, 1, "text_requests"); err != nil {
				t.Errorf("IncrementCounter() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if err := s.IncrementCounter(ctx, 2, "text_requests"); err != nil {
		t.Fatalf("IncrementCounter() error = %v", err)
	}
	if err := s.IncrementCounter(ctx, 2, "reactions"); err != nil {
		t.Fatalf("IncrementCounter() error = %v", err)
	}
	if err := s.Archive(ctx, event.Message{ChatID: 1, MessageID: 1, Text: "a"}); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	summary, err := s.StatsSummary(ctx)
	if err != nil {
		t.Fatalf("StatsSummary() error = %v", err)
	}
	for _, want := range []string{
		"Statistics for 2026-02-08",
		"reactions: 1 (1 users)",
		"text_requests: 11 (2 users)",
		"Active users today: 2",
		"Archived messages: 1",
	} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Index(summary, "reactions") > strings.Index(summary, "text_requests") {
		t.Fatalf("categories should be sorted:\n%s", summary)
	}
}

func TestStatsSummaryEmpty(t *testing.T) {
	s := newTestStore(t)
	summary, err := s.StatsSummary(context.Background())
	if err != nil {
		t.Fatalf("StatsSummary() error = %v", err)
	}
	if !strings.Contains(summary, "No requests today.") {
		t.Fatalf("summary = %q", summary)
	}
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		if err := s.Archive(ctx, event.Message{ChatID: 1, MessageID: i, Text: "a"}); err != nil {
			t.Fatalf("Archive() error = %v", err)
		}
	}
	if err := s.Purge(ctx, TableMessages); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	var rows int64
	s.db.Model(&models.Message{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("rows after purge = %d, want 0", rows)
	}
	if err := s.Purge(ctx, "users; DROP TABLE messages"); err == nil {
		t.Fatalf("Purge() expected error for unknown table")
	}
}
