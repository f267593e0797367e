package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/intercept"
)

type memArchive struct {
	msgs []event.Message
}

func (m *memArchive) Archive(ctx context.Context, msg event.Message) error {
	m.msgs = append(m.msgs, msg)
	return nil
}

type notices struct {
	texts []string
}

func (n *notices) AnswerEphemeral(ctx context.Context, eventID string, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

type counting struct {
	calls map[string]int
}

func (c *counting) handler(name string) intercept.Handler {
	return func(context.Context, *event.Event, *intercept.Data) error {
		c.calls[name]++
		return nil
	}
}

const botID = 99

func newTestRouter(t *testing.T, arch *memArchive, n *notices, calls *counting) *Router {
	t.Helper()
	global := intercept.NewChain(
		intercept.Archival(arch, intercept.ArchivalOptions{}),
		intercept.CallbackOwnership(func(*event.Event) string { return "This is not your request" }, n),
	)
	features := []Feature{
		{
			Name:    "settings",
			Match:   func(ev *event.Event) bool { return ev.Kind == event.KindCallback },
			Handler: calls.handler("settings"),
		},
		{
			Name:    "chat",
			Match:   func(ev *event.Event) bool { return ev.Kind == event.KindMessage },
			Chain:   intercept.NewChain(intercept.Visibility(botID)),
			Handler: calls.handler("chat"),
		},
		{
			Name:    "fallback",
			Match:   func(ev *event.Event) bool { return ev.Kind == event.KindMessage },
			Handler: calls.handler("fallback"),
		},
	}
	r, err := New(global, features, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestVisibilityDropStillArchives(t *testing.T) {
	arch := &memArchive{}
	calls := &counting{calls: map[string]int{}}
	r := newTestRouter(t, arch, &notices{}, calls)

	ev := &event.Event{Kind: event.KindMessage, ChatID: -1, ChatType: event.ChatGroup, MessageID: 3, FromUserID: 5, Text: "just chatting"}
	if err := r.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if calls.calls["chat"] != 0 {
		t.Fatalf("chat handler calls = %d, want 0", calls.calls["chat"])
	}
	if calls.calls["fallback"] != 0 {
		t.Fatalf("a feature-scoped drop must not fall through, fallback calls = %d", calls.calls["fallback"])
	}
	if len(arch.msgs) != 1 || arch.msgs[0].Text != "just chatting" {
		t.Fatalf("archived = %+v, want the dropped message", arch.msgs)
	}
}

func TestCallbackOwnershipAcrossChats(t *testing.T) {
	payload := &event.CallbackData{Prefix: "set", UserID: 1, Button: "erase"}
	cases := []struct {
		name        string
		chatType    string
		presser     int64
		wantHandler int
		wantNotices int
	}{
		{name: "group other user", chatType: event.ChatGroup, presser: 2, wantHandler: 0, wantNotices: 1},
		{name: "group owner", chatType: event.ChatGroup, presser: 1, wantHandler: 1, wantNotices: 0},
		{name: "private other user", chatType: event.ChatPrivate, presser: 2, wantHandler: 1, wantNotices: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := &notices{}
			calls := &counting{calls: map[string]int{}}
			r := newTestRouter(t, &memArchive{}, n, calls)
			ev := &event.Event{
				Kind:         event.KindCallback,
				ID:           "cb",
				ChatType:     tc.chatType,
				FromUserID:   tc.presser,
				CallbackData: payload.Pack(),
				Callback:     payload,
			}
			if err := r.Dispatch(context.Background(), ev); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if calls.calls["settings"] != tc.wantHandler {
				t.Fatalf("handler calls = %d, want %d", calls.calls["settings"], tc.wantHandler)
			}
			if len(n.texts) != tc.wantNotices {
				t.Fatalf("notices = %v, want %d", n.texts, tc.wantNotices)
			}
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	calls := &counting{calls: map[string]int{}}
	r := newTestRouter(t, &memArchive{}, &notices{}, calls)
	ev := &event.Event{Kind: event.KindMessage, ChatType: event.ChatPrivate, Text: "hi"}
	_ = r.Dispatch(context.Background(), ev)
	if calls.calls["chat"] != 1 || calls.calls["fallback"] != 0 {
		t.Fatalf("calls = %v", calls.calls)
	}
	if got := strings.Join(r.Features(), ","); got != "settings,chat,fallback" {
		t.Fatalf("Features() = %q", got)
	}
}

func TestUnmatchedEventIgnored(t *testing.T) {
	calls := &counting{calls: map[string]int{}}
	r := newTestRouter(t, &memArchive{}, &notices{}, calls)
	if err := r.Dispatch(context.Background(), &event.Event{Kind: event.KindReaction}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(calls.calls) != 0 {
		t.Fatalf("calls = %v, want none", calls.calls)
	}
}

func TestHandlerErrorNamesFeature(t *testing.T) {
	boom := errors.New("boom")
	r, err := New(intercept.NewChain(), []Feature{{
		Name:    "chat",
		Match:   func(*event.Event) bool { return true },
		Handler: func(context.Context, *event.Event, *intercept.Data) error { return boom },
	}}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	err = r.Dispatch(context.Background(), &event.Event{})
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "chat: ") {
		t.Fatalf("Dispatch() error = %v", err)
	}
}

func TestNewRejectsBadFeatures(t *testing.T) {
	h := func(context.Context, *event.Event, *intercept.Data) error { return nil }
	match := func(*event.Event) bool { return true }
	cases := map[string][]Feature{
		"unnamed":   {{Match: match, Handler: h}},
		"duplicate": {{Name: "a", Match: match, Handler: h}, {Name: "a", Match: match, Handler: h}},
		"no match":  {{Name: "a", Handler: h}},
	}
	for name, features := range cases {
		if _, err := New(intercept.NewChain(), features, nil); err == nil {
			t.Fatalf("%s: New() error = nil", name)
		}
	}
}
