package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/llm"
)

func TestChatSendsTranscript(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer KEY" {
			t.Fatalf("authorization header = %q, want Bearer KEY", auth)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}],"usage":{"total_tokens":7}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "KEY", "gpt-test", time.Second)
	res, err := c.Chat(context.Background(), llm.Request{Messages: []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "hello"},
	}})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if res.Text != "hi there" {
		t.Fatalf("text = %q, want %q", res.Text, "hi there")
	}
	if res.Usage.TotalTokens != 7 {
		t.Fatalf("total tokens = %d, want 7", res.Usage.TotalTokens)
	}
	if got.Model != "gpt-test" || len(got.Messages) != 2 || got.Messages[1].Content != "hello" {
		t.Fatalf("request mismatch: %#v", got)
	}
}

func TestChatClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		want   llm.ErrorKind
	}{
		{status: http.StatusTooManyRequests, want: llm.KindRateLimited},
		{status: http.StatusUnauthorized, want: llm.KindRateLimited},
		{status: http.StatusBadGateway, want: llm.KindProvider},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"x"}}`))
		}))
		c := New(srv.URL, "", "m", time.Second)
		_, err := c.Chat(context.Background(), llm.Request{})
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if kind := llm.KindOf(err); kind != tc.want {
			t.Fatalf("status %d: kind = %q, want %q", tc.status, kind, tc.want)
		}
		if llm.StatusOf(err) != tc.status {
			t.Fatalf("status %d: StatusOf() = %d", tc.status, llm.StatusOf(err))
		}
	}
}

func TestChatEmptyChoicesIsUnclassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", "m", time.Second).Chat(context.Background(), llm.Request{})
	if err == nil {
		t.Fatalf("expected error for empty choices")
	}
	if llm.KindOf(err) != llm.KindUnclassified {
		t.Fatalf("kind = %q, want unclassified", llm.KindOf(err))
	}
}
