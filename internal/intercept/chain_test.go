package intercept

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

func recorder(name string, trace *[]string) Interceptor {
	return InterceptorFunc(func(ctx context.Context, next Handler, ev *event.Event, data *Data) error {
		*trace = append(*trace, name+">")
		err := next(ctx, ev, data)
		*trace = append(*trace, "<"+name)
		return err
	})
}

func TestChainOrderOutermostFirst(t *testing.T) {
	var trace []string
	chain := NewChain(recorder("a", &trace), nil, recorder("b", &trace), recorder("c", &trace))
	if chain.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (nil skipped)", chain.Len())
	}
	h := chain.Then(func(ctx context.Context, ev *event.Event, data *Data) error {
		trace = append(trace, "handler")
		return nil
	})
	if err := h(context.Background(), &event.Event{}, NewData()); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	got := strings.Join(trace, " ")
	want := "a> b> c> handler <c <b <a"
	if got != want {
		t.Fatalf("trace = %q, want %q", got, want)
	}
}

func TestChainPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	var trace []string
	h := NewChain(recorder("a", &trace)).Then(func(context.Context, *event.Event, *Data) error { return boom })
	if err := h(context.Background(), &event.Event{}, NewData()); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
}

func TestEmptyChainRunsHandler(t *testing.T) {
	called := false
	h := NewChain().Then(func(context.Context, *event.Event, *Data) error {
		called = true
		return nil
	})
	_ = h(context.Background(), &event.Event{}, NewData())
	if !called {
		t.Fatalf("handler was not called")
	}
}

type fakeNotifier struct {
	eventIDs []string
	texts    []string
}

func (f *fakeNotifier) AnswerEphemeral(ctx context.Context, eventID string, text string) error {
	f.eventIDs = append(f.eventIDs, eventID)
	f.texts = append(f.texts, text)
	return nil
}

func TestGateDecisions(t *testing.T) {
	cases := []struct {
		name        string
		decision    Decision
		wantHandler bool
		wantNotices int
	}{
		{name: "forward", decision: ForwardDecision(), wantHandler: true},
		{name: "drop", decision: DropDecision()},
		{name: "notice", decision: NoticeDecision("go away"), wantNotices: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := &fakeNotifier{}
			called := false
			gate := Gate(func(context.Context, *event.Event, *Data) (Decision, error) {
				return tc.decision, nil
			}, n)
			h := NewChain(gate).Then(func(context.Context, *event.Event, *Data) error {
				called = true
				return nil
			})
			if err := h(context.Background(), &event.Event{ID: "cb1"}, NewData()); err != nil {
				t.Fatalf("error = %v", err)
			}
			if called != tc.wantHandler {
				t.Fatalf("handler called = %v, want %v", called, tc.wantHandler)
			}
			if len(n.texts) != tc.wantNotices {
				t.Fatalf("notices = %d, want %d", len(n.texts), tc.wantNotices)
			}
			if tc.wantNotices == 1 && (n.eventIDs[0] != "cb1" || n.texts[0] != "go away") {
				t.Fatalf("notice mismatch: %v %v", n.eventIDs, n.texts)
			}
		})
	}
}

func TestActionString(t *testing.T) {
	if DropWithNotice.String() != "drop_with_notice" || Forward.String() != "forward" {
		t.Fatalf("unexpected action names")
	}
}
