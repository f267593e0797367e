package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/intercept"
)

// Feature is a routable unit: an event it matches runs through its own chain
// and then its handler.
type Feature struct {
	Name    string
	Match   func(ev *event.Event) bool
	Chain   intercept.Chain
	Handler intercept.Handler
}

type Router struct {
	features []Feature
	handlers []intercept.Handler
	dispatch intercept.Handler
	logger   *slog.Logger
}

// New builds a router over features in priority order. The global chain
// wraps feature selection, so every event passes it exactly once.
func New(global intercept.Chain, features []Feature, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{logger: logger}
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, fmt.Errorf("router: feature without name")
		}
		if seen[name] {
			return nil, fmt.Errorf("router: duplicate feature %q", name)
		}
		if f.Match == nil || f.Handler == nil {
			return nil, fmt.Errorf("router: feature %q needs match and handler", name)
		}
		seen[name] = true
		r.features = append(r.features, f)
		r.handlers = append(r.handlers, f.Chain.Then(f.Handler))
	}
	r.dispatch = global.Then(r.route)
	return r, nil
}

// Dispatch runs ev through the global chain and the first matching feature.
func (r *Router) Dispatch(ctx context.Context, ev *event.Event) error {
	if ev == nil {
		return nil
	}
	return r.dispatch(ctx, ev, intercept.NewData())
}

// Features lists the registered feature names in match order.
func (r *Router) Features() []string {
	out := make([]string, 0, len(r.features))
	for _, f := range r.features {
		out = append(out, f.Name)
	}
	return out
}

func (r *Router) route(ctx context.Context, ev *event.Event, data *intercept.Data) error {
	for i, f := range r.features {
		if !f.Match(ev) {
			continue
		}
		r.logger.Debug("router_feature_matched", "feature", f.Name, "kind", string(ev.Kind), "chat_id", ev.ChatID)
		if err := r.handlers[i](ctx, ev, data); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		return nil
	}
	r.logger.Debug("router_unhandled_event", "kind", string(ev.Kind), "chat_id", ev.ChatID, "event_id", ev.ID)
	return nil
}
