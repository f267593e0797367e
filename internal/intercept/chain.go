// Package intercept composes ordered interceptor chains around event handlers.
//
// The first interceptor in a chain is the outermost: it sees the event first
// and sees the result of every inner stage last.
package intercept

import (
	"context"
	"sync"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

// Data is the per-event context bag shared by every stage of one dispatch.
type Data struct {
	mu     sync.Mutex
	values map[string]any
}

func NewData() *Data {
	return &Data{values: make(map[string]any)}
}

func (d *Data) Set(key string, v any) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[key] = v
}

func (d *Data) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.values[key]
	return v, ok
}

type Handler func(ctx context.Context, ev *event.Event, data *Data) error

type Interceptor interface {
	Intercept(ctx context.Context, next Handler, ev *event.Event, data *Data) error
}

type InterceptorFunc func(ctx context.Context, next Handler, ev *event.Event, data *Data) error

func (f InterceptorFunc) Intercept(ctx context.Context, next Handler, ev *event.Event, data *Data) error {
	return f(ctx, next, ev, data)
}

// Chain is an immutable ordered list of interceptors.
type Chain struct {
	interceptors []Interceptor
}

func NewChain(interceptors ...Interceptor) Chain {
	out := make([]Interceptor, 0, len(interceptors))
	for _, ic := range interceptors {
		if ic != nil {
			out = append(out, ic)
		}
	}
	return Chain{interceptors: out}
}

func (c Chain) Len() int {
	return len(c.interceptors)
}

// Then wraps h so that every interceptor runs before it, in registration order.
func (c Chain) Then(h Handler) Handler {
	if h == nil {
		h = func(context.Context, *event.Event, *Data) error { return nil }
	}
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		ic := c.interceptors[i]
		next := h
		h = func(ctx context.Context, ev *event.Event, data *Data) error {
			return ic.Intercept(ctx, next, ev, data)
		}
	}
	return h
}
