package intercept

import (
	"context"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
)

type Action int

const (
	Forward Action = iota
	Drop
	DropWithNotice
)

func (a Action) String() string {
	switch a {
	case Forward:
		return "forward"
	case Drop:
		return "drop"
	case DropWithNotice:
		return "drop_with_notice"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action Action
	Notice string
}

func ForwardDecision() Decision { return Decision{Action: Forward} }

func DropDecision() Decision { return Decision{Action: Drop} }

func NoticeDecision(text string) Decision {
	return Decision{Action: DropWithNotice, Notice: text}
}

// Notifier answers an event ephemerally, only visible to its sender.
type Notifier interface {
	AnswerEphemeral(ctx context.Context, eventID string, text string) error
}

// GateFunc decides admission without wrapping the rest of the chain.
type GateFunc func(ctx context.Context, ev *event.Event, data *Data) (Decision, error)

// Gate turns a decision function into an interceptor. DropWithNotice answers
// the event through notifier before dropping it.
func Gate(decide GateFunc, notifier Notifier) Interceptor {
	return InterceptorFunc(func(ctx context.Context, next Handler, ev *event.Event, data *Data) error {
		dec, err := decide(ctx, ev, data)
		if err != nil {
			return err
		}
		switch dec.Action {
		case Forward:
			return next(ctx, ev, data)
		case DropWithNotice:
			if notifier == nil || ev == nil {
				return nil
			}
			return notifier.AnswerEphemeral(ctx, ev.ID, dec.Notice)
		default:
			return nil
		}
	})
}
