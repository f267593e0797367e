package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/outputfmt"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/session"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/texts"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/llm"
	"github.com/google/uuid"
)

// MaxAttempts is the number of provider calls made for one request before
// the exchange gives up.
const MaxAttempts = 4

var ErrEmptyPrompt = errors.New("conversation: empty prompt")

// Replier is the outbound side of the chat platform.
type Replier interface {
	Send(ctx context.Context, chatID int64, text string, opts event.SendOptions) (event.Message, error)
	Edit(ctx context.Context, h event.MessageHandle, text string) (event.Message, error)
}

type Archiver interface {
	Archive(ctx context.Context, msg event.Message) error
}

type Options struct {
	Sessions *session.Store
	Client   llm.Client
	Model    string
	Replier  Replier
	Archiver Archiver
	Texts    *texts.Catalog

	// OperatorIDs receive provider and delivery errors.
	OperatorIDs []int64
	// StrictStatus sends only 429 and 401 down the rate-limit path. When
	// false every status error does.
	StrictStatus   bool
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type Controller struct {
	sessions       *session.Store
	client         llm.Client
	model          string
	replier        Replier
	archiver       Archiver
	texts          *texts.Catalog
	operators      []int64
	strict         bool
	requestTimeout time.Duration
	logger         *slog.Logger
	newID          func() string
}

func New(opts Options) (*Controller, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("conversation: missing session store")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("conversation: missing llm client")
	}
	if opts.Replier == nil {
		return nil, fmt.Errorf("conversation: missing replier")
	}
	catalog := opts.Texts
	if catalog == nil {
		catalog = texts.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sessions:       opts.Sessions,
		client:         opts.Client,
		model:          strings.TrimSpace(opts.Model),
		replier:        opts.Replier,
		archiver:       opts.Archiver,
		texts:          catalog,
		operators:      append([]int64(nil), opts.OperatorIDs...),
		strict:         opts.StrictStatus,
		requestTimeout: opts.RequestTimeout,
		logger:         logger,
		newID:          newRequestID,
	}, nil
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

type pendingRequest struct {
	id          string
	ev          *event.Event
	prompt      string
	placeholder event.MessageHandle
	retry       int
	attempts    int
	state       State
	shown       string
	lastReply   string
}

// Handle runs one exchange for ev: it posts a placeholder, asks the provider
// with the user's transcript and edits the placeholder until the answer is
// delivered or the attempt ceiling is hit. The returned error is set only
// when the placeholder itself could not be posted.
func (c *Controller) Handle(ctx context.Context, ev *event.Event) (Outcome, error) {
	req := &pendingRequest{
		id:     c.newID(),
		ev:     ev,
		prompt: ComposePrompt(ev),
		state:  StateDrafting,
	}
	if strings.TrimSpace(req.prompt) == "" {
		return req.outcome(), ErrEmptyPrompt
	}
	logger := c.logger.With("request_id", req.id, "chat_id", ev.ChatID, "user_id", ev.FromUserID)

	generating := c.text(ev, texts.Generating)
	placeholder, err := c.replier.Send(ctx, ev.ChatID, generating, event.SendOptions{ReplyToMessageID: ev.MessageID})
	if err != nil {
		return req.outcome(), fmt.Errorf("send placeholder: %w", err)
	}
	req.placeholder = placeholder.Handle()
	req.shown = generating

	c.sessions.Append(ev.FromUserID, llm.Message{Role: llm.RoleUser, Content: req.prompt})

	for !req.state.Terminal() {
		if req.retry >= MaxAttempts {
			c.edit(ctx, logger, req, c.text(ev, texts.NoProvider))
			c.transition(logger, req, StateFatal)
			break
		}
		c.attempt(ctx, logger, req)
	}
	logger.Info("chat_request_done", "state", string(req.state), "attempts", req.attempts)
	return req.outcome(), nil
}

func (c *Controller) attempt(ctx context.Context, logger *slog.Logger, req *pendingRequest) {
	c.transition(logger, req, StateAwaitingProvider)
	req.attempts++

	reply, err := c.complete(ctx, req)
	if err == nil {
		req.lastReply = reply
		err = c.deliver(ctx, req, reply)
		if err == nil {
			c.sessions.Append(req.ev.FromUserID, llm.Message{Role: llm.RoleAssistant, Content: reply})
			c.transition(logger, req, StateDelivered)
			return
		}
	}

	switch {
	case llm.IsRateLimited(err) || (!c.strict && llm.HasStatus(err)):
		req.retry++
		logger.Warn("chat_request_retry", "branch", "rate_limited", "attempt", req.attempts, "error", err.Error())
		c.edit(ctx, logger, req, c.text(req.ev, texts.TooManyRequests))
		c.transition(logger, req, StateRateLimited)
	case llm.KindOf(err) == llm.KindProvider:
		req.retry++
		logger.Warn("chat_request_retry", "branch", "provider", "attempt", req.attempts, "error", err.Error())
		c.notifyOperators(ctx, logger, err)
		c.edit(ctx, logger, req, c.text(req.ev, texts.NotHandled))
		c.transition(logger, req, StateTransientError)
	default:
		c.notifyOperators(ctx, logger, err)
		if isMessageTooLong(err) && req.lastReply != "" {
			splitErr := c.deliverSplit(ctx, req, req.lastReply)
			if splitErr == nil {
				c.sessions.Append(req.ev.FromUserID, llm.Message{Role: llm.RoleAssistant, Content: req.lastReply})
				c.transition(logger, req, StateDeliveredSplit)
				return
			}
			logger.Warn("chat_split_delivery_error", "error", splitErr.Error())
		}
		req.retry++
		logger.Warn("chat_request_retry", "branch", "unclassified", "attempt", req.attempts, "error", err.Error())
		c.edit(ctx, logger, req, c.text(req.ev, texts.SomeProblem))
		c.transition(logger, req, StateTransientError)
	}
}

func (c *Controller) complete(ctx context.Context, req *pendingRequest) (string, error) {
	callCtx := ctx
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	res, err := c.client.Chat(callCtx, llm.Request{
		Model:    c.model,
		Messages: c.sessions.History(req.ev.FromUserID),
	})
	if err != nil {
		return "", err
	}
	return BalanceFences(res.Text), nil
}

func (c *Controller) deliver(ctx context.Context, req *pendingRequest, text string) error {
	msg, err := c.replier.Edit(ctx, req.placeholder, text)
	if err != nil {
		return err
	}
	req.shown = text
	c.archive(ctx, msg)
	return nil
}

func (c *Controller) deliverSplit(ctx context.Context, req *pendingRequest, text string) error {
	head, tail := splitHalf(text)
	if err := c.deliver(ctx, req, head); err != nil {
		return err
	}
	msg, err := c.replier.Send(ctx, req.placeholder.ChatID, tail, event.SendOptions{ReplyToMessageID: req.placeholder.MessageID})
	if err != nil {
		return err
	}
	c.archive(ctx, msg)
	return nil
}

func (c *Controller) archive(ctx context.Context, msg event.Message) {
	if c.archiver == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	if err := c.archiver.Archive(ctx, msg); err != nil {
		c.logger.Warn("archive_reply_error", "chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err.Error())
	}
}

// edit shows a notice in the placeholder. Failures are only logged.
func (c *Controller) edit(ctx context.Context, logger *slog.Logger, req *pendingRequest, text string) {
	if text == req.shown {
		return
	}
	if _, err := c.replier.Edit(ctx, req.placeholder, text); err != nil {
		logger.Warn("chat_placeholder_edit_error", "error", err.Error())
		return
	}
	req.shown = text
}

func (c *Controller) notifyOperators(ctx context.Context, logger *slog.Logger, cause error) {
	if cause == nil {
		return
	}
	for _, id := range c.operators {
		if _, err := c.replier.Send(ctx, id, outputfmt.FormatErrorForDisplay(cause), event.SendOptions{}); err != nil {
			logger.Warn("operator_notify_error", "operator_id", id, "error", err.Error())
		}
	}
}

func (c *Controller) transition(logger *slog.Logger, req *pendingRequest, next State) {
	logger.Debug("chat_request_state", "from", string(req.state), "to", string(next), "retry", req.retry)
	req.state = next
}

func (c *Controller) text(ev *event.Event, key texts.Key) string {
	return c.texts.Get(ev.FromLanguage, key)
}

func (r *pendingRequest) outcome() Outcome {
	return Outcome{RequestID: r.id, State: r.state, Attempts: r.attempts, Text: r.shown}
}

func isMessageTooLong(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, event.ErrMessageTooLong) || strings.Contains(err.Error(), event.ErrMessageTooLong.Error())
}
