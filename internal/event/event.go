package event

import (
	"errors"
	"strings"
	"time"
)

type Kind string

const (
	KindMessage  Kind = "message"
	KindReaction Kind = "reaction"
	KindCallback Kind = "callback"
)

const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSupergroup = "supergroup"
	ChatChannel    = "channel"
)

// ErrMessageTooLong is reported by a reply channel when a text exceeds the
// platform's message length limit.
var ErrMessageTooLong = errors.New("MESSAGE_TOO_LONG")

// Message is a platform message as seen by the core, inbound or outbound.
type Message struct {
	ChatID           int64
	MessageID        int64
	FromUserID       int64
	FromIsBot        bool
	Text             string
	ReplyToMessageID int64
	SentAt           time.Time
}

func (m Message) Handle() MessageHandle {
	return MessageHandle{ChatID: m.ChatID, MessageID: m.MessageID}
}

// MessageHandle identifies an outbound message for edits and deletes.
type MessageHandle struct {
	ChatID    int64
	MessageID int64
}

// Event is one inbound platform event.
type Event struct {
	Kind         Kind
	ID           string
	ChatID       int64
	ChatType     string
	MessageID    int64
	FromUserID   int64
	FromLanguage string
	Text         string
	// Command is the explicit command marker ("/ask"), empty for plain text.
	Command     string
	CommandArgs string
	ReplyTo     *Message
	// CallbackData is the raw button payload; Callback is set when it parses.
	CallbackData string
	Callback     *CallbackData
	Reactions    []string
	SentAt       time.Time
}

func (e *Event) IsPrivate() bool {
	return e != nil && strings.EqualFold(strings.TrimSpace(e.ChatType), ChatPrivate)
}

func (e *Event) HasText() bool {
	return e != nil && strings.TrimSpace(e.Text) != ""
}

// Message returns the event's own message, as archived by the durable log.
func (e *Event) Message() Message {
	if e == nil {
		return Message{}
	}
	replyTo := int64(0)
	if e.ReplyTo != nil {
		replyTo = e.ReplyTo.MessageID
	}
	return Message{
		ChatID:           e.ChatID,
		MessageID:        e.MessageID,
		FromUserID:       e.FromUserID,
		Text:             e.Text,
		ReplyToMessageID: replyTo,
		SentAt:           e.SentAt,
	}
}

// Button is one inline keyboard button.
type Button struct {
	Text         string
	CallbackData string
}

type SendOptions struct {
	ReplyToMessageID int64
	// Keyboard rows, rendered as an inline keyboard when non-empty.
	Keyboard [][]Button
}
