package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/outputfmt"
)

const DefaultBaseURL = "https://api.telegram.org"

// AllowedUpdates are the update types requested from getUpdates.
var AllowedUpdates = []string{"message", "message_reaction", "callback_query"}

// RequestError is a failed Bot API call.
type RequestError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *RequestError) Error() string {
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		desc = "ok=false"
	}
	if e.StatusCode != 0 && (e.StatusCode < 200 || e.StatusCode >= 300) {
		return fmt.Sprintf("telegram %s: http %d: %s", e.Method, e.StatusCode, desc)
	}
	return fmt.Sprintf("telegram %s: %s", e.Method, desc)
}

// Is matches event.ErrMessageTooLong for Telegram's length rejections.
func (e *RequestError) Is(target error) bool {
	if target != event.ErrMessageTooLong {
		return false
	}
	desc := strings.ToLower(e.Description)
	return strings.Contains(desc, "message is too long") || strings.Contains(desc, "message_too_long")
}

// API is a minimal Bot API client.
type API struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewAPI(httpClient *http.Client, baseURL, token string) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &API{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (api *API) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", api.baseURL, api.token, method)
}

// call posts body as JSON to method and decodes the result into out.
func (api *API) call(ctx context.Context, method string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api.methodURL(method), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return api.do(req, method, out)
}

func (api *API) do(req *http.Request, method string, out any) error {
	resp, err := api.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, outputfmt.RedactError(err))
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &RequestError{Method: method, StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("telegram %s: decode: %w", method, err)
	}
	if !parsed.OK || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			ErrorCode:   parsed.ErrorCode,
			Description: parsed.Description,
		}
	}
	if out == nil || len(parsed.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(parsed.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

func (api *API) GetMe(ctx context.Context) (*User, error) {
	var out User
	if err := api.call(ctx, "getMe", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUpdates long-polls for updates from offset and returns the next offset.
func (api *API) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	q := url.Values{}
	q.Set("timeout", fmt.Sprintf("%d", secs))
	if offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", offset))
	}
	allowed, _ := json.Marshal(AllowedUpdates)
	q.Set("allowed_updates", string(allowed))

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, api.methodURL("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, offset, err
	}
	var updates []Update
	if err := api.do(req, "getUpdates", &updates); err != nil {
		return nil, offset, err
	}
	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type replyParameters struct {
	MessageID                int64 `json:"message_id"`
	AllowSendingWithoutReply bool  `json:"allow_sending_without_reply,omitempty"`
}

type sendMessageRequest struct {
	ChatID          int64                 `json:"chat_id"`
	Text            string                `json:"text"`
	ParseMode       string                `json:"parse_mode,omitempty"`
	ReplyParameters *replyParameters      `json:"reply_parameters,omitempty"`
	ReplyMarkup     *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

func (api *API) SendMessage(ctx context.Context, chatID int64, text string, opts event.SendOptions) (*Message, error) {
	body := sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: keyboardMarkup(opts.Keyboard)}
	if opts.ReplyToMessageID != 0 {
		body.ReplyParameters = &replyParameters{MessageID: opts.ReplyToMessageID, AllowSendingWithoutReply: true}
	}
	var out Message
	if err := api.call(ctx, "sendMessage", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type editMessageTextRequest struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
}

func (api *API) EditMessageText(ctx context.Context, chatID, messageID int64, text string) (*Message, error) {
	var out Message
	err := api.call(ctx, "editMessageText", editMessageTextRequest{ChatID: chatID, MessageID: messageID, Text: text}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type deleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

func (api *API) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return api.call(ctx, "deleteMessage", deleteMessageRequest{ChatID: chatID, MessageID: messageID}, nil)
}

type answerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

func (api *API) AnswerCallbackQuery(ctx context.Context, id string, text string) error {
	return api.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{CallbackQueryID: id, Text: text}, nil)
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

func (api *API) SendChatAction(ctx context.Context, chatID int64, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "typing"
	}
	return api.call(ctx, "sendChatAction", sendChatActionRequest{ChatID: chatID, Action: action}, nil)
}

func keyboardMarkup(rows [][]event.Button) *inlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := &inlineKeyboardMarkup{InlineKeyboard: make([][]inlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]inlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineKeyboardButton{Text: b.Text, CallbackData: b.CallbackData})
		}
		out.InlineKeyboard = append(out.InlineKeyboard, buttons)
	}
	return out
}

// IsUnauthorized reports a rejected bot token.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && (reqErr.StatusCode == http.StatusUnauthorized || reqErr.ErrorCode == http.StatusUnauthorized)
}
