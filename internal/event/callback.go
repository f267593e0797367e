package event

import (
	"fmt"
	"strconv"
	"strings"
)

const callbackSep = ":"

// CallbackData is the structured button payload: prefix:user_id:button.
// UserID is the user the keyboard was rendered for.
type CallbackData struct {
	Prefix string
	UserID int64
	Button string
}

func (c CallbackData) Pack() string {
	return strings.Join([]string{c.Prefix, strconv.FormatInt(c.UserID, 10), c.Button}, callbackSep)
}

func ParseCallbackData(raw string) (CallbackData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CallbackData{}, fmt.Errorf("callback data is empty")
	}
	parts := strings.SplitN(raw, callbackSep, 3)
	if len(parts) != 3 {
		return CallbackData{}, fmt.Errorf("callback data %q: want prefix:user_id:button", raw)
	}
	prefix := strings.TrimSpace(parts[0])
	if prefix == "" {
		return CallbackData{}, fmt.Errorf("callback data %q: prefix is required", raw)
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return CallbackData{}, fmt.Errorf("callback data %q: user id is invalid: %w", raw, err)
	}
	return CallbackData{
		Prefix: prefix,
		UserID: userID,
		Button: strings.TrimSpace(parts[2]),
	}, nil
}
