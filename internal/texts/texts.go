package texts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Key string

const (
	Generating      Key = "generating"
	TooManyRequests Key = "too_many_requests"
	NotHandled      Key = "not_handled"
	SomeProblem     Key = "some_problem"
	NoProvider      Key = "no_provider"
	NotYourRequest  Key = "not_your_request"
	Welcome         Key = "welcome"
	Help            Key = "help"
	HistoryCleared  Key = "history_cleared"
	HistoryEmpty    Key = "history_empty"
	Settings        Key = "settings"
	ButtonErase     Key = "button_erase"
	ButtonDelete    Key = "button_delete"
	SettingsDeleted Key = "settings_deleted"
	OperatorsOnly   Key = "operators_only"
)

const DefaultLocale = "en"

var defaults = map[Key]string{
	Generating:      "Generating...",
	TooManyRequests: "Too many requests. Try again later",
	NotHandled:      "Sorry, your message wasn't handled properly. Please retry or try to clear your history.",
	SomeProblem:     "Sorry, some problem occurred.",
	NoProvider:      "Sorry, no provider has responded.",
	NotYourRequest:  "This is not your request",
	Welcome:         "Hi! Send me a message and I'll answer it. In groups, reply to me or use /ask.",
	Help:            "/ask <text> - ask in a group chat\n/erase - clear conversation history\n/settings - settings",
	HistoryCleared:  "History cleared.",
	HistoryEmpty:    "History is already empty.",
	Settings:        "Settings⚙️",
	ButtonErase:     "🧹Clear history",
	ButtonDelete:    "❌Delete",
	SettingsDeleted: "Settings were deleted.",
	OperatorsOnly:   "This command is only available to operators.",
}

// Catalog resolves user-visible texts by locale, falling back to the
// default locale and then to the built-in English strings.
type Catalog struct {
	locales map[string]map[Key]string
}

func Default() *Catalog {
	return &Catalog{locales: map[string]map[Key]string{}}
}

type fileFormat struct {
	Locales map[string]map[string]string `yaml:"locales"`
}

// LoadFile reads overrides from a YAML file of the form
//
//	locales:
//	  en:
//	    generating: "Thinking..."
func LoadFile(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read texts file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse texts file: %w", err)
	}
	c := Default()
	for locale, entries := range f.Locales {
		locale = normalizeLocale(locale)
		if locale == "" {
			continue
		}
		m := make(map[Key]string, len(entries))
		for k, v := range entries {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			m[Key(k)] = v
		}
		c.locales[locale] = m
	}
	return c, nil
}

func (c *Catalog) Get(locale string, key Key) string {
	if c != nil {
		if v, ok := c.locales[normalizeLocale(locale)][key]; ok && v != "" {
			return v
		}
		if v, ok := c.locales[DefaultLocale][key]; ok && v != "" {
			return v
		}
	}
	if v, ok := defaults[key]; ok {
		return v
	}
	return string(key)
}

// normalizeLocale maps "en-US" and "EN" to "en".
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	return locale
}
