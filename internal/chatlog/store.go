// Package chatlog is the durable log behind archival, reaction lookups,
// request accounting and operator statistics.
package chatlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/db/models"
	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/internal/event"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TableMessages        = "messages"
	TableRequestCounters = "request_counters"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(gdb *gorm.DB) (*Store, error) {
	if gdb == nil {
		return nil, fmt.Errorf("nil gorm db")
	}
	return &Store{db: gdb, now: time.Now}, nil
}

// Archive records msg, replacing the text of an already archived
// (chat, message id) pair.
func (s *Store) Archive(ctx context.Context, msg event.Message) error {
	if msg.ChatID == 0 || msg.MessageID == 0 {
		return fmt.Errorf("archive: chat_id and message_id are required")
	}
	sentAt := msg.SentAt.UTC()
	if msg.SentAt.IsZero() {
		sentAt = s.now().UTC()
	}
	row := models.Message{
		ChatID:           msg.ChatID,
		MessageID:        msg.MessageID,
		FromUserID:       msg.FromUserID,
		FromIsBot:        msg.FromIsBot,
		Text:             msg.Text,
		ReplyToMessageID: msg.ReplyToMessageID,
		SentAt:           sentAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("archive message %d/%d: %w", msg.ChatID, msg.MessageID, err)
	}
	return nil
}

// Lookup finds an archived message by chat and message id. userID is the
// user asking (the reactor); it is not part of the match.
func (s *Store) Lookup(ctx context.Context, chatID, messageID, userID int64) (event.Message, bool, error) {
	var row models.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ? AND message_id = ?", chatID, messageID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return event.Message{}, false, nil
	}
	if err != nil {
		return event.Message{}, false, fmt.Errorf("lookup message %d/%d for user %d: %w", chatID, messageID, userID, err)
	}
	return event.Message{
		ChatID:           row.ChatID,
		MessageID:        row.MessageID,
		FromUserID:       row.FromUserID,
		FromIsBot:        row.FromIsBot,
		Text:             row.Text,
		ReplyToMessageID: row.ReplyToMessageID,
		SentAt:           row.SentAt,
	}, true, nil
}

func (s *Store) IncrementCounter(ctx context.Context, userID int64, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("increment counter: category is required")
	}
	now := s.now().UTC()
	row := models.RequestCounter{
		UserID:    userID,
		Category:  category,
		Day:       now.Format(time.DateOnly),
		Total:     1,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "category"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total":      gorm.Expr("request_counters.total + 1"),
			"updated_at": now,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("increment counter %s for user %d: %w", category, userID, err)
	}
	return nil
}

type categoryStat struct {
	Category string
	Requests int64
	Users    int64
}

// StatsSummary renders today's request counters for operators.
func (s *Store) StatsSummary(ctx context.Context) (string, error) {
	day := s.now().UTC().Format(time.DateOnly)
	db := s.db.WithContext(ctx)

	var stats []categoryStat
	err := db.Model(&models.RequestCounter{}).
		Select("category, SUM(total) AS requests, COUNT(DISTINCT user_id) AS users").
		Where("day = ?", day).
		Group("category").
		Scan(&stats).Error
	if err != nil {
		return "", fmt.Errorf("stats by category: %w", err)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Category < stats[j].Category })

	var activeUsers int64
	if err := db.Model(&models.RequestCounter{}).Where("day = ?", day).Distinct("user_id").Count(&activeUsers).Error; err != nil {
		return "", fmt.Errorf("stats active users: %w", err)
	}
	var totalUsers int64
	if err := db.Model(&models.RequestCounter{}).Distinct("user_id").Count(&totalUsers).Error; err != nil {
		return "", fmt.Errorf("stats total users: %w", err)
	}
	var archived int64
	if err := db.Model(&models.Message{}).Count(&archived).Error; err != nil {
		return "", fmt.Errorf("stats archived messages: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Statistics for %s\n", day)
	if len(stats) == 0 {
		b.WriteString("No requests today.\n")
	}
	for _, st := range stats {
		fmt.Fprintf(&b, "%s: %d (%d users)\n", st.Category, st.Requests, st.Users)
	}
	fmt.Fprintf(&b, "Active users today: %d\n", activeUsers)
	fmt.Fprintf(&b, "Users total: %d\n", totalUsers)
	fmt.Fprintf(&b, "Archived messages: %d", archived)
	return b.String(), nil
}

// Purge deletes every row of a known table.
func (s *Store) Purge(ctx context.Context, table string) error {
	var model any
	switch strings.TrimSpace(table) {
	case TableMessages:
		model = &models.Message{}
	case TableRequestCounters:
		model = &models.RequestCounter{}
	default:
		return fmt.Errorf("purge: unknown table %q", table)
	}
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
	if err != nil {
		return fmt.Errorf("purge %s: %w", table, err)
	}
	return nil
}
