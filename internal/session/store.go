// Package session holds per-user conversation transcripts in memory.
//
// Every transcript starts with the fixed system turn. Operations on one user
// are serialized; different users never contend on the same lock.
package session

import (
	"sync"

	"github.com/3v3r51nc3/ChatGPT-Telegram-Bot/llm"
)

const SystemPrompt = "You are a kind and sensible assistant. " +
	"You must answer the questions with the language which user speaks."

type Options struct {
	// MaxTurns caps non-system turns per transcript. Zero keeps everything.
	MaxTurns int
}

type Store struct {
	system   llm.Message
	maxTurns int

	mu    sync.Mutex
	users map[int64]*userSession
}

type userSession struct {
	mu         sync.Mutex
	transcript []llm.Message
}

func NewStore(opts Options) *Store {
	maxTurns := opts.MaxTurns
	if maxTurns < 0 {
		maxTurns = 0
	}
	return &Store{
		system:   llm.Message{Role: llm.RoleSystem, Content: SystemPrompt},
		maxTurns: maxTurns,
		users:    make(map[int64]*userSession),
	}
}

// History returns a copy of the user's transcript, creating it on first access.
func (s *Store) History(userID int64) []llm.Message {
	u := s.session(userID, true)
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]llm.Message(nil), u.transcript...)
}

// Erase truncates an existing transcript back to the system turn. It reports
// false, and creates nothing, when the user has no session.
func (s *Store) Erase(userID int64) bool {
	u := s.session(userID, false)
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.transcript = []llm.Message{s.system}
	return true
}

func (s *Store) Append(userID int64, turn llm.Message) {
	u := s.session(userID, true)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.transcript = append(u.transcript, turn)
	u.transcript = trimTranscript(u.transcript, s.maxTurns)
}

func (s *Store) session(userID int64, create bool) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if ok {
		return u
	}
	if !create {
		return nil
	}
	u = &userSession{transcript: []llm.Message{s.system}}
	s.users[userID] = u
	return u
}

// trimTranscript keeps the system turn plus the newest max turns.
func trimTranscript(transcript []llm.Message, max int) []llm.Message {
	if max <= 0 || len(transcript)-1 <= max {
		return transcript
	}
	out := make([]llm.Message, 0, max+1)
	out = append(out, transcript[0])
	out = append(out, transcript[len(transcript)-max:]...)
	return out
}
