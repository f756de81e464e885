package model

import (
	"strings"
	"time"
)

// MaxHistoryEntries caps a conversation at five user/agent pairs.
const MaxHistoryEntries = 10

const (
	userPrefix  = "User: "
	agentPrefix = "Agent: "
)

// ConversationSession is the per-caller rolling chat history.
type ConversationSession struct {
	ID        string    `json:"id"`
	History   []string  `json:"history"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversationSession(id string) *ConversationSession {
	return &ConversationSession{ID: id, History: []string{}}
}

// AppendExchange records a user/agent pair and drops the oldest entries
// beyond MaxHistoryEntries.
func (s *ConversationSession) AppendExchange(query, answer string) {
	s.History = append(s.History, userPrefix+query, agentPrefix+answer)
	if over := len(s.History) - MaxHistoryEntries; over > 0 {
		s.History = append([]string(nil), s.History[over:]...)
	}
	s.UpdatedAt = time.Now()
}

// LastAnswer returns the most recent agent turn without its prefix.
func (s *ConversationSession) LastAnswer() (string, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if strings.HasPrefix(s.History[i], agentPrefix) {
			return strings.TrimPrefix(s.History[i], agentPrefix), true
		}
	}
	return "", false
}

func (s *ConversationSession) Clone() *ConversationSession {
	out := *s
	out.History = append([]string(nil), s.History...)
	return &out
}
