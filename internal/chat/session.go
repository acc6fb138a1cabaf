package chat

import (
	"time"

	"github.com/google/uuid"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is one user's conversation. Turns only ever grow, and LastFood
// changes only when a message resolves a new food name.
type Session struct {
	ID        uuid.UUID
	Turns     []Turn
	LastFood  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) appendTurn(role, content string) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content})
	s.UpdatedAt = time.Now()
}

func (s *Session) clone() *Session {
	c := *s
	c.Turns = append([]Turn(nil), s.Turns...)
	return &c
}
