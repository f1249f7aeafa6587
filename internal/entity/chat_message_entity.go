package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one persisted transcript entry. Seq is the message's
// position within its session; truncation on edit/regenerate deletes the
// suffix starting at a given Seq.
type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Seq           int
	Role          string
	Chat          string
	CreatedAt     time.Time
}
