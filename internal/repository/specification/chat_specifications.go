package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// SeqGte selects transcript entries from a position onward.
type SeqGte struct {
	Seq int
}

func (s SeqGte) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("seq >= ?", s.Seq)
}
