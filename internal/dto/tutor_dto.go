package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTutorSessionRequest struct {
	ReportId uuid.UUID `json:"report_id" validate:"required"`
}

type CreateTutorSessionResponse struct {
	Id       uuid.UUID `json:"id"`
	Greeting string    `json:"greeting"`
}

type TutorSessionListItem struct {
	Id        uuid.UUID  `json:"id"`
	ReportId  uuid.UUID  `json:"report_id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type TutorHistoryItem struct {
	Id        uuid.UUID `json:"id"`
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Chat      string    `json:"chat"`
	CreatedAt time.Time `json:"created_at"`
}

type SendTutorChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required"`
}

type SendTutorChatResponse struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Sent          string    `json:"sent"`
	Reply         string    `json:"reply"`
}

type RegenerateRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type EditResubmitRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Seq           int       `json:"seq" validate:"gte=0"`
	Chat          string    `json:"chat" validate:"required"`
}

type ClearSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

// StagePendingQueryRequest parks a question asked before its session is ready
// (e.g. while the report is still generating).
type StagePendingQueryRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required"`
}
