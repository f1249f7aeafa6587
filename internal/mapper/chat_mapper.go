package mapper

import (
	"time"

	"ai-studymate-be/internal/entity"
	"ai-studymate-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToModel(e *entity.ChatSession) *model.ChatSession {
	if e == nil {
		return nil
	}
	s := &model.ChatSession{
		Id:        e.Id,
		UserId:    e.UserId,
		ReportId:  e.ReportId,
		Title:     e.Title,
		CreatedAt: e.CreatedAt,
	}
	if e.UpdatedAt != nil {
		s.UpdatedAt = *e.UpdatedAt
	}
	return s
}

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		ReportId:  s.ReportId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: sessionUpdatedAt(s.UpdatedAt),
	}
}

func sessionUpdatedAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Message Mappers

func (m *ChatMapper) ChatMessageToModel(e *entity.ChatMessage) *model.ChatMessage {
	if e == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:            e.Id,
		ChatSessionId: e.ChatSessionId,
		Seq:           e.Seq,
		Chat:          e.Chat,
		Role:          e.Role,
		CreatedAt:     e.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToEntity(s *model.ChatMessage) *entity.ChatMessage {
	if s == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:            s.Id,
		ChatSessionId: s.ChatSessionId,
		Seq:           s.Seq,
		Chat:          s.Chat,
		Role:          s.Role,
		CreatedAt:     s.CreatedAt,
	}
}
