package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"ai-studymate-be/internal/constant"
	"ai-studymate-be/internal/dto"
	"ai-studymate-be/internal/entity"
	"ai-studymate-be/internal/pkg/logger"
	"ai-studymate-be/internal/repository/memory"
	"ai-studymate-be/internal/repository/specification"
	"ai-studymate-be/internal/repository/unitofwork"
	"ai-studymate-be/pkg/staging"
	"ai-studymate-be/pkg/tutor"

	"github.com/google/uuid"
)

type ITutorService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateTutorSessionRequest) (*dto.CreateTutorSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.TutorSessionListItem, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.TutorHistoryItem, error)
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendTutorChatRequest) (*dto.SendTutorChatResponse, error)
	Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegenerateRequest) (*dto.SendTutorChatResponse, error)
	EditAndResubmit(ctx context.Context, userId uuid.UUID, req *dto.EditResubmitRequest) (*dto.SendTutorChatResponse, error)
	ClearSession(ctx context.Context, userId uuid.UUID, req *dto.ClearSessionRequest) error
	DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error
	StagePendingQuery(ctx context.Context, userId uuid.UUID, req *dto.StagePendingQueryRequest) error
	// ConsumePendingFor drains a session's staged query. Driven by the
	// pending-query topic consumer, not by HTTP.
	ConsumePendingFor(ctx context.Context, sessionId uuid.UUID) error
	// EvictSession drops the in-memory session state. The durable transcript
	// is the caller's concern.
	EvictSession(sessionId uuid.UUID)
}

// PublishPendingQueryMessage signals that a session has a staged query ready
// for consumption.
type PublishPendingQueryMessage struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}

type tutorService struct {
	uowFactory       unitofwork.RepositoryFactory
	sessions         *memory.TutorSessionRepository
	sender           tutor.TurnSender
	userService      IUserService
	pendingPublisher IPublisherService
	logger           logger.ILogger
	turnLog          *log.Logger
}

func NewTutorService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.TutorSessionRepository,
	sender tutor.TurnSender,
	userService IUserService,
	pendingPublisher IPublisherService,
	sysLogger logger.ILogger,
) ITutorService {
	return &tutorService{
		uowFactory:       uowFactory,
		sessions:         sessions,
		sender:           sender,
		userService:      userService,
		pendingPublisher: pendingPublisher,
		logger:           sysLogger,
		turnLog:          log.New(os.Stdout, "", log.LstdFlags),
	}
}

func (s *tutorService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateTutorSessionRequest) (*dto.CreateTutorSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx,
		specification.ByID{ID: req.ReportId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("report not found")
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		ReportId:  report.Id,
		Title:     report.Title,
		CreatedAt: time.Now(),
	}
	greeting := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Seq:           0,
		Role:          constant.ChatMessageRoleModel,
		Chat:          constant.TutorGreetingV1,
		CreatedAt:     time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.ChatMessageRepository().Create(ctx, greeting); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	live := tutor.NewSession(ctx, session.Id.String(), report.GroundingText(), s.sender, staging.NewSlot(), s.turnLog)
	if err := live.Seed(tutor.Turn{Role: tutor.RoleModel, Content: constant.TutorGreetingV1}); err != nil {
		return nil, err
	}
	s.sessions.Save(session.Id.String(), live)

	return &dto.CreateTutorSessionResponse{Id: session.Id, Greeting: constant.TutorGreetingV1}, nil
}

func (s *tutorService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.TutorSessionListItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.TutorSessionListItem, len(sessions))
	for i, sess := range sessions {
		items[i] = &dto.TutorSessionListItem{
			Id:        sess.Id,
			ReportId:  sess.ReportId,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
		}
	}
	return items, nil
}

func (s *tutorService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.TutorHistoryItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.TutorHistoryItem, len(messages))
	for i, m := range messages {
		items[i] = &dto.TutorHistoryItem{
			Id:        m.Id,
			Seq:       m.Seq,
			Role:      m.Role,
			Chat:      m.Chat,
			CreatedAt: m.CreatedAt,
		}
	}
	return items, nil
}

func (s *tutorService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendTutorChatRequest) (*dto.SendTutorChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sess, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Chat) == "" {
		// Blank message is a no-op; don't charge the cap for it.
		return &dto.SendTutorChatResponse{ChatSessionId: sess.Id}, nil
	}

	if err := s.userService.ConsumeAiUsage(ctx, userId); err != nil {
		return nil, err
	}

	live, err := s.liveSession(ctx, uow, sess)
	if err != nil {
		return nil, err
	}

	turn, err := live.Send(ctx, req.Chat)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	if turn == nil {
		// Blank message, nothing sent.
		return &dto.SendTutorChatResponse{ChatSessionId: sess.Id}, nil
	}

	if err := s.syncNewTurns(ctx, uow, sess, live); err != nil {
		return nil, err
	}

	return &dto.SendTutorChatResponse{
		ChatSessionId: sess.Id,
		Sent:          strings.TrimSpace(req.Chat),
		Reply:         turn.Content,
	}, nil
}

func (s *tutorService) Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegenerateRequest) (*dto.SendTutorChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sess, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	if err := s.userService.ConsumeAiUsage(ctx, userId); err != nil {
		return nil, err
	}

	live, err := s.liveSession(ctx, uow, sess)
	if err != nil {
		return nil, err
	}

	// The truncation point is the last user turn; everything from there on is
	// rewritten in the mirror after the resubmission completes.
	history := live.History()
	truncateAt := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == tutor.RoleUser {
			truncateAt = i
			break
		}
	}
	if truncateAt < 0 {
		return nil, mapSessionErr(tutor.ErrNoUserTurn)
	}
	sent := history[truncateAt].Content

	turn, err := live.RegenerateLast(ctx)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	if turn == nil {
		return nil, fmt.Errorf("regeneration produced no reply")
	}

	if err := s.rewriteFromSeq(ctx, uow, sess, live, truncateAt); err != nil {
		return nil, err
	}

	return &dto.SendTutorChatResponse{
		ChatSessionId: sess.Id,
		Sent:          sent,
		Reply:         turn.Content,
	}, nil
}

func (s *tutorService) EditAndResubmit(ctx context.Context, userId uuid.UUID, req *dto.EditResubmitRequest) (*dto.SendTutorChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sess, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}

	if err := s.userService.ConsumeAiUsage(ctx, userId); err != nil {
		return nil, err
	}

	live, err := s.liveSession(ctx, uow, sess)
	if err != nil {
		return nil, err
	}

	// Seq doubles as the turn's index in the live history: both start at the
	// seeded greeting and grow in lockstep.
	turn, err := live.EditAndResubmit(ctx, req.Seq, req.Chat)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	if turn == nil {
		return nil, fmt.Errorf("resubmission produced no reply")
	}

	if err := s.rewriteFromSeq(ctx, uow, sess, live, req.Seq); err != nil {
		return nil, err
	}

	return &dto.SendTutorChatResponse{
		ChatSessionId: sess.Id,
		Sent:          strings.TrimSpace(req.Chat),
		Reply:         turn.Content,
	}, nil
}

func (s *tutorService) ClearSession(ctx context.Context, userId uuid.UUID, req *dto.ClearSessionRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sess, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return err
	}

	live, err := s.liveSession(ctx, uow, sess)
	if err != nil {
		return err
	}

	if err := live.Clear(ctx); err != nil {
		return mapSessionErr(err)
	}
	if err := live.Seed(tutor.Turn{Role: tutor.RoleModel, Content: constant.TutorGreetingV1}); err != nil {
		return mapSessionErr(err)
	}

	return s.rewriteFromSeq(ctx, uow, sess, live, 0)
}

func (s *tutorService) DeleteSession(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sess, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sess.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sess.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.EvictSession(sess.Id)
	return nil
}

func (s *tutorService) StagePendingQuery(ctx context.Context, userId uuid.UUID, req *dto.StagePendingQueryRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sess, err := s.findOwnedSession(ctx, uow, userId, req.ChatSessionId)
	if err != nil {
		return err
	}

	live, err := s.liveSession(ctx, uow, sess)
	if err != nil {
		return err
	}

	if !live.StagePending(req.Chat) {
		return fmt.Errorf("query is empty")
	}

	msgJson, err := json.Marshal(PublishPendingQueryMessage{ChatSessionId: sess.Id})
	if err != nil {
		return err
	}
	if err := s.pendingPublisher.Publish(ctx, msgJson); err != nil {
		s.logger.Warn("TutorService", "Failed to signal pending query", map[string]interface{}{"chat_session_id": sess.Id, "error": err.Error()})
	}
	return nil
}

func (s *tutorService) ConsumePendingFor(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sess, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if sess == nil {
		// Session deleted between staging and consumption.
		return nil
	}

	live, err := s.liveSession(ctx, uow, sess)
	if err != nil {
		return err
	}

	live.ConsumePending(ctx)
	return s.syncNewTurns(ctx, uow, sess, live)
}

func (s *tutorService) EvictSession(sessionId uuid.UUID) {
	s.sessions.Delete(sessionId.String())
}

func (s *tutorService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found")
	}
	return sess, nil
}

// liveSession returns the in-memory session, rehydrating it from the durable
// transcript when the cache dropped it or the process restarted.
func (s *tutorService) liveSession(ctx context.Context, uow unitofwork.UnitOfWork, sess *entity.ChatSession) (*tutor.Session, error) {
	if live, found := s.sessions.Get(sess.Id.String()); found {
		return live, nil
	}

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: sess.ReportId})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("report for session no longer exists")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sess.Id},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	live := tutor.NewSession(ctx, sess.Id.String(), report.GroundingText(), s.sender, staging.NewSlot(), s.turnLog)
	for _, m := range messages {
		if err := live.Seed(tutor.Turn{Role: m.Role, Content: m.Chat}); err != nil {
			return nil, err
		}
	}
	s.sessions.Save(sess.Id.String(), live)
	return live, nil
}

// syncNewTurns appends to the mirror every live turn past the highest
// persisted seq. Covers both a plain send and any staged query the session
// drained right after it.
func (s *tutorService) syncNewTurns(ctx context.Context, uow unitofwork.UnitOfWork, sess *entity.ChatSession, live *tutor.Session) error {
	history := live.History()
	maxSeq, err := uow.ChatMessageRepository().MaxSeq(ctx, sess.Id)
	if err != nil {
		return err
	}
	if maxSeq+1 >= len(history) {
		return nil
	}
	return s.appendFromSeq(ctx, uow, sess, history, maxSeq+1)
}

// rewriteFromSeq replays the mirror's suffix after a truncating operation:
// rows from seq on are dropped and replaced by the live history's tail.
func (s *tutorService) rewriteFromSeq(ctx context.Context, uow unitofwork.UnitOfWork, sess *entity.ChatSession, live *tutor.Session, seq int) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionIdFromSeq(ctx, sess.Id, seq); err != nil {
		return err
	}

	history := live.History()
	for i := seq; i < len(history); i++ {
		msg := &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sess.Id,
			Seq:           i,
			Role:          history[i].Role,
			Chat:          history[i].Content,
			CreatedAt:     time.Now(),
		}
		if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
			return err
		}
	}

	if err := s.touchSession(ctx, uow, sess); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *tutorService) appendFromSeq(ctx context.Context, uow unitofwork.UnitOfWork, sess *entity.ChatSession, history []tutor.Turn, from int) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	for i := from; i < len(history); i++ {
		msg := &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sess.Id,
			Seq:           i,
			Role:          history[i].Role,
			Chat:          history[i].Content,
			CreatedAt:     time.Now(),
		}
		if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
			return err
		}
	}

	if err := s.touchSession(ctx, uow, sess); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *tutorService) touchSession(ctx context.Context, uow unitofwork.UnitOfWork, sess *entity.ChatSession) error {
	now := time.Now()
	sess.UpdatedAt = &now
	return uow.ChatSessionRepository().Update(ctx, sess)
}

func mapSessionErr(err error) error {
	switch {
	case errors.Is(err, tutor.ErrBusy):
		return fmt.Errorf("a reply is still being generated for this session")
	case errors.Is(err, tutor.ErrNoUserTurn):
		return fmt.Errorf("nothing to regenerate yet")
	case errors.Is(err, tutor.ErrBadTurn):
		return fmt.Errorf("seq does not refer to one of your messages")
	case errors.Is(err, tutor.ErrEmptyText):
		return fmt.Errorf("message text is empty")
	default:
		return err
	}
}
