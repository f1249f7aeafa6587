package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-studymate-be/internal/constant"
	"ai-studymate-be/internal/dto"
	"ai-studymate-be/internal/entity"
	"ai-studymate-be/internal/pkg/logger"
	"ai-studymate-be/internal/repository/contract"
	"ai-studymate-be/internal/repository/specification"
	"ai-studymate-be/internal/repository/unitofwork"
	"ai-studymate-be/pkg/annotate"
	"ai-studymate-be/pkg/llm"
	reportparser "ai-studymate-be/pkg/report"
	"ai-studymate-be/pkg/speech"

	"github.com/google/uuid"
)

type IReportService interface {
	Generate(ctx context.Context, userId uuid.UUID, req *dto.GenerateReportRequest) (*dto.GenerateReportResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.ReportListItem, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowReportResponse, error)
	ExportJSON(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ExportReportResponse, error)
	Narration(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]byte, string, error)
	Related(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.RelatedReportItem, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type reportService struct {
	uowFactory       unitofwork.RepositoryFactory
	llmProvider      llm.LLMProvider
	speechProvider   speech.SpeechProvider
	publisherService IPublisherService
	userService      IUserService
	tutorService     ITutorService
	logger           logger.ILogger
}

func NewReportService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	speechProvider speech.SpeechProvider,
	publisherService IPublisherService,
	userService IUserService,
	tutorService ITutorService,
	log logger.ILogger,
) IReportService {
	return &reportService{
		uowFactory:       uowFactory,
		llmProvider:      llmProvider,
		speechProvider:   speechProvider,
		publisherService: publisherService,
		userService:      userService,
		tutorService:     tutorService,
		logger:           log,
	}
}

// PublishEmbedReportMessage is the in-process bus payload telling the
// consumer to (re)build embeddings for a report.
type PublishEmbedReportMessage struct {
	ReportId uuid.UUID `json:"report_id"`
	UserId   uuid.UUID `json:"user_id"`
}

func (s *reportService) Generate(ctx context.Context, userId uuid.UUID, req *dto.GenerateReportRequest) (*dto.GenerateReportResponse, error) {
	if err := s.userService.ConsumeAiUsage(ctx, userId); err != nil {
		return nil, err
	}

	prompt := constant.ReportPromptV1 + req.Subject

	raw, err := s.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.4))
	if err != nil {
		s.logger.Error("ReportService", "Model call failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	parsed, err := reportparser.Parse(raw)
	if err != nil {
		s.logger.Error("ReportService", "Model returned unparseable report", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	report := &entity.Report{
		Id:           uuid.New(),
		UserId:       userId,
		Subject:      req.Subject,
		Title:        parsed.Title,
		Overview:     parsed.Overview,
		Glossary:     parsed.Glossary,
		Concepts:     parsed.Concepts,
		Formulas:     parsed.Formulas,
		Applications: parsed.Applications,
		Summary:      parsed.Summary,
		Recap:        parsed.Recap,
		Citations:    parsed.Citations,
		CreatedAt:    time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ReportRepository().Create(ctx, report); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	msgPayload := PublishEmbedReportMessage{ReportId: report.Id, UserId: userId}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		s.logger.Warn("ReportService", "Failed to queue embedding job", map[string]interface{}{"report_id": report.Id, "error": err.Error()})
	}

	return &dto.GenerateReportResponse{Id: report.Id, Title: report.Title}, nil
}

func (s *reportService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.ReportListItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	reports, err := uow.ReportRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ReportListItem, len(reports))
	for i, r := range reports {
		items[i] = &dto.ReportListItem{
			Id:        r.Id,
			Title:     r.Title,
			Subject:   r.Subject,
			CreatedAt: r.CreatedAt,
		}
	}
	return items, nil
}

func (s *reportService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.Report, error) {
	report, err := uow.ReportRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("report not found")
	}
	return report, nil
}

// Show renders every markdown field through the annotator using the report's
// own glossary, so each term carries its tooltip wherever it appears.
func (s *reportService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	report, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	terms := make([]annotate.Term, len(report.Glossary))
	for i, g := range report.Glossary {
		terms[i] = annotate.Term{Term: g.Term, Definition: g.Definition}
	}
	glossary := annotate.NewGlossary(terms)

	render := func(markdown string) (string, error) {
		return annotate.Annotate(markdown, glossary)
	}

	overviewHTML, err := render(report.Overview)
	if err != nil {
		return nil, err
	}
	applicationsHTML, err := render(report.Applications)
	if err != nil {
		return nil, err
	}
	summaryHTML, err := render(report.Summary)
	if err != nil {
		return nil, err
	}

	concepts := make([]dto.AnnotatedConcept, len(report.Concepts))
	for i, c := range report.Concepts {
		explanationHTML, err := render(c.Explanation)
		if err != nil {
			return nil, err
		}
		concepts[i] = dto.AnnotatedConcept{Name: c.Name, ExplanationHTML: explanationHTML}
	}

	return &dto.ShowReportResponse{
		Id:               report.Id,
		Title:            report.Title,
		OverviewHTML:     overviewHTML,
		ConceptsHTML:     concepts,
		ApplicationsHTML: applicationsHTML,
		SummaryHTML:      summaryHTML,
		Recap:            report.Recap,
		Glossary:         report.Glossary,
		Formulas:         report.Formulas,
		Citations:        report.Citations,
		CreatedAt:        report.CreatedAt,
	}, nil
}

func (s *reportService) ExportJSON(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ExportReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	report, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	return &dto.ExportReportResponse{
		Id:           report.Id,
		Title:        report.Title,
		Subject:      report.Subject,
		Overview:     report.Overview,
		Glossary:     report.Glossary,
		Concepts:     report.Concepts,
		Formulas:     report.Formulas,
		Applications: report.Applications,
		Summary:      report.Summary,
		Recap:        report.Recap,
		Citations:    report.Citations,
		CreatedAt:    report.CreatedAt,
	}, nil
}

func (s *reportService) Narration(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]byte, string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	report, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, "", err
	}
	if report.Recap == "" {
		return nil, "", fmt.Errorf("report has no recap to narrate")
	}

	audio, mime, err := s.speechProvider.Synthesize(constant.NarrationInstructionV1 + report.Recap)
	if err != nil {
		s.logger.Error("ReportService", "Narration synthesis failed", map[string]interface{}{"report_id": id, "error": err.Error()})
		return nil, "", err
	}
	return audio, mime, nil
}

func (s *reportService) Related(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.RelatedReportItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	report, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	// Use this report's own first chunk as the query vector.
	own, err := uow.ReportEmbeddingRepository().FindAll(ctx,
		specification.ByReportID{ReportID: report.Id},
		specification.OrderBy{Field: "chunk_index", Desc: false},
		specification.Pagination{Limit: 1, Offset: 0},
	)
	if err != nil {
		return nil, err
	}
	if len(own) == 0 {
		// Embeddings not built yet; nothing to relate.
		return []*dto.RelatedReportItem{}, nil
	}

	scored, err := uow.ReportEmbeddingRepository().SearchSimilar(ctx, own[0].EmbeddingValue, 10, userId, report.Id)
	if err != nil {
		return nil, err
	}

	return s.collapseByReport(ctx, uow, scored)
}

// collapseByReport keeps the best-scoring chunk per report and resolves titles.
func (s *reportService) collapseByReport(ctx context.Context, uow unitofwork.UnitOfWork, scored []*contract.ScoredReportEmbedding) ([]*dto.RelatedReportItem, error) {
	best := make(map[uuid.UUID]float64)
	order := make([]uuid.UUID, 0, len(scored))
	for _, sc := range scored {
		rid := sc.Embedding.ReportId
		if prev, ok := best[rid]; !ok || sc.Similarity > prev {
			if !ok {
				order = append(order, rid)
			}
			best[rid] = sc.Similarity
		}
	}
	if len(order) == 0 {
		return []*dto.RelatedReportItem{}, nil
	}

	reports, err := uow.ReportRepository().FindAll(ctx, specification.ByIDs{IDs: order})
	if err != nil {
		return nil, err
	}
	titles := make(map[uuid.UUID]string, len(reports))
	for _, r := range reports {
		titles[r.Id] = r.Title
	}

	items := make([]*dto.RelatedReportItem, 0, len(order))
	for _, rid := range order {
		items = append(items, &dto.RelatedReportItem{
			Id:         rid,
			Title:      titles[rid],
			Similarity: best[rid],
		})
	}
	return items, nil
}

func (s *reportService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	report, err := s.findOwned(ctx, uow, userId, id)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ReportEmbeddingRepository().DeleteByReportId(ctx, report.Id); err != nil {
		return err
	}

	// Tutor sessions grounded on this report go with it.
	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.ByReportID{ReportID: report.Id})
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sess.Id); err != nil {
			return err
		}
		if err := uow.ChatSessionRepository().Delete(ctx, sess.Id); err != nil {
			return err
		}
		s.tutorService.EvictSession(sess.Id)
	}

	if err := uow.ReportRepository().Delete(ctx, report.Id); err != nil {
		return err
	}

	return uow.Commit()
}
