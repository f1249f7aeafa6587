package service

import (
	"context"
	"errors"
	"time"

	"ai-studymate-be/internal/dto"
	"ai-studymate-be/internal/repository/specification"
	"ai-studymate-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) error
	// ConsumeAiUsage enforces the daily cap shared by report generation and
	// tutor turns. Returns LimitExceededError when the cap is hit.
	ConsumeAiUsage(ctx context.Context, userId uuid.UUID) error
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	dailyLimit int
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, dailyLimit int) IUserService {
	return &userService{
		uowFactory: uowFactory,
		dailyLimit: dailyLimit,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	usage := user.AiDailyUsage
	if !sameDay(user.AiDailyUsageLastReset, time.Now()) {
		usage = 0
	}

	return &dto.UserProfileResponse{
		Id:           user.Id,
		Email:        user.Email,
		FullName:     user.FullName,
		Status:       string(user.Status),
		AiDailyUsage: usage,
		AiDailyLimit: s.dailyLimit,
		CreatedAt:    user.CreatedAt,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	user.FullName = req.FullName
	user.UpdatedAt = time.Now()
	return uow.UserRepository().Update(ctx, user)
}

func (s *userService) ConsumeAiUsage(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	now := time.Now()
	if !sameDay(user.AiDailyUsageLastReset, now) {
		if err := uow.UserRepository().ResetAiUsage(ctx, userId); err != nil {
			return err
		}
		user.AiDailyUsage = 0
	}

	if s.dailyLimit > 0 && user.AiDailyUsage >= s.dailyLimit {
		return &dto.LimitExceededError{
			Limit:   s.dailyLimit,
			Used:    user.AiDailyUsage,
			ResetAt: startOfNextDay(now),
		}
	}

	return uow.UserRepository().IncrementAiUsage(ctx, userId)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfNextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
