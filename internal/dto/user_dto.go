package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Status       string    `json:"status"`
	AiDailyUsage int       `json:"ai_daily_usage"`
	AiDailyLimit int       `json:"ai_daily_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=3"`
}

// LimitExceededError carries usage details so the client can show
// how far over the daily cap the user is.
type LimitExceededError struct {
	Limit   int       `json:"limit"`
	Used    int       `json:"used"`
	ResetAt time.Time `json:"reset_at"`
}

func (e *LimitExceededError) Error() string {
	return "daily AI usage limit reached"
}
