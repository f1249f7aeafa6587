package memory

import (
	"time"

	"ai-studymate-be/pkg/tutor"

	"github.com/patrickmn/go-cache"
)

// TutorSessionRepository keeps live tutor sessions in process memory. The
// durable transcript lives in Postgres; this cache only holds the in-flight
// conversation state so concurrent requests against one session serialize on
// the same instance.
type TutorSessionRepository struct {
	cache *cache.Cache
}

func NewTutorSessionRepository() *TutorSessionRepository {
	// Sessions idle for an hour are dropped; they rehydrate from the
	// transcript on next use.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &TutorSessionRepository{
		cache: c,
	}
}

func (r *TutorSessionRepository) Save(sessionID string, session *tutor.Session) {
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
}

func (r *TutorSessionRepository) Get(sessionID string) (*tutor.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*tutor.Session), true
	}
	return nil, false
}

func (r *TutorSessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
