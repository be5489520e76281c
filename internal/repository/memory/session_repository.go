package memory

import (
	"time"

	"ai-sceneguide-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const DefaultSessionTTL = time.Hour

// UploadSessionRepository keeps extraction results in process memory until
// they expire or the process restarts.
type UploadSessionRepository struct {
	cache *cache.Cache
}

func NewUploadSessionRepository(ttl time.Duration) *UploadSessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	// Expired sessions are purged every 10 minutes.
	c := cache.New(ttl, 10*time.Minute)
	return &UploadSessionRepository{
		cache: c,
	}
}

func (r *UploadSessionRepository) Save(session *entity.UploadSession) {
	stored := *session
	r.cache.Set(session.Id.String(), &stored, cache.DefaultExpiration)
}

// Get returns a copy so callers cannot mutate the stored session.
func (r *UploadSessionRepository) Get(sessionId uuid.UUID) (*entity.UploadSession, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		session := *x.(*entity.UploadSession)
		return &session, true
	}
	return nil, false
}

func (r *UploadSessionRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}

func (r *UploadSessionRepository) Count() int {
	return r.cache.ItemCount()
}
