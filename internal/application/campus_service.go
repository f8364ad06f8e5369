package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/campus-reservation/internal/persistence"
)

const (
	// DefaultCampusCacheTTL bounds how long campus listings are served from cache.
	DefaultCampusCacheTTL = 5 * time.Minute

	campusCacheKey = "all"
)

// CampusService serves campus reference data through a small expiring cache.
type CampusService struct {
	campuses persistence.CampusRepository
	cache    *expirable.LRU[string, []Campus]
	logger   *slog.Logger
}

// NewCampusService wires the campus repository with a cache of the given TTL.
// A non-positive ttl selects DefaultCampusCacheTTL.
func NewCampusService(campuses persistence.CampusRepository, ttl time.Duration) *CampusService {
	return NewCampusServiceWithLogger(campuses, ttl, nil)
}

// NewCampusServiceWithLogger wires dependencies with a specified logger.
func NewCampusServiceWithLogger(campuses persistence.CampusRepository, ttl time.Duration, logger *slog.Logger) *CampusService {
	if ttl <= 0 {
		ttl = DefaultCampusCacheTTL
	}
	return &CampusService{
		campuses: campuses,
		cache:    expirable.NewLRU[string, []Campus](1, nil, ttl),
		logger:   defaultLogger(logger),
	}
}

// ListCampuses returns every campus ordered by ID.
func (s *CampusService) ListCampuses(ctx context.Context) ([]Campus, error) {
	if s == nil || s.campuses == nil {
		return nil, fmt.Errorf("campus repository not configured")
	}
	if cached, ok := s.cache.Get(campusCacheKey); ok {
		return cloneCampuses(cached), nil
	}

	models, err := s.campuses.ListCampuses(ctx)
	if err != nil {
		err = mapRepoError(err)
		serviceLogger(ctx, s.logger, "CampusService", "ListCampuses").
			ErrorContext(ctx, "failed to list campuses", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	campuses := make([]Campus, 0, len(models))
	for _, model := range models {
		campuses = append(campuses, toCampus(model))
	}
	s.cache.Add(campusCacheKey, campuses)
	return cloneCampuses(campuses), nil
}

// Invalidate drops the cached listing.
func (s *CampusService) Invalidate() {
	if s != nil {
		s.cache.Purge()
	}
}

func cloneCampuses(campuses []Campus) []Campus {
	out := make([]Campus, len(campuses))
	copy(out, campuses)
	return out
}
