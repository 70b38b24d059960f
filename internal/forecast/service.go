package forecast

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/weatherengine/maritime/internal/backend"
	"github.com/weatherengine/maritime/internal/cache"
	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/metrics"
	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/pkg/utils"
)

// Upstream serves raw 10-day forecasts
type Upstream interface {
	Forecast10(ctx context.Context, city string) (*backend.ForecastResponse, error)
}

// Service fetches, projects and caches forecasts per city
type Service struct {
	upstream    Upstream
	projector   *Projector
	cache       cache.Cache
	ttl         time.Duration
	defaultCity string
	now         func() time.Time

	seq     utils.Sequence
	mu      sync.RWMutex
	current *models.Forecast
}

// NewService creates the forecast service. A nil cache disables caching.
func NewService(upstream Upstream, projector *Projector, c cache.Cache, ttl time.Duration, defaultCity string) *Service {
	return &Service{
		upstream:    upstream,
		projector:   projector,
		cache:       c,
		ttl:         ttl,
		defaultCity: defaultCity,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Fetch returns the projected forecast for city. Any upstream failure
// yields the synthetic outlook with Fallback set and the reason recorded.
func (s *Service) Fetch(ctx context.Context, city string) (*models.Forecast, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = s.defaultCity
	}
	key := utils.CacheKey("forecast", city)
	log := logger.WithContext(ctx)

	if s.cache != nil {
		var cached models.Forecast
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("Forecast cache read failed", "city", city, "error", err)
		}
		if found {
			s.remember(&cached, 0)
			return &cached, nil
		}
	}

	token := s.seq.Next()
	fc, err := s.fetchUpstream(ctx, city)
	if err != nil {
		reason := fallbackReason(err)
		metrics.RecordForecastFallback(reason)
		log.Warn("Forecast unavailable, using synthetic outlook", "city", city, "reason", reason, "error", err)

		days, serr := s.projector.Synthetic(s.now())
		if serr != nil {
			return nil, serr
		}
		fc = &models.Forecast{
			City:     city,
			Days:     days,
			Summary:  Summarize(days),
			DataInfo: &models.DataInfo{EstimatedDays: len(days), Note: "Upstream forecast unavailable; showing sample outlook"},
			Fallback: true,
			Reason:   err.Error(),
		}
		s.remember(fc, token)
		return fc, nil
	}

	if s.remember(fc, token) && s.cache != nil {
		if err := s.cache.Set(ctx, key, fc, s.ttl); err != nil {
			log.Warn("Forecast cache write failed", "city", city, "error", err)
		}
	}
	return fc, nil
}

func (s *Service) fetchUpstream(ctx context.Context, city string) (*models.Forecast, error) {
	resp, err := s.upstream.Forecast10(ctx, city)
	if err != nil {
		return nil, err
	}
	days, err := s.projector.Project(resp.Days)
	if err != nil {
		return nil, err
	}
	info := resp.DataInfo
	if info == nil {
		info = Describe(days)
	}
	name := city
	if resp.Location != nil && resp.Location.Name != "" {
		name = resp.Location.Name
	}
	return &models.Forecast{
		City:     name,
		Location: resp.Location,
		Days:     days,
		Summary:  Summarize(days),
		DataInfo: info,
	}, nil
}

// remember makes fc the current forecast unless a newer fetch already
// committed. A zero token always wins, used for cache hits.
func (s *Service) remember(fc *models.Forecast, token uint64) bool {
	if token != 0 && !s.seq.Commit(token) {
		logger.Debug("Discarding stale forecast", "city", fc.City, "token", token)
		return false
	}
	s.mu.Lock()
	s.current = fc
	s.mu.Unlock()
	return true
}

// Current returns the most recently committed forecast, if any
func (s *Service) Current() *models.Forecast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// RoutePlan fetches the forecast for city and plans sailing windows
func (s *Service) RoutePlan(ctx context.Context, city string) (*models.Forecast, models.RoutePlan, error) {
	fc, err := s.Fetch(ctx, city)
	if err != nil {
		return nil, models.RoutePlan{}, err
	}
	return fc, PlanRoute(fc.Days), nil
}

func fallbackReason(err error) string {
	var be apperrors.BackendError
	switch {
	case errors.Is(err, ErrIncompleteForecast):
		return "incomplete"
	case errors.Is(err, apperrors.ErrTimeout):
		return "timeout"
	case errors.As(err, &be):
		return "backend"
	default:
		return "network"
	}
}
