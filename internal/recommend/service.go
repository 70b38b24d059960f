package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/weatherengine/maritime/internal/backend"
	"github.com/weatherengine/maritime/internal/classifier"
	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/hub"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/metrics"
	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/internal/store"
	"github.com/weatherengine/maritime/pkg/utils"
)

// Wave height assumed when live conditions carry no sea state
const DefaultWave = 2.2

// Upstream is the part of the weather backend recommendations rely on
type Upstream interface {
	CityWeather(ctx context.Context, city string) (*backend.CityWeather, error)
	Advisory(ctx context.Context, cond models.Conditions) (*models.Advisory, error)
	ApplyAction(ctx context.Context, req backend.ActionRequest) (*backend.ActionResponse, error)
}

// ApplyResult reports the outcome of applying one recommendation
type ApplyResult struct {
	Recommendation models.Recommendation `json:"recommendation"`
	AlreadyApplied bool                  `json:"alreadyApplied"`
	ActionTaken    string                `json:"actionTaken,omitempty"`
	Message        string                `json:"message,omitempty"`
}

// Service holds the current conditions and the applied set
type Service struct {
	engine   *Engine
	store    store.Store
	upstream Upstream
	events   hub.Publisher

	mu      sync.Mutex
	cond    models.Conditions
	pending map[string]bool
	seq     utils.Sequence
}

// NewService creates the recommendation service seeded with the default conditions
func NewService(engine *Engine, st store.Store, upstream Upstream, events hub.Publisher) *Service {
	if events == nil {
		events = hub.Nop{}
	}
	return &Service{
		engine:   engine,
		store:    st,
		upstream: upstream,
		events:   events,
		cond:     models.DefaultConditions(),
		pending:  make(map[string]bool),
	}
}

// Conditions returns the conditions recommendations are currently built from
func (s *Service) Conditions() models.Conditions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cond
}

// Current returns recommendations for the current conditions
func (s *Service) Current(ctx context.Context) (*models.RecommendationSet, error) {
	return s.build(ctx, s.Conditions())
}

// Analyze validates custom conditions, adopts them and returns the result
func (s *Service) Analyze(ctx context.Context, cond models.Conditions) (*models.RecommendationSet, error) {
	if fe := cond.Check(); fe != nil {
		return nil, apperrors.ValidationError{Field: fe.Field, Message: "must be a finite, non-negative number"}
	}
	s.mu.Lock()
	s.cond = cond
	s.mu.Unlock()
	return s.build(ctx, cond)
}

// RefreshConditions pulls live conditions for city. Wind arrives in m/s
// and visibility in meters; the wave height is not observed.
func (s *Service) RefreshConditions(ctx context.Context, city string) (*models.RecommendationSet, error) {
	token := s.seq.Next()
	w, err := s.upstream.CityWeather(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("refresh conditions for %s: %w", city, err)
	}

	cond := models.DefaultConditions()
	if w.Wind.Speed > 0 {
		cond.Wind = utils.MetersPerSecondToKnots(w.Wind.Speed)
	}
	cond.Wave = DefaultWave
	if w.Visibility != nil && *w.Visibility > 0 {
		cond.Visibility = utils.MetersToKilometers(*w.Visibility)
	}

	s.mu.Lock()
	if s.seq.Commit(token) {
		s.cond = cond
	} else {
		logger.Debug("Discarding stale conditions", "city", city, "token", token)
		cond = s.cond
	}
	s.mu.Unlock()
	return s.build(ctx, cond)
}

// Apply asks the upstream to carry out recommendation id. It is recorded
// as applied only after the upstream confirms.
func (s *Service) Apply(ctx context.Context, id int) (*ApplyResult, error) {
	log := logger.WithContext(ctx)
	cond := s.Conditions()

	var rec *models.Recommendation
	for _, r := range s.engine.Generate(cond) {
		if r.ID == id {
			r := r
			rec = &r
			break
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("recommendation %d: %w", id, apperrors.ErrNotFound)
	}

	applied, err := s.appliedSet(ctx)
	if err != nil {
		return nil, err
	}
	if applied[rec.Key] {
		rec.Applied = true
		return &ApplyResult{Recommendation: *rec, AlreadyApplied: true}, nil
	}

	s.mu.Lock()
	if s.pending[rec.Key] {
		s.mu.Unlock()
		return nil, fmt.Errorf("recommendation %d is being applied: %w", id, apperrors.ErrConflict)
	}
	s.pending[rec.Key] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, rec.Key)
		s.mu.Unlock()
	}()

	// An apply that finished while we were reading may have committed the key
	applied, err = s.appliedSet(ctx)
	if err != nil {
		return nil, err
	}
	if applied[rec.Key] {
		rec.Applied = true
		return &ApplyResult{Recommendation: *rec, AlreadyApplied: true}, nil
	}

	resp, err := s.upstream.ApplyAction(ctx, backend.ActionRequest{
		Action:           rec.Endpoint,
		Payload:          rec.Payload,
		RecommendationID: rec.ID,
	})
	if err == nil && !strings.EqualFold(resp.Status, "success") {
		err = apperrors.BackendError{Op: "recommendation_action", StatusCode: 200, Err: fmt.Errorf("upstream status %q", resp.Status)}
	}
	if err != nil {
		metrics.RecordAlertAction("apply_recommendation", "error")
		log.Warn("Recommendation not applied", "id", id, "key", rec.Key, "error", err)
		return nil, fmt.Errorf("apply %s: %w", rec.Title, err)
	}

	if err := s.store.SetApplied(ctx, rec.Key); err != nil {
		return nil, fmt.Errorf("record applied %s: %w", rec.Key, err)
	}
	metrics.RecordAlertAction("apply_recommendation", "success")
	log.Info("Recommendation applied", "id", id, "key", rec.Key, "action_taken", resp.ActionTaken)

	rec.Applied = true
	s.events.Publish(hub.Event{Type: hub.EventRecommendationApplied, Data: map[string]any{"id": rec.ID, "key": rec.Key}})
	return &ApplyResult{Recommendation: *rec, ActionTaken: resp.ActionTaken, Message: resp.Message}, nil
}

func (s *Service) build(ctx context.Context, cond models.Conditions) (*models.RecommendationSet, error) {
	applied, err := s.appliedSet(ctx)
	if err != nil {
		return nil, err
	}

	recs := s.engine.Generate(cond)
	set := &models.RecommendationSet{Conditions: cond, Recommendations: recs}
	for i := range recs {
		if applied[recs[i].Key] {
			recs[i].Applied = true
			set.AppliedCount++
		}
	}
	set.PendingCount = len(recs) - set.AppliedCount

	adv, err := s.upstream.Advisory(ctx, cond)
	if err != nil {
		logger.WithContext(ctx).Warn("Upstream advisory unavailable, using local rules", "error", err)
		local := classifier.Advise(cond)
		adv = &local
	}
	set.Advisory = *adv
	return set, nil
}

func (s *Service) appliedSet(ctx context.Context) (map[string]bool, error) {
	keys, err := s.store.ListApplied(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applied recommendations: %w", err)
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set, nil
}
