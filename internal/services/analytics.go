package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/neuroresolv/backend/internal/clients/redis"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

const analyticsCacheTTL = 5 * time.Minute

// LearningAnalytics summarizes a resolution's trajectory. Status is
// "no_data" until at least one metric or scored event exists.
type LearningAnalytics struct {
	Status           string   `json:"status"`
	MasteredConcepts []string `json:"mastered_concepts"`
	WeakConcepts     []string `json:"weak_concepts"`
	AverageScore     *float64 `json:"average_score,omitempty"`
	TotalEvents      int      `json:"total_events"`
}

type AnalyticsService interface {
	// Record appends a learning event. Fire and forget: failures are logged
	// and swallowed so tracing never breaks a learner-facing request.
	Record(ctx context.Context, resolutionID uuid.UUID, eventType string, input, output map[string]any, score *float64)
	Analytics(ctx context.Context, resolutionID uuid.UUID) (*LearningAnalytics, error)
}

type analyticsService struct {
	log        *logger.Logger
	eventRepo  repos.LearningEventRepo
	metricRepo repos.LearningMetricRepo
	cache      redis.Cache
}

func NewAnalyticsService(baseLog *logger.Logger, eventRepo repos.LearningEventRepo, metricRepo repos.LearningMetricRepo, cache redis.Cache) AnalyticsService {
	return &analyticsService{
		log:        baseLog.With("service", "AnalyticsService"),
		eventRepo:  eventRepo,
		metricRepo: metricRepo,
		cache:      cache,
	}
}

func (s *analyticsService) Record(ctx context.Context, resolutionID uuid.UUID, eventType string, input, output map[string]any, score *float64) {
	if resolutionID == uuid.Nil {
		return
	}
	event := &types.LearningEvent{
		ResolutionID: resolutionID,
		EventType:    eventType,
		Score:        score,
	}
	if input != nil {
		if raw, err := json.Marshal(input); err == nil {
			event.Input = datatypes.JSON(raw)
		}
		if day, ok := input["day"].(int); ok {
			event.Day = day
		}
	}
	if output != nil {
		if raw, err := json.Marshal(output); err == nil {
			event.Output = datatypes.JSON(raw)
		}
	}
	if err := s.eventRepo.Create(ctx, nil, event); err != nil {
		s.log.Warn("learning event dropped", "event_type", eventType, "error", err)
		return
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, analyticsCacheKey(resolutionID))
	}
}

func (s *analyticsService) Analytics(ctx context.Context, resolutionID uuid.UUID) (*LearningAnalytics, error) {
	key := analyticsCacheKey(resolutionID)
	if s.cache != nil {
		var cached LearningAnalytics
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	metrics, err := s.metricRepo.ListByResolution(ctx, nil, resolutionID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByResolution(ctx, nil, resolutionID, 200)
	if err != nil {
		return nil, err
	}
	avg, err := s.eventRepo.AvgScoreByType(ctx, nil, resolutionID, types.EventSessionQuizCompleted)
	if err != nil {
		return nil, err
	}

	out := &LearningAnalytics{
		Status:           "ok",
		MasteredConcepts: []string{},
		WeakConcepts:     []string{},
		AverageScore:     avg,
		TotalEvents:      len(events),
	}
	for _, metric := range metrics {
		if metric.NeedsReinforcement {
			out.WeakConcepts = append(out.WeakConcepts, metric.Concept)
		} else {
			out.MasteredConcepts = append(out.MasteredConcepts, metric.Concept)
		}
	}
	if len(metrics) == 0 && len(events) == 0 {
		out.Status = "no_data"
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, analyticsCacheTTL); err != nil {
			s.log.Warn("analytics cache write failed", "error", err)
		}
	}
	return out, nil
}

func analyticsCacheKey(resolutionID uuid.UUID) string {
	return "analytics:" + resolutionID.String()
}
