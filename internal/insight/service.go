package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/benchmark"
	"github.com/zlytics/wallet-insights/internal/comparison"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

// Service produces competitive insights and persisted recommendations
type Service struct {
	store      store.Store
	comparison *comparison.Service
	clock      adapter.Clock
}

// NewService creates a new insight service
func NewService(s store.Store, cmp *comparison.Service, clock adapter.Clock) *Service {
	return &Service{store: s, comparison: cmp, clock: clock}
}

// ProjectInsights is the combined competitive picture of a project
type ProjectInsights struct {
	ProjectID   string                       `json:"project_id"`
	Health      ProjectHealth                `json:"health"`
	Position    comparison.OverallPosition   `json:"position"`
	Advantage   CompetitiveAdvantage         `json:"advantage"`
	QuickWins   []QuickWin                   `json:"quick_wins"`
	Declining   map[string][]DecliningMetric `json:"declining_metrics"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// Insights builds the competitive picture for a project: health tallies,
// market position, advantage grade, quick wins, and per-wallet declining
// metrics
func (s *Service) Insights(ctx context.Context, projectID string) (*ProjectInsights, error) {
	cmp, err := s.comparison.CompareProjectToMarket(ctx, projectID, benchmark.TargetP50)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.GetLatestProjectScores(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	scores := make([]domain.ProductivityScore, 0, len(rows))
	declining := make(map[string][]DecliningMetric)
	for _, row := range rows {
		score := row.Domain()
		scores = append(scores, score)
		if d := IdentifyDecliningMetrics(score); len(d) > 0 {
			declining[score.WalletID] = d
		}
	}

	return &ProjectInsights{
		ProjectID:   projectID,
		Health:      AnalyzeProjectHealth(scores),
		Position:    cmp.Position,
		Advantage:   CalculateCompetitiveAdvantage(cmp.Position, cmp.Gaps),
		QuickWins:   IdentifyQuickWins(cmp.Gaps),
		Declining:   declining,
		GeneratedAt: s.clock.Now().UTC(),
	}, nil
}

// Recommendations generates strategic recommendations for a project from its
// current gaps and health, persists them, and returns them highest priority
// first
func (s *Service) Recommendations(ctx context.Context, projectID string) ([]domain.Recommendation, error) {
	cmp, err := s.comparison.CompareProjectToMarket(ctx, projectID, benchmark.TargetP50)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.GetLatestProjectScores(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	scores := make([]domain.ProductivityScore, 0, len(rows))
	for _, row := range rows {
		scores = append(scores, row.Domain())
	}

	recs := GenerateStrategicRecommendations(AnalyzeProjectHealth(scores), cmp.Gaps)
	if len(recs) == 0 {
		return nil, nil
	}

	now := s.clock.Now().UTC()
	schemaRecs := make([]*schema.Recommendation, 0, len(recs))
	for i := range recs {
		recs[i].ID = uuid.New().String()
		indicators, err := json.Marshal(recs[i].CompletionIndicators)
		if err != nil {
			return nil, fmt.Errorf("failed to encode completion indicators: %w", err)
		}
		schemaRecs = append(schemaRecs, &schema.Recommendation{
			ID:                   recs[i].ID,
			ProjectID:            projectID,
			Type:                 recs[i].Type,
			Title:                recs[i].Title,
			Priority:             recs[i].Priority,
			CurrentState:         recs[i].CurrentState,
			TargetState:          recs[i].TargetState,
			Timeline:             recs[i].Timeline,
			ExpectedImpact:       recs[i].ExpectedImpact,
			CompletionIndicators: indicators,
			EffortLevel:          recs[i].EffortLevel,
			CreatedAt:            now,
		})
	}
	if err := s.store.InsertRecommendations(ctx, schemaRecs); err != nil {
		return nil, fmt.Errorf("failed to persist recommendations: %w", err)
	}

	return recs, nil
}
