package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store"
	"github.com/zlytics/wallet-insights/internal/store/schema"
)

const snapshotWindow = 30 * 24 * time.Hour

// Service tracks whether acted-on recommendations actually moved the metrics
type Service struct {
	store store.Store
	clock adapter.Clock
}

// NewService creates a new task service
func NewService(s store.Store, clock adapter.Clock) *Service {
	return &Service{store: s, clock: clock}
}

// TaskStatus is the externally visible state of a recommendation task
type TaskStatus struct {
	TaskID             string                    `json:"task_id"`
	RecommendationID   string                    `json:"recommendation_id"`
	WalletID           string                    `json:"wallet_id"`
	Status             domain.TaskStatus         `json:"status"`
	Check              CompletionCheck           `json:"check"`
	EffectivenessScore float64                   `json:"effectiveness_score"`
	EffectivenessLevel domain.EffectivenessLevel `json:"effectiveness_level,omitempty"`
	CompletedAt        *time.Time                `json:"completed_at,omitempty"`
}

// CreateTask opens a task for a recommendation against a wallet, capturing
// the wallet's current metrics as the baseline
func (s *Service) CreateTask(ctx context.Context, recommendationID, walletID string) (*TaskStatus, error) {
	rec, err := s.store.GetRecommendation(ctx, recommendationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation: %w", err)
	}
	if rec == nil {
		return nil, domain.NewValidationError("recommendation_id", "unknown recommendation")
	}

	wallet, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}

	baseline, err := s.snapshot(ctx, walletID)
	if err != nil {
		return nil, err
	}
	baselineJSON, err := json.Marshal(baseline)
	if err != nil {
		return nil, fmt.Errorf("failed to encode baseline: %w", err)
	}

	row := &schema.Task{
		ID:               uuid.New().String(),
		RecommendationID: recommendationID,
		WalletID:         walletID,
		Baseline:         baselineJSON,
		Status:           domain.TaskStatusPending,
		CreatedAt:        s.clock.Now().UTC(),
	}
	if err := s.store.CreateTask(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return &TaskStatus{
		TaskID:           row.ID,
		RecommendationID: recommendationID,
		WalletID:         walletID,
		Status:           domain.TaskStatusPending,
	}, nil
}

// CheckTask re-evaluates a task's completion indicators against the wallet's
// live metrics. When the 80% bar is reached the task closes and its
// effectiveness is graded; completed tasks are returned as-is.
func (s *Service) CheckTask(ctx context.Context, taskID string) (*TaskStatus, error) {
	row, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if row == nil {
		return nil, domain.ErrTaskNotFound
	}

	if row.Status == domain.TaskStatusCompleted {
		return taskStatusFromRow(row), nil
	}

	rec, err := s.store.GetRecommendation(ctx, row.RecommendationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation: %w", err)
	}
	if rec == nil {
		return nil, domain.NewValidationError("recommendation_id", "task references an unknown recommendation")
	}

	var indicators map[string]float64
	if len(rec.CompletionIndicators) > 0 {
		if err := json.Unmarshal(rec.CompletionIndicators, &indicators); err != nil {
			return nil, fmt.Errorf("failed to decode completion indicators: %w", err)
		}
	}

	var baseline Snapshot
	if len(row.Baseline) > 0 {
		if err := json.Unmarshal(row.Baseline, &baseline); err != nil {
			return nil, fmt.Errorf("failed to decode baseline: %w", err)
		}
	}

	current, err := s.snapshot(ctx, row.WalletID)
	if err != nil {
		return nil, err
	}

	check := CheckCompletionIndicators(indicators, baseline, current)

	row.CompletionPercentage = check.CompletionPercentage
	status := &TaskStatus{
		TaskID:           row.ID,
		RecommendationID: row.RecommendationID,
		WalletID:         row.WalletID,
		Status:           domain.TaskStatusPending,
		Check:            check,
	}

	if check.IsCompleted {
		eff := CalculateEffectiveness(baseline, current, string(rec.Type))
		completedAt := s.clock.Now().UTC()

		row.Status = domain.TaskStatusCompleted
		row.EffectivenessScore = eff.Score
		row.EffectivenessLevel = eff.Level
		row.CompletedAt = &completedAt

		status.Status = domain.TaskStatusCompleted
		status.EffectivenessScore = eff.Score
		status.EffectivenessLevel = eff.Level
		status.CompletedAt = &completedAt
	}

	if err := s.store.UpdateTaskCompletion(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return status, nil
}

func taskStatusFromRow(row *schema.Task) *TaskStatus {
	return &TaskStatus{
		TaskID:           row.ID,
		RecommendationID: row.RecommendationID,
		WalletID:         row.WalletID,
		Status:           row.Status,
		Check: CompletionCheck{
			IsCompleted:          row.Status == domain.TaskStatusCompleted,
			CompletionPercentage: row.CompletionPercentage,
		},
		EffectivenessScore: row.EffectivenessScore,
		EffectivenessLevel: row.EffectivenessLevel,
		CompletedAt:        row.CompletedAt,
	}
}

// snapshot captures a wallet's current metrics: latest score components plus
// recent activity aggregates
func (s *Service) snapshot(ctx context.Context, walletID string) (Snapshot, error) {
	now := s.clock.Now().UTC()

	snap := Snapshot{
		Metrics:           make(map[string]float64),
		LastActiveDaysAgo: -1,
	}

	score, err := s.store.GetLatestScore(ctx, walletID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load score: %w", err)
	}
	if score != nil {
		snap.Metrics["total_score"] = score.TotalScore
		snap.Metrics["retention_score"] = score.RetentionScore
		snap.Metrics["adoption_score"] = score.AdoptionScore
		snap.Metrics["activity_score"] = score.ActivityScore
		snap.Metrics["diversity_score"] = score.DiversityScore
	}

	samples, err := s.store.GetMetricSamples(ctx, walletID, now.Add(-snapshotWindow))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load samples: %w", err)
	}
	for _, sample := range samples {
		snap.TransactionCount += sample.TransactionCount
		if sample.Active {
			daysAgo := int(now.Sub(sample.Date).Hours() / 24)
			if snap.LastActiveDaysAgo < 0 || daysAgo < snap.LastActiveDaysAgo {
				snap.LastActiveDaysAgo = daysAgo
			}
		}
	}
	snap.Metrics["transaction_count"] = float64(snap.TransactionCount)

	// Churn prevention targets the project-wide churn share, not a per-wallet
	// value, so it is sampled from the latest scores of the whole project.
	wallet, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet != nil {
		scores, err := s.store.GetLatestProjectScores(ctx, wallet.ProjectID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load project scores: %w", err)
		}
		if len(scores) > 0 {
			churned := 0
			for _, sc := range scores {
				if sc.Status == domain.HealthStatusChurn {
					churned++
				}
			}
			snap.Metrics[IndicatorChurnPercentage] = float64(churned) / float64(len(scores)) * 100
		}
	}

	return snap, nil
}
