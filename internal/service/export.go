package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/repository"
	"github.com/templui/goalstash/internal/storage"
)

type ExportedGoal struct {
	*model.Goal
	Stats []*model.GoalStat `json:"stats"`
}

type Export struct {
	ExportedAt time.Time      `json:"exportedAt"`
	UserID     string         `json:"userId"`
	Goals      []ExportedGoal `json:"goals"`
}

type Archive struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportService snapshots a user's goals with their ledgers. Archives go to
// object storage when it is configured.
type ExportService struct {
	goalRepo repository.GoalRepository
	statRepo repository.GoalStatRepository
	storage  storage.Storage
	now      func() time.Time
}

// NewExportService accepts a nil storage; Archive then returns storage.ErrNotConfigured.
func NewExportService(goalRepo repository.GoalRepository, statRepo repository.GoalStatRepository, store storage.Storage) *ExportService {
	return &ExportService{
		goalRepo: goalRepo,
		statRepo: statRepo,
		storage:  store,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ExportService) Export(ctx context.Context, userID string) (*Export, error) {
	goals, err := s.goalRepo.Goals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	export := &Export{
		ExportedAt: s.now(),
		UserID:     userID,
		Goals:      make([]ExportedGoal, 0, len(goals)),
	}

	for _, goal := range goals {
		stats, err := s.statRepo.Stats(ctx, goal.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list stats for goal %s: %w", goal.ID, err)
		}
		export.Goals = append(export.Goals, ExportedGoal{Goal: goal, Stats: stats})
	}

	return export, nil
}

// Archive stores the export as JSON and returns its key and a presigned download URL.
func (s *ExportService) Archive(ctx context.Context, userID string) (*Archive, error) {
	if s.storage == nil {
		return nil, storage.ErrNotConfigured
	}

	export, err := s.Export(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userID, export.ExportedAt.Format("20060102T150405Z"))
	err = s.storage.Save(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		return nil, err
	}

	slog.Info("export archived", "user_id", userID, "key", key, "goals", len(export.Goals))
	return &Archive{Key: key, URL: url}, nil
}
