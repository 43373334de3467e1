package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/evanschultz/fbagate/internal/domain"
)

// errNoSnapshotStore is returned when saving without a configured store.
var errNoSnapshotStore = errors.New("snapshot store is not configured")

// SaveCompetitorSnapshot caches competitor research fields for a project.
func (s *Service) SaveCompetitorSnapshot(ctx context.Context, projectID string, snap domain.CompetitorSnapshot) error {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	return s.putSnapshot(ctx, domain.CompetitorSnapshotKey(projectID), snap)
}

// LoadCompetitorSnapshot returns the cached competitor snapshot, or nil when
// none is stored or the cached value cannot be decoded.
func (s *Service) LoadCompetitorSnapshot(ctx context.Context, projectID string) (*domain.CompetitorSnapshot, error) {
	var snap domain.CompetitorSnapshot
	ok, err := s.getSnapshot(ctx, domain.CompetitorSnapshotKey(projectID), &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

// SaveViabilitySnapshot caches viability calculator output for a project.
// The margin is recomputed from the cost fields before storing.
func (s *Service) SaveViabilitySnapshot(ctx context.Context, projectID string, snap domain.ViabilitySnapshot) error {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	return s.putSnapshot(ctx, domain.ViabilitySnapshotKey(projectID), snap.WithComputedMargin())
}

// LoadViabilitySnapshot returns the cached viability snapshot, or nil when
// none is stored or the cached value cannot be decoded.
func (s *Service) LoadViabilitySnapshot(ctx context.Context, projectID string) (*domain.ViabilitySnapshot, error) {
	var snap domain.ViabilitySnapshot
	ok, err := s.getSnapshot(ctx, domain.ViabilitySnapshotKey(projectID), &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (s *Service) putSnapshot(ctx context.Context, key string, value any) error {
	if s.snapshots == nil {
		return errNoSnapshotStore
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	return s.snapshots.PutSnapshot(ctx, key, raw)
}

// getSnapshot decodes the value at key into out. Missing and corrupt values
// both report ok=false without an error.
func (s *Service) getSnapshot(ctx context.Context, key string, out any) (bool, error) {
	if s.snapshots == nil {
		return false, nil
	}
	raw, ok, err := s.snapshots.GetSnapshot(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Debug("ignoring corrupt snapshot", "key", key, "err", err)
		return false, nil
	}
	return true, nil
}
