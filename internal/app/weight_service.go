package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"wellness/internal/domain"
)

// WeightService records weigh-ins and serves the history the trend step needs.
type WeightService struct {
	repo     domain.WeightRepository
	profiles domain.ProfileRepository
	now      func() time.Time
}

// NewWeightService creates a WeightService. When profiles is non-nil every
// recorded weight also becomes the profile's current weight.
func NewWeightService(repo domain.WeightRepository, profiles domain.ProfileRepository) *WeightService {
	return &WeightService{repo: repo, profiles: profiles, now: time.Now}
}

// GetTodayWeight returns the latest weight entry for the given local day.
func (s *WeightService) GetTodayWeight(ctx context.Context, userID int64, today string) (*domain.WeightEntry, error) {
	return s.repo.LatestWeightForLocalDay(ctx, userID, today)
}

// RecordWeight validates and stores a new weigh-in, returning the latest
// entry for today after the insert.
func (s *WeightService) RecordWeight(ctx context.Context, userID int64, value float64, unit string) (*domain.WeightEntry, string, error) {
	if value <= 0 {
		return nil, "", errors.New("value must be > 0")
	}
	if !domain.ValidUnit(unit) {
		return nil, "", errUnit
	}
	now := s.now()
	today := localDay(now)
	if _, err := s.repo.AddWeightEvent(ctx, userID, value, unit, now); err != nil {
		return nil, today, err
	}
	if err := s.syncProfile(ctx, userID, domain.ConvertWeight(value, unit, domain.UnitKG)); err != nil {
		return nil, today, err
	}
	entry, err := s.repo.LatestWeightForLocalDay(ctx, userID, today)
	return entry, today, err
}

func (s *WeightService) syncProfile(ctx context.Context, userID int64, kg float64) error {
	if s.profiles == nil {
		return nil
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil
	}
	p.WeightKG = &kg
	p.UpdatedAt = s.now()
	return s.profiles.SaveProfile(ctx, p)
}

// ListRecent returns the most recent weight events up to limit, newest first.
func (s *WeightService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	return s.repo.ListRecentWeightEvents(ctx, userID, limit)
}

// History returns up to limit weigh-ins in kilograms, oldest first.
func (s *WeightService) History(ctx context.Context, userID int64, limit int) ([]domain.WeightPoint, error) {
	entries, err := s.repo.ListRecentWeightEvents(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	points := make([]domain.WeightPoint, len(entries))
	for i, e := range entries {
		points[i] = e.Point()
	}
	slices.Reverse(points)
	return points, nil
}

// UndoLast deletes the most recent weight event and returns the new latest
// entry for today.
func (s *WeightService) UndoLast(ctx context.Context, userID int64) (bool, *domain.WeightEntry, string, error) {
	today := localDay(s.now())
	deleted, err := s.repo.DeleteLatestWeightEvent(ctx, userID)
	if err != nil {
		return false, nil, today, err
	}
	entry, _ := s.repo.LatestWeightForLocalDay(ctx, userID, today)
	return deleted, entry, today, nil
}
