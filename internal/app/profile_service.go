package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellness/internal/domain"
)

var errUnit = errors.New("unit must be \"kg\" or \"lb\"")

// ProfileService reads and validates user profiles.
type ProfileService struct {
	repo domain.ProfileRepository
	now  func() time.Time
}

// NewProfileService creates a ProfileService backed by the given repository.
func NewProfileService(repo domain.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo, now: time.Now}
}

// Get returns the profile or domain.ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %d: %w", userID, domain.ErrNotFound)
	}
	return p, nil
}

// Save validates p and stores it. Histories are owned by their own
// repositories and are not persisted with the profile.
func (s *ProfileService) Save(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetProfile(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	saved := *p
	saved.LogHistory, saved.WeightHistory = nil, nil
	saved.UpdatedAt = s.now()
	saved.CreatedAt = saved.UpdatedAt
	if existing != nil {
		saved.CreatedAt = existing.CreatedAt
	}
	if err := s.repo.SaveProfile(ctx, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ValidateProfile checks ranges and enum values of the fields that are set.
// Missing biometric fields are allowed here; the goal calculator rejects them.
func ValidateProfile(p *domain.UserProfile) error {
	if p == nil {
		return errors.New("profile is required")
	}
	if p.UserID <= 0 {
		return errors.New("userId must be > 0")
	}
	if p.WeightKG != nil && (*p.WeightKG <= 0 || *p.WeightKG > 500) {
		return errors.New("weightKg must be in (0, 500]")
	}
	if p.HeightCM != nil && (*p.HeightCM < 50 || *p.HeightCM > 275) {
		return errors.New("heightCm must be in [50, 275]")
	}
	if p.Age != nil && (*p.Age < 13 || *p.Age > 120) {
		return errors.New("age must be in [13, 120]")
	}
	if p.Gender != nil && *p.Gender != domain.GenderMale && *p.Gender != domain.GenderFemale {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedGender, *p.Gender)
	}
	switch p.ActivityLevel {
	case "", domain.ActivitySedentary, domain.ActivityLight, domain.ActivityModerate,
		domain.ActivityActive, domain.ActivityVeryActive:
	default:
		return fmt.Errorf("unknown activity level %q", p.ActivityLevel)
	}
	switch p.Goal {
	case "", domain.GoalWeightLoss, domain.GoalWeightGain, domain.GoalMaintain:
	default:
		return fmt.Errorf("unknown goal %q", p.Goal)
	}
	if p.CyclePhase != nil {
		switch *p.CyclePhase {
		case domain.PhaseMenstruation, domain.PhaseFollicular, domain.PhaseOvulation, domain.PhaseLuteal:
		default:
			return fmt.Errorf("unknown cycle phase %q", *p.CyclePhase)
		}
	}
	return nil
}

// ValidateCheckIn checks the ranges a check-in must respect.
func ValidateCheckIn(c domain.DailyCheckIn) error {
	if c.SleepHours < 0 || c.SleepHours > 12 {
		return errors.New("sleepHours must be in [0, 12]")
	}
	if c.Mood < 1 || c.Mood > 10 {
		return errors.New("mood must be in [1, 10]")
	}
	if c.Hunger < 1 || c.Hunger > 10 {
		return errors.New("hunger must be in [1, 10]")
	}
	for _, l := range []domain.Level{c.Stress, c.Energy} {
		switch l {
		case domain.LevelLow, domain.LevelMedium, domain.LevelHigh:
		default:
			return fmt.Errorf("level must be low, medium or high, got %q", l)
		}
	}
	for _, s := range c.Situations {
		switch s {
		case domain.SituationSick, domain.SituationTravel, domain.SituationHighStress, domain.SituationPeriod,
			domain.SituationEvent, domain.SituationHighActivity, domain.SituationWorkingLate, domain.SituationNormal:
		default:
			return fmt.Errorf("unknown situation %q", s)
		}
	}
	if c.Day != "" {
		if _, err := domain.ParseDay(c.Day); err != nil {
			return fmt.Errorf("day must be YYYY-MM-DD: %w", err)
		}
	}
	return nil
}
