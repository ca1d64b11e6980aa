package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellness/internal/app"
	"wellness/internal/domain"
)

type mockWeightRepo struct {
	addFn    func(ctx context.Context, userID int64, v float64, u string, t time.Time) (int64, error)
	deleteFn func(ctx context.Context, userID int64) (bool, error)
	latestFn func(ctx context.Context, userID int64, day string) (*domain.WeightEntry, error)
	listFn   func(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error)
}

func (m *mockWeightRepo) AddWeightEvent(ctx context.Context, userID int64, v float64, u string, t time.Time) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, userID, v, u, t)
	}
	return 0, nil
}

func (m *mockWeightRepo) DeleteLatestWeightEvent(ctx context.Context, userID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return false, nil
}

func (m *mockWeightRepo) LatestWeightForLocalDay(ctx context.Context, userID int64, day string) (*domain.WeightEntry, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockWeightRepo) ListRecentWeightEvents(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func TestRecordWeight_Validation(t *testing.T) {
	svc := app.NewWeightService(&mockWeightRepo{}, nil)

	tests := []struct {
		name  string
		value float64
		unit  string
	}{
		{"zero value", 0, "kg"},
		{"negative value", -5, "kg"},
		{"bad unit", 80, "stones"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.RecordWeight(context.Background(), 1, tc.value, tc.unit)
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRecordWeight_Success(t *testing.T) {
	entry := &domain.WeightEntry{ID: 1, Value: 80, Unit: "kg"}
	repo := &mockWeightRepo{
		addFn: func(_ context.Context, _ int64, _ float64, _ string, _ time.Time) (int64, error) {
			return 1, nil
		},
		latestFn: func(_ context.Context, _ int64, _ string) (*domain.WeightEntry, error) {
			return entry, nil
		},
	}
	svc := app.NewWeightService(repo, nil)
	got, today, err := svc.RecordWeight(context.Background(), 1, 80, "kg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if today == "" {
		t.Fatal("expected today string")
	}
	if got == nil || got.ID != 1 {
		t.Fatalf("unexpected entry: %v", got)
	}
}

func TestRecordWeight_RepoError(t *testing.T) {
	repo := &mockWeightRepo{
		addFn: func(_ context.Context, _ int64, _ float64, _ string, _ time.Time) (int64, error) {
			return 0, errors.New("db down")
		},
	}
	svc := app.NewWeightService(repo, nil)
	_, _, err := svc.RecordWeight(context.Background(), 1, 80, "kg")
	if err == nil {
		t.Fatal("expected error from repo")
	}
}

func TestGetTodayWeight(t *testing.T) {
	entry := &domain.WeightEntry{ID: 5, Value: 75, Unit: "kg"}
	repo := &mockWeightRepo{
		latestFn: func(_ context.Context, _ int64, day string) (*domain.WeightEntry, error) {
			if day != "2026-01-15" {
				t.Fatalf("unexpected day: %s", day)
			}
			return entry, nil
		},
	}
	svc := app.NewWeightService(repo, nil)
	got, err := svc.GetTodayWeight(context.Background(), 1, "2026-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != 5 {
		t.Fatalf("unexpected entry: %v", got)
	}
}

func TestUndoLastWeight(t *testing.T) {
	repo := &mockWeightRepo{
		deleteFn: func(_ context.Context, _ int64) (bool, error) { return true, nil },
		latestFn: func(_ context.Context, _ int64, _ string) (*domain.WeightEntry, error) { return nil, nil },
	}
	svc := app.NewWeightService(repo, nil)
	deleted, _, _, err := svc.UndoLast(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}
}

func TestListRecentWeight_Error(t *testing.T) {
	repo := &mockWeightRepo{
		listFn: func(_ context.Context, _ int64, _ int) ([]domain.WeightEntry, error) {
			return nil, errors.New("db down")
		},
	}
	svc := app.NewWeightService(repo, nil)
	_, err := svc.ListRecent(context.Background(), 1, 10)
	if err == nil {
		t.Fatal("expected error")
	}
}

type mockProfileRepo struct {
	getFn  func(ctx context.Context, userID int64) (*domain.UserProfile, error)
	saveFn func(ctx context.Context, p *domain.UserProfile) error
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProfileRepo) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, p)
	}
	return nil
}

func TestRecordWeight_UpdatesProfileInKilograms(t *testing.T) {
	var saved *domain.UserProfile
	profiles := &mockProfileRepo{
		getFn: func(_ context.Context, id int64) (*domain.UserProfile, error) {
			return &domain.UserProfile{UserID: id}, nil
		},
		saveFn: func(_ context.Context, p *domain.UserProfile) error {
			saved = p
			return nil
		},
	}
	svc := app.NewWeightService(&mockWeightRepo{}, profiles)
	if _, _, err := svc.RecordWeight(context.Background(), 7, 220.46226218, "lb"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil || saved.WeightKG == nil {
		t.Fatal("expected profile weight to be saved")
	}
	if *saved.WeightKG < 99.99 || *saved.WeightKG > 100.01 {
		t.Errorf("expected 100 kg, got %v", *saved.WeightKG)
	}
}

func TestRecordWeight_NoProfileIsFine(t *testing.T) {
	svc := app.NewWeightService(&mockWeightRepo{}, &mockProfileRepo{})
	if _, _, err := svc.RecordWeight(context.Background(), 1, 80, "kg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWeightHistory_OldestFirstInKilograms(t *testing.T) {
	repo := &mockWeightRepo{
		listFn: func(_ context.Context, _ int64, limit int) ([]domain.WeightEntry, error) {
			if limit != 28 {
				t.Fatalf("unexpected limit %d", limit)
			}
			return []domain.WeightEntry{
				{Day: "2026-01-03", Value: 176.37, Unit: "lb"},
				{Day: "2026-01-02", Value: 80.5, Unit: "kg"},
				{Day: "2026-01-01", Value: 81, Unit: "kg"},
			}, nil
		},
	}
	svc := app.NewWeightService(repo, nil)
	points, err := svc.History(context.Background(), 1, 28)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 || points[0].Day != "2026-01-01" || points[2].Day != "2026-01-03" {
		t.Fatalf("expected oldest first, got %v", points)
	}
	if points[2].WeightKG < 79.99 || points[2].WeightKG > 80.01 {
		t.Errorf("expected lb converted to ~80 kg, got %v", points[2].WeightKG)
	}
}
