package app

import (
	"context"
	"time"

	"wellness/internal/domain"
)

const maxReviewDays = 366

// ReviewService rolls logged calories and weigh-ins up per day.
type ReviewService struct {
	weightRepo domain.WeightRepository
	logRepo    domain.LogRepository
	now        func() time.Time
}

// NewReviewService creates a ReviewService backed by the given repositories.
func NewReviewService(wr domain.WeightRepository, lr domain.LogRepository) *ReviewService {
	return &ReviewService{weightRepo: wr, logRepo: lr, now: time.Now}
}

// DayPoint is a single day returned by GetDaily.
type DayPoint struct {
	Day      string       `json:"day"`
	Logged   bool         `json:"logged"`
	Calories int          `json:"calories"`
	Target   int          `json:"target"`
	Weight   *WeightValue `json:"weight"`
}

// WeightValue is the optional weight within a DayPoint.
type WeightValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// GetDaily returns one point per day for the last days days ending today,
// with weights converted to unit.
func (s *ReviewService) GetDaily(ctx context.Context, userID int64, days int, unit string) ([]DayPoint, error) {
	if !domain.ValidUnit(unit) {
		return nil, errUnit
	}
	if days > maxReviewDays {
		days = maxReviewDays
	}
	if days < 1 {
		days = 1
	}

	entries, err := s.logRepo.ListLogEntries(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]domain.LogEntry, len(entries))
	for _, e := range entries {
		byDay[e.Day] = e
	}

	today := s.now().In(time.Local)
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStr := today.AddDate(0, 0, -i).Format(domain.DayLayout)

		entry, err := s.weightRepo.LatestWeightForLocalDay(ctx, userID, dayStr)
		if err != nil {
			return nil, err
		}
		var wv *WeightValue
		if entry != nil {
			wv = &WeightValue{Value: domain.ConvertWeight(entry.Value, entry.Unit, unit), Unit: unit}
		}

		log := byDay[dayStr]
		points = append(points, DayPoint{
			Day:      dayStr,
			Logged:   log.Logged,
			Calories: log.Calories,
			Target:   log.Target,
			Weight:   wv,
		})
	}
	return points, nil
}
