package adapthttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"wellness/internal/domain"
)

// levelInput accepts either a level name or a 1-5 rating.
type levelInput domain.Level

func (l *levelInput) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		if n < 1 || n > 5 {
			return fmt.Errorf("rating must be in [1, 5], got %d", n)
		}
		*l = levelInput(domain.CollapseFivePoint(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("level must be a name or a 1-5 rating: %w", err)
	}
	*l = levelInput(s)
	return nil
}

type checkInRequest struct {
	Day         string             `json:"day"`
	SleepHours  float64            `json:"sleepHours"`
	Stress      levelInput         `json:"stress"`
	Energy      levelInput         `json:"energy"`
	Mood        int                `json:"mood"`
	Situations  []domain.Situation `json:"situations"`
	Hunger      int                `json:"hunger"`
	BaseWorkout *domain.Workout    `json:"baseWorkout"`
}

var defaultWorkout = domain.Workout{Type: "cardio", Intensity: "moderate", DurationMin: 30}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body checkInRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ci := domain.DailyCheckIn{
		Day:        body.Day,
		SleepHours: body.SleepHours,
		Stress:     domain.Level(body.Stress),
		Energy:     domain.Level(body.Energy),
		Mood:       body.Mood,
		Situations: body.Situations,
		Hunger:     body.Hunger,
	}
	base := defaultWorkout
	if body.BaseWorkout != nil {
		base = *body.BaseWorkout
	}
	st, err := s.svc.Coach.StartDay(r.Context(), id, ci, base)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.svc.Coach.Today(r.Context(), id)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleFood(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var f domain.Food
	if err := parseJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.svc.Coach.LogFood(r.Context(), id, f)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExercise(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		Exercise domain.Exercise `json:"exercise"`
		Minutes  float64         `json:"minutes"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.svc.Coach.LogExercise(r.Context(), id, body.Exercise, body.Minutes)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEndDay(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sum, err := s.svc.Coach.EndDay(r.Context(), id)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := s.svc.Coach.Streak(r.Context(), id)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleWeeklyReview(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rev, err := s.svc.Coach.WeeklyReview(r.Context(), id)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}
