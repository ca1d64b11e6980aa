package adapthttp

import (
	"errors"
	"net/http"

	"wellness/internal/app"
	"wellness/internal/domain"
)

func (s *Server) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Sources []domain.CalorieSource `json:"sources"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.svc.Resolver.ResolveConflict(body.Sources)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEstimateExercise(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Exercise domain.Exercise     `json:"exercise"`
		WeightKG float64             `json:"weightKg"`
		Minutes  float64             `json:"minutes"`
		Budget   int                 `json:"budget"`
		Policy   domain.BudgetPolicy `json:"policy"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	est, err := s.svc.Resolver.EstimateExerciseCalories(body.Exercise, body.WeightKG, body.Minutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp := map[string]any{"estimate": est}
	if body.Budget > 0 {
		switch body.Policy {
		case domain.BudgetNone, domain.BudgetHalf, domain.BudgetFull:
		default:
			writeError(w, http.StatusBadRequest, errors.New("policy must be none, half or full"))
			return
		}
		resp["budget"] = app.ApplyExerciseCalories(body.Budget, est.Calories, body.Policy)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateFeedback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": s.svc.Feedback.Validate(body.Message)})
}
