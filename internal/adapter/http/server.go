package adapthttp

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wellness/internal/app"
)

// Services are the application services the HTTP adapter drives.
type Services struct {
	Profiles *app.ProfileService
	Weight   *app.WeightService
	Review   *app.ReviewService
	Coach    *app.CoachService
	Feedback *app.FeedbackGenerator
	Resolver *app.CalorieResolver
	Sync     *app.SyncManager
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc Services
}

// New creates a Server wired to the given application services.
func New(svc Services) *Server {
	return &Server{svc: svc}
}

// Handler returns the root http.Handler for the application. Routes are
// registered on one router so a known path with the wrong method gets 405.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errMethod)
	})

	r.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)

	const user = "/api/users/{id:[0-9]+}"
	r.HandleFunc(user+"/profile", s.handleProfileGet).Methods(http.MethodGet)
	r.HandleFunc(user+"/profile", s.handleProfilePut).Methods(http.MethodPut)
	r.HandleFunc(user+"/weight", s.handleWeightToday).Methods(http.MethodGet)
	r.HandleFunc(user+"/weight", s.handleWeightPut).Methods(http.MethodPut)
	r.HandleFunc(user+"/weight/recent", s.handleWeightRecent).Methods(http.MethodGet)
	r.HandleFunc(user+"/weight/undo-last", s.handleWeightUndoLast).Methods(http.MethodPost)
	r.HandleFunc(user+"/daily", s.handleDaily).Methods(http.MethodGet)

	r.HandleFunc(user+"/checkins", s.handleCheckIn).Methods(http.MethodPost)
	r.HandleFunc(user+"/today", s.handleToday).Methods(http.MethodGet)
	r.HandleFunc(user+"/foods", s.handleFood).Methods(http.MethodPost)
	r.HandleFunc(user+"/exercises", s.handleExercise).Methods(http.MethodPost)
	r.HandleFunc(user+"/end-of-day", s.handleEndDay).Methods(http.MethodPost)
	r.HandleFunc(user+"/streak", s.handleStreak).Methods(http.MethodGet)
	r.HandleFunc(user+"/weekly-review", s.handleWeeklyReview).Methods(http.MethodGet)

	r.HandleFunc("/api/conflicts/resolve", s.handleResolveConflict).Methods(http.MethodPost)
	r.HandleFunc("/api/exercise/estimate", s.handleEstimateExercise).Methods(http.MethodPost)
	r.HandleFunc("/api/feedback/validate", s.handleValidateFeedback).Methods(http.MethodPost)

	r.HandleFunc("/api/sync/queue", s.handleSyncQueue).Methods(http.MethodGet)
	r.HandleFunc("/api/sync/flush", s.handleSyncFlush).Methods(http.MethodPost)
	r.HandleFunc("/api/sync/items/{itemID}/retry", s.handleSyncRetry).Methods(http.MethodPost)
	r.HandleFunc("/api/drafts/{key}/resubmit", s.handleDraftResubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/drafts/recover", s.handleDraftsRecover).Methods(http.MethodGet)

	r.Use(s.loggingMiddleware, withNoCache)
	return r
}

var errMethod = errors.New("method not allowed")

var errUserID = errors.New("user id must be a positive integer")

func userID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errUserID
	}
	return id, nil
}
