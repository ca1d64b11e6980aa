package adapthttp

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleSyncQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.svc.Sync.Queue()})
}

func (s *Server) handleSyncFlush(w http.ResponseWriter, r *http.Request) {
	synced := s.svc.Sync.Flush(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"synced": synced, "items": s.svc.Sync.Queue()})
}

func (s *Server) handleSyncRetry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["itemID"]
	if err := s.svc.Sync.Retry(r.Context(), id); err != nil {
		writeFailure(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": s.svc.Sync.Queue()})
}

func (s *Server) handleDraftsRecover(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.svc.Sync.RecoverUnsaved(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

func (s *Server) handleDraftResubmit(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := s.svc.Sync.Resubmit(r.Context(), key); err != nil {
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"key": key, "state": s.svc.Sync.DraftState(key)})
}
