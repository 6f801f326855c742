package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/pipeline"
	"github.com/jonathan/signal-outreach/internal/server/middleware"
	"github.com/jonathan/signal-outreach/internal/types"
)

// handleListSignals lists stored signals newest first.
// Query params: status (generated|error), limit.
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	status := types.Status(r.URL.Query().Get("status"))
	if status != "" && status != types.StatusGenerated && status != types.StatusError {
		s.errorFromErr(w, &ErrValidation{Field: "status", Message: "must be generated or error"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errorFromErr(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}

	stored, err := s.signals.List(r.Context())
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	summaries := make([]SignalSummary, 0, len(stored))
	for _, rec := range stored {
		if status != "" && rec.Status != status {
			continue
		}
		summaries = append(summaries, Summarize(rec))
		if limit > 0 && len(summaries) == limit {
			break
		}
	}
	s.jsonResponse(w, http.StatusOK, ListResponse{Signals: summaries, Count: len(summaries)})
}

// lookup loads the stored record named by the {id} path value
func (s *Server) lookup(r *http.Request) (types.StoredSignal, error) {
	id := r.PathValue("id")
	entry, err := s.signals.Get(r.Context(), id)
	if err != nil {
		return types.StoredSignal{}, err
	}
	if !entry.Exists {
		return types.StoredSignal{}, &ErrSignalNotFound{ID: id}
	}
	return entry.Data, nil
}

// handleGetSignal returns the full stored record
func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	stored, err := s.lookup(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stored)
}

// handleLandingPage serves the generated landing page as HTML
func (s *Server) handleLandingPage(w http.ResponseWriter, r *http.Request) {
	stored, err := s.lookup(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if !stored.HasLandingPage() {
		s.errorFromErr(w, &ErrNoLandingPage{ID: stored.Signal.ID})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(stored.LandingPageHTML))
}

// handlePreview renders the landing page to an image
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.previewer == nil {
		s.errorResponse(w, http.StatusNotImplemented, "previews are not enabled")
		return
	}
	stored, err := s.lookup(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if !stored.HasLandingPage() {
		s.errorFromErr(w, &ErrNoLandingPage{ID: stored.Signal.ID})
		return
	}

	img, err := s.previewer.Screenshot(r.Context(), stored.LandingPageHTML)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	w.Header().Set("Content-Type", s.previewType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// handleRegenerate reruns the pipeline from the stored signal and entities
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	stored, err := s.lookup(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	operator, _ := middleware.GetOperator(r)
	s.log.Info("Regenerating signal",
		logger.String("signal_id", stored.Signal.ID),
		logger.String("operator", operator),
	)

	sig := stored.Signal
	s.runAndRespond(w, r, pipeline.Input{Signal: &sig, Entities: stored.Entities, Raw: stored.RawSignal})
}

// handleDeleteSignal removes a stored record and its index entry
func (s *Server) handleDeleteSignal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.signals.Delete(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if !deleted {
		s.errorFromErr(w, &ErrSignalNotFound{ID: id})
		return
	}

	operator, _ := middleware.GetOperator(r)
	s.log.Info("Deleted signal", logger.String("signal_id", id), logger.String("operator", operator))
	s.jsonResponse(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}
