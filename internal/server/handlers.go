package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/pipeline"
	"github.com/jonathan/signal-outreach/internal/types"
)

// maxBodyBytes bounds webhook and inline signal bodies
const maxBodyBytes = 1 << 20

// SignalRequest is the body of POST /signals and POST /signals/stream
type SignalRequest struct {
	Signal   *types.Signal   `json:"signal" validate:"required"`
	Entities types.Entities  `json:"entities,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// WebhookResponse acknowledges a webhook delivery
type WebhookResponse struct {
	Accepted   bool   `json:"accepted"`
	DeliveryID string `json:"delivery_id"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator output into the first failing field
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return &ErrValidation{Field: field, Message: fe.Tag()}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// decodeSignalRequest reads and validates an inline signal body
func (s *Server) decodeSignalRequest(w http.ResponseWriter, r *http.Request) (*SignalRequest, error) {
	var req SignalRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if strings.TrimSpace(req.Signal.ID) == "" {
		return nil, &ErrValidation{Field: "signal.id", Message: "required"}
	}
	return &req, nil
}

func (req *SignalRequest) input() pipeline.Input {
	return pipeline.Input{Signal: req.Signal, Entities: req.Entities, Raw: req.Raw}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook accepts a signals webhook and processes it in the background
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !json.Valid(body) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: not JSON")
		return
	}

	deliveryID := uuid.New().String()
	s.log.Info("Webhook accepted",
		logger.String("delivery_id", deliveryID),
		logger.Int("bytes", len(body)),
	)
	s.pipeline.RunAsync(r.Context(), pipeline.Input{Webhook: body})

	s.jsonResponse(w, http.StatusAccepted, WebhookResponse{Accepted: true, DeliveryID: deliveryID})
}

// handleCreateSignal runs the pipeline for an inline signal and waits for it
func (s *Server) handleCreateSignal(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeSignalRequest(w, r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	s.runAndRespond(w, r, req.input())
}

// handleStreamSignal runs an inline signal and streams progress via SSE
func (s *Server) handleStreamSignal(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeSignalRequest(w, r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	in := req.input()
	in.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			s.log.Warn("Error writing SSE event", logger.Error(err))
		}
	}

	result, err := s.pipeline.Run(r.Context(), in)
	if err != nil {
		s.log.Error("Streaming pipeline run failed", logger.Error(err))
		sse.WriteError((&ErrPipeline{Err: err}).Error())
		return
	}
	sse.WriteComplete(result)
}

// runAndRespond runs in synchronously. Success is 200, a recorded
// generation failure is 422 and an unrecorded failure is 500.
func (s *Server) runAndRespond(w http.ResponseWriter, r *http.Request, in pipeline.Input) {
	result, err := s.pipeline.Run(r.Context(), in)
	if err != nil {
		s.errorFromErr(w, &ErrPipeline{Err: err})
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, result)
}
