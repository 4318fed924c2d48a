package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	psotel "github.com/omargawdat/pii-shield/internal/otel"
	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/pipeline"
	"github.com/omargawdat/pii-shield/internal/strategy"
	"github.com/omargawdat/pii-shield/internal/validation"
)

var errEmptyText = errors.New("text is required")

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, strategiesResponse{
		Strategies: strategy.Names(),
		Default:    strategy.NameRedaction,
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errEmptyText.Error())
		return
	}
	threshold := s.threshold
	if req.LLMThreshold != nil {
		threshold = *req.LLMThreshold
		if threshold < 0 || threshold > 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "llm_threshold must be between 0.0 and 1.0")
			return
		}
	}

	proc := s.processor.With(pipeline.WithStrategy(nil), pipeline.WithValidator(nil, threshold))
	if req.UseLLM {
		v := s.validator
		if v == nil {
			v = validation.New(nil)
		}
		if req.LLMModel != "" {
			v = v.WithModelOverride(req.LLMModel)
		}
		proc = proc.With(pipeline.WithValidator(v, threshold))
	}

	report := proc.Process(r.Context(), req.Text)
	log.Info().Str("report_id", report.ID).Int("pii_count", report.PIICount()).Bool("use_llm", req.UseLLM).
		Func(psotel.LogTraceFields(r.Context())).Msg("detect_completed")

	writeJSON(w, http.StatusOK, detectResponse{
		ID:               report.ID,
		Matches:          detectMatches(report, threshold),
		Summary:          report.Summary(),
		ProcessingTimeMS: report.ProcessingTimeMS(),
	})
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errEmptyText.Error())
		return
	}
	st, ok := s.strategy(w, req.Strategy)
	if !ok {
		return
	}
	offsets := pii.NewOffsets(req.Text)
	matches := make([]pii.Match, len(req.Matches))
	for i, m := range req.Matches {
		match, err := fromMatchJSON(offsets, m)
		if err != nil {
			status, code := statusFor(err)
			writeError(w, status, code, fmt.Sprintf("match %d: %v", i, err))
			return
		}
		matches[i] = match
	}

	report, err := s.processor.With(pipeline.WithStrategy(st)).Anonymize(r.Context(), req.Text, matches)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err.Error())
		return
	}
	log.Info().Str("report_id", report.ID).Int("pii_count", report.PIICount()).Str("strategy", st.Name()).
		Func(psotel.LogTraceFields(r.Context())).Msg("anonymize_completed")
	writeJSON(w, http.StatusOK, anonymizeResult(report))
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errEmptyText.Error())
		return
	}
	st, ok := s.strategy(w, req.Strategy)
	if !ok {
		return
	}
	opts := []pipeline.Option{pipeline.WithStrategy(st), pipeline.WithValidator(nil, s.threshold)}
	if req.MinConfidence != nil {
		if *req.MinConfidence < 0 || *req.MinConfidence > 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "min_confidence must be between 0.0 and 1.0")
			return
		}
		opts = append(opts, pipeline.WithMinConfidence(*req.MinConfidence))
	}

	report := s.processor.With(opts...).Process(r.Context(), req.Text)
	log.Info().Str("report_id", report.ID).Int("pii_count", report.PIICount()).Str("strategy", st.Name()).
		Func(psotel.LogTraceFields(r.Context())).Msg("process_completed")
	writeJSON(w, http.StatusOK, anonymizeResult(report))
}

// decode reads a JSON body capped at maxBodyBytes and writes a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) strategy(w http.ResponseWriter, name string) (strategy.Strategy, bool) {
	if name == "" {
		name = strategy.NameRedaction
	}
	st, err := strategy.New(name, s.strategyOpts)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err.Error())
		return nil, false
	}
	return st, true
}

// statusFor maps domain errors to HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, strategy.ErrUnknownStrategy):
		return http.StatusBadRequest, "unknown_strategy"
	case errors.Is(err, pii.ErrInvalidSpan):
		return http.StatusBadRequest, "invalid_span"
	case errors.Is(err, pii.ErrInvalidConfidence):
		return http.StatusBadRequest, "invalid_confidence"
	case errors.Is(err, pipeline.ErrNoStrategy):
		return http.StatusBadRequest, "unknown_strategy"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
