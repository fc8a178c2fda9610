package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/career-transitions/internal/ranking"
	"github.com/jonathan/career-transitions/internal/types"
)

// Limits for GET /transitions.
const (
	defaultTransitionsLimit = 500
	maxTransitionsLimit     = 5000
)

// AnswerRequest represents the request body for /answer
type AnswerRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// TransitionsResponse represents the response for /transitions
type TransitionsResponse struct {
	Source     string         `json:"source"`
	Stored     int            `json:"stored"`
	CohortSize int            `json:"cohort_size"`
	Exits      []types.Bucket `json:"exits"`
	Industries []types.Bucket `json:"industries"`
}

// decodeAnswerRequest reads and validates an AnswerRequest.
func (s *Server) decodeAnswerRequest(r *http.Request) (*AnswerRequest, error) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ErrValidation{Field: "query", Message: "failed on '" + verrs[0].Tag() + "'"}
		}
		return nil, &ErrValidation{Field: "query", Message: err.Error()}
	}
	return &req, nil
}

// handleAnswer answers one question. Handled outcomes, including failed ones, are 200.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeAnswerRequest(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	result := s.answerer.Answer(r.Context(), req.Query)
	s.jsonResponse(w, http.StatusOK, result)
}

// handleTransitions aggregates stored transitions from companies matching ?source=.
// Optional ?role= and ?industry= filter by source role and destination industry.
func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := strings.TrimSpace(q.Get("source"))
	if source == "" {
		s.errorResponse(w, &ErrValidation{Field: "source", Message: "is required"})
		return
	}

	limit := defaultTransitionsLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.errorResponse(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = min(n, maxTransitionsLimit)
	}

	stored, err := s.transitions.ListTransitionsBySource(r.Context(), source, limit)
	if err != nil {
		s.logger.Warn("failed to read transitions", zap.String("source", source), zap.Error(err))
		s.errorResponse(w, &ErrStoreUnavailable{Cause: err})
		return
	}

	agg := ranking.Aggregate(stored, ranking.Options{
		Key: ranking.KeyDestinationCompany,
		Filters: ranking.Filters{
			SourceRole:          q.Get("role"),
			DestinationIndustry: q.Get("industry"),
		},
		TopK: s.topK,
	})

	s.jsonResponse(w, http.StatusOK, TransitionsResponse{
		Source:     source,
		Stored:     len(stored),
		CohortSize: agg.CohortSize,
		Exits:      agg.Buckets,
		Industries: agg.Industries,
	})
}
