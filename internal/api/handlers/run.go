package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/credence-ai/credence/internal/api/middleware"
	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/service"
	"github.com/credence-ai/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type RunHandler struct {
	svc *service.RunService
}

func NewRunHandler(svc *service.RunService) *RunHandler {
	return &RunHandler{svc: svc}
}

type evidenceInput struct {
	Content            string    `json:"content"`
	Source             string    `json:"source"`
	Timestamp          time.Time `json:"timestamp,omitempty"`
	ClaimedReliability float64   `json:"claimed_reliability,omitempty"`
	Type               string    `json:"evidence_type,omitempty"`
	Domain             string    `json:"domain,omitempty"`
}

// constraintsInput overlays the caller's stopping configuration on the
// defaults. ActiveRules is a pointer so an explicitly empty list is
// distinguishable from an absent one.
type constraintsInput struct {
	Strategy             string    `json:"combination_strategy,omitempty"`
	ActiveRules          *[]string `json:"active_rules,omitempty"`
	ConfidenceThreshold  *float64  `json:"confidence_threshold,omitempty"`
	TimeLimitSeconds     *float64  `json:"time_limit_seconds,omitempty"`
	CostBenefitRatio     *float64  `json:"cost_benefit_ratio,omitempty"`
	ConvergenceThreshold *float64  `json:"convergence_threshold,omitempty"`
	DiscriminationGap    *float64  `json:"discrimination_gap,omitempty"`
	DiminishingThreshold *float64  `json:"diminishing_threshold,omitempty"`
	WindowSize           *int      `json:"window_size,omitempty"`
}

func (in *constraintsInput) apply(c *domain.Constraints) {
	if in == nil {
		return
	}
	if in.Strategy != "" {
		c.Strategy = domain.CombinationStrategy(in.Strategy)
	}
	if in.ActiveRules != nil {
		c.ActiveRules = *in.ActiveRules
	}
	if in.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = *in.ConfidenceThreshold
	}
	if in.TimeLimitSeconds != nil {
		c.TimeLimit = time.Duration(*in.TimeLimitSeconds * float64(time.Second))
	}
	if in.CostBenefitRatio != nil {
		c.CostBenefitRatio = *in.CostBenefitRatio
	}
	if in.ConvergenceThreshold != nil {
		c.ConvergenceThreshold = *in.ConvergenceThreshold
	}
	if in.DiscriminationGap != nil {
		c.DiscriminationGap = *in.DiscriminationGap
	}
	if in.DiminishingThreshold != nil {
		c.DiminishingThreshold = *in.DiminishingThreshold
	}
	if in.WindowSize != nil {
		c.WindowSize = *in.WindowSize
	}
}

type createRunRequest struct {
	Hypothesis      string            `json:"hypothesis"`
	PriorBelief     float64           `json:"prior_belief"`
	Evidence        []evidenceInput   `json:"evidence"`
	Constraints     *constraintsInput `json:"constraints,omitempty"`
	Batch           bool              `json:"batch,omitempty"`
	CostPerItem     float64           `json:"cost_per_item,omitempty"`
	ExpectedBenefit float64           `json:"expected_benefit,omitempty"`
}

func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Hypothesis == "" {
		writeError(w, http.StatusBadRequest, "hypothesis is required")
		return
	}

	evidence := make([]domain.Evidence, len(req.Evidence))
	for i, in := range req.Evidence {
		evidence[i] = domain.Evidence{
			TenantID:           tenant.ID,
			Content:            in.Content,
			Source:             in.Source,
			Timestamp:          in.Timestamp,
			ClaimedReliability: in.ClaimedReliability,
			Type:               domain.EvidenceType(in.Type),
			Domain:             in.Domain,
		}
	}

	constraints := domain.DefaultConstraints()
	req.Constraints.apply(&constraints)

	result, err := h.svc.Execute(r.Context(), tenant.ID, service.RunRequest{
		Hypothesis:      req.Hypothesis,
		Prior:           req.PriorBelief,
		Evidence:        evidence,
		Constraints:     constraints,
		Batch:           req.Batch,
		CostPerItem:     req.CostPerItem,
		ExpectedBenefit: req.ExpectedBenefit,
	})
	if err != nil {
		var cfgErr *domain.ConfigurationError
		var domainErr *domain.DomainError
		switch {
		case errors.As(err, &cfgErr), errors.As(err, &domainErr),
			errors.Is(err, service.ErrNoEvidence):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "run failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	result, err := h.svc.Get(r.Context(), id, tenant.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch run")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := h.svc.List(r.Context(), tenant.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": results})
}

func (h *RunHandler) GetTrace(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	decisions, err := h.svc.Trace(r.Context(), id, tenant.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch trace")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}
