package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/credence-ai/credence/internal/api/middleware"
	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/service"
	"github.com/credence-ai/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type EvidenceHandler struct {
	svc *service.EvidenceService
}

func NewEvidenceHandler(svc *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{svc: svc}
}

type createEvidenceRequest struct {
	Content            string    `json:"content"`
	Source             string    `json:"source"`
	Timestamp          time.Time `json:"timestamp,omitempty"`
	ClaimedReliability float64   `json:"claimed_reliability,omitempty"`
	Type               string    `json:"evidence_type,omitempty"`
	Domain             string    `json:"domain,omitempty"`
}

func (h *EvidenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type != "" && !domain.ValidEvidenceType(req.Type) {
		writeError(w, http.StatusBadRequest, "unknown evidence_type")
		return
	}

	evidenceType := domain.EvidenceType(req.Type)
	if req.Type == "" {
		evidenceType = domain.EvidenceUnknown
	}
	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	ev := &domain.Evidence{
		TenantID:           tenant.ID,
		Content:            req.Content,
		Source:             req.Source,
		Timestamp:          timestamp,
		ClaimedReliability: req.ClaimedReliability,
		Type:               evidenceType,
		Domain:             req.Domain,
	}

	if err := h.svc.Ingest(r.Context(), ev); err != nil {
		var dataErr *domain.DataError
		if errors.As(err, &dataErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store evidence")
		return
	}

	writeJSON(w, http.StatusCreated, ev)
}

func (h *EvidenceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid evidence id")
		return
	}

	ev, err := h.svc.Get(r.Context(), id, tenant.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "evidence not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch evidence")
		return
	}

	writeJSON(w, http.StatusOK, ev)
}

type similarEvidenceRequest struct {
	Text      string  `json:"text"`
	Threshold float32 `json:"threshold,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

func (h *EvidenceHandler) FindSimilar(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req similarEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Threshold <= 0 {
		req.Threshold = 0.8
	}

	results, err := h.svc.FindSimilar(r.Context(), tenant.ID, req.Text, req.Threshold, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"evidence": results})
}
