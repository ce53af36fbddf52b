package leads

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/academykit/intake-bot/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	lister Lister
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(lister Lister, logger *logging.Logger) *Handler {
	return &Handler{
		lister: lister,
		logger: logger,
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads []*LeadRecord `json:"leads"`
	Count int           `json:"count"`
	Limit int           `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	records, err := h.lister.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	response := ListLeadsResponse{
		Leads: records,
		Count: len(records),
		Limit: limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
