package audit

import (
	"net/http"

	"thr-trivia/pkg/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Validate handles GET /api/admin/db-validation.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	report := h.service.Run()
	httpx.JSON(w, http.StatusOK, report)
}
