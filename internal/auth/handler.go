package auth

import (
	"encoding/json"
	"net/http"

	"thr-trivia/internal/models"
	"thr-trivia/pkg/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}

	if err := h.service.Register(user); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Registration failed")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "username": user.Username})
}
