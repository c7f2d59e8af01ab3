package participant

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"thr-trivia/pkg/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type JoinRequest struct {
	AccessCode string `json:"accessCode"`
	Name       string `json:"name"`
}

type LogoutRequest struct {
	ParticipantID string `json:"participantId"`
}

type AwardRequest struct {
	RewardID uint `json:"rewardId"`
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Join(req.AccessCode, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			httpx.Error(w, http.StatusBadRequest, "Access code and name are required")
		case errors.Is(err, ErrRoomNotFound):
			httpx.Error(w, http.StatusNotFound, "Room not found")
		default:
			log.Printf("Join error: %v", err)
			httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Logout(req.ParticipantID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidID):
			httpx.Error(w, http.StatusBadRequest, "Valid participant id is required")
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Participant not found")
		default:
			log.Printf("Logout error: %v", err)
			httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Award(w http.ResponseWriter, r *http.Request) {
	participantID := mux.Vars(r)["id"]

	var req AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	participant, err := h.service.Award(participantID, req.RewardID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidID):
			httpx.Error(w, http.StatusBadRequest, "Valid participant id is required")
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Participant or reward not found")
		case errors.Is(err, ErrRewardExhausted):
			httpx.Error(w, http.StatusBadRequest, "Reward quantity exhausted")
		case errors.Is(err, ErrRewardWrongRoom):
			httpx.Error(w, http.StatusBadRequest, "Reward does not belong to the participant's room")
		default:
			log.Printf("Award error: %v", err)
			httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, participant)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	accessCode := mux.Vars(r)["accessCode"]

	entries, err := h.service.Leaderboard(accessCode)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			httpx.Error(w, http.StatusNotFound, "Room not found")
			return
		}
		log.Printf("Leaderboard error: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
