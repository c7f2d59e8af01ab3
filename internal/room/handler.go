package room

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"thr-trivia/internal/auth"
	"thr-trivia/internal/models"
	"thr-trivia/pkg/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, ErrCodeWrongRoom):
		httpx.Error(w, http.StatusBadRequest, "Access code is not valid for this room")
	case errors.Is(err, ErrInvalidFormat):
		httpx.Error(w, http.StatusBadRequest, "Access code must be 6 characters")
	case errors.Is(err, ErrInvalidInput):
		httpx.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		log.Printf("Room service error: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// ValidateByCode handles GET /api/rooms/validate?code=. Existence-only:
// a deactivated room still resolves here.
func (h *Handler) ValidateByCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		httpx.Error(w, http.StatusBadRequest, "Access code is required")
		return
	}

	room, err := h.service.LookupByCode(code, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"room": room.Summary()})
}

type ValidateAccessRequest struct {
	RoomID     uint   `json:"roomId"`
	AccessCode string `json:"accessCode"`
}

// ValidateAccess handles POST /api/participants/validate.
func (h *Handler) ValidateAccess(w http.ResponseWriter, r *http.Request) {
	var req ValidateAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RoomID == 0 || req.AccessCode == "" {
		httpx.Error(w, http.StatusBadRequest, "Room id and access code are required")
		return
	}

	result, err := h.service.ValidateAccess(req.RoomID, req.AccessCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input RoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	room, err := h.service.CreateRoom(input, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, room)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	rooms, err := h.service.ListRooms(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid room id")
		return
	}

	room, err := h.service.GetRoom(id, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, room)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid room id")
		return
	}

	var input RoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	room, err := h.service.UpdateRoom(id, userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, room)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid room id")
		return
	}

	if err := h.service.DeactivateRoom(id, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	roomID, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid room id")
		return
	}

	var input QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := h.service.AddQuestion(roomID, userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, question)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	roomID, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid room id")
		return
	}

	questions, err := h.service.ListQuestions(roomID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Admins see the answer key.
	dtos := make([]models.QuestionDTO, len(questions))
	for i, q := range questions {
		dtos[i] = q.ToDTO(true, 0)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"questions": dtos})
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	questionID, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid question id")
		return
	}

	var input QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := h.service.UpdateQuestion(questionID, userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, question)
}

func (h *Handler) DisableQuestion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	questionID, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid question id")
		return
	}

	if err := h.service.DisableQuestion(questionID, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}

func (h *Handler) CreateReward(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	roomID, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid room id")
		return
	}

	var input RewardInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reward, err := h.service.AddReward(roomID, userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, reward)
}

func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	roomID, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid room id")
		return
	}

	rewards, err := h.service.ListRewards(roomID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"rewards": rewards})
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
