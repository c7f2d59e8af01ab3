package participant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"thr-trivia/internal/models"
	"thr-trivia/pkg/httpx"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body does not decode: %v (%s)", err, rec.Body.String())
	}
	return body.Message
}

func TestJoinEndpoint(t *testing.T) {
	s, db, _, _ := newTestService(t)
	h := NewHandler(s)
	seedRoom(t, db, "ABC123", true)

	t.Run("created", func(t *testing.T) {
		rec := postJSON(t, h.Join, "/api/participants/join", `{"accessCode":"ABC123","name":"Amir"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var result JoinResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if result.ParticipantID == "" || result.RoomName != "Takbir Trivia" {
			t.Fatalf("unexpected body: %+v", result)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := postJSON(t, h.Join, "/api/participants/join", `{"accessCode":"","name":"Amir"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "Access code and name are required" {
			t.Fatalf("unexpected message: %q", msg)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		rec := postJSON(t, h.Join, "/api/participants/join", `{"accessCode":"NOPE00","name":"Amir"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := postJSON(t, h.Join, "/api/participants/join", `{"accessCode":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLogoutEndpoint(t *testing.T) {
	s, db, _, _ := newTestService(t)
	h := NewHandler(s)
	seedRoom(t, db, "ABC123", true)

	joined, err := s.Join("ABC123", "Amir")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	t.Run("ok and idempotent", func(t *testing.T) {
		body := `{"participantId":"` + joined.ParticipantID + `"}`
		for i := 0; i < 2; i++ {
			rec := postJSON(t, h.Logout, "/api/participants/logout", body)
			if rec.Code != http.StatusOK {
				t.Fatalf("call %d: expected 200, got %d: %s", i+1, rec.Code, rec.Body.String())
			}
		}

		var stored models.Participant
		if err := db.Where("id = ?", joined.ParticipantID).First(&stored).Error; err != nil {
			t.Fatalf("load participant: %v", err)
		}
		if stored.CurrentStatus != models.StatusInactive {
			t.Fatalf("expected inactive, got %q", stored.CurrentStatus)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		rec := postJSON(t, h.Logout, "/api/participants/logout", `{"participantId":"nope"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := postJSON(t, h.Logout, "/api/participants/logout", `{"participantId":"4dcee1d5-0000-4000-8000-000000000000"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
