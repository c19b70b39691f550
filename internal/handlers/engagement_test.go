package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cgigram/backend/internal/engagement"
)

func postJSON(t *testing.T, target, token string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestEngagementHandlerReact(t *testing.T) {
	recorder := &fakeRecorder{}
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: recorder, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/reactions", "token-1", reactRequest{Kind: "like"})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.React(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if len(recorder.reactions) != 1 || recorder.reactions[0].Kind != "like" {
		t.Fatalf("expected one like recorded, got %+v", recorder.reactions)
	}
}

func TestEngagementHandlerReactUnknownKind(t *testing.T) {
	recorder := &fakeRecorder{reactErr: engagement.ErrUnknownReaction}
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: recorder, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/reactions", "token-1", reactRequest{Kind: "star"})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.React(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestEngagementHandlerReactSwallowsStoreFailures(t *testing.T) {
	recorder := &fakeRecorder{reactErr: errors.New("connection reset")}
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: recorder, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/reactions", "token-1", reactRequest{Kind: "like"})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.React(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected store failures to still yield %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestEngagementHandlerReactRequiresAuth(t *testing.T) {
	handler := EngagementHandler{Recorder: &fakeRecorder{}, Sessions: newFakeSessionManager(nil)}

	req := postJSON(t, "/api/v1/videos/vid-1/reactions", "", reactRequest{Kind: "like"})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.React(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestEngagementHandlerRate(t *testing.T) {
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: &fakeRecorder{}, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/rating", "token-1", rateRequest{Value: 4})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.Rate(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
}

func TestEngagementHandlerRateOutOfRange(t *testing.T) {
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: &fakeRecorder{}, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/rating", "token-1", rateRequest{Value: 9})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.Rate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestEngagementHandlerViewReportsFirstView(t *testing.T) {
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: &fakeRecorder{firstView: true}, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/views", "token-1", struct{}{})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.View(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp["firstView"] {
		t.Fatal("expected firstView true")
	}
}

func TestEngagementHandlerComment(t *testing.T) {
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: &fakeRecorder{}, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/comments", "token-1", commentRequest{Text: "great clip"})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.Comment(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var resp commentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 1 || resp.Username != "alice" || resp.Body != "great clip" {
		t.Fatalf("unexpected comment response %+v", resp)
	}
}

func TestEngagementHandlerCommentRejectsEmptyBody(t *testing.T) {
	sessions := newFakeSessionManager(map[string]string{"token-1": "alice"})
	handler := EngagementHandler{Recorder: &fakeRecorder{}, Sessions: sessions}

	req := postJSON(t, "/api/v1/videos/vid-1/comments", "token-1", commentRequest{Text: ""})
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.Comment(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}
