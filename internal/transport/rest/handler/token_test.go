package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pinkknives/skolapp-realtime/internal/config"
	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/service"
)

func newTokenHandler(apiKey string) *TokenHandler {
	svc := service.NewTokenService(&config.Config{APIKey: apiKey, TokenTTL: time.Hour})
	return NewTokenHandler(svc)
}

func TestTokenHandler_DefaultsToStudent(t *testing.T) {
	h := newTokenHandler("test-key")

	req := httptest.NewRequest(http.MethodGet, "/v1/realtime/token?sessionId=s1", nil)
	rec := httptest.NewRecorder()
	h.Issue(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var token model.CapabilityToken
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if token.ClientID == "" {
		t.Error("response must carry a generated clientId")
	}

	answers := model.ChannelName("s1", model.ChannelAnswers)
	control := model.ChannelName("s1", model.ChannelControl)
	if !token.Capability.Allows(answers, model.OpPublish) {
		t.Error("student tokens must allow answers publish")
	}
	if token.Capability.Allows(control, model.OpPublish) {
		t.Error("student tokens must not allow control publish")
	}
}

func TestTokenHandler_TeacherRoleHeader(t *testing.T) {
	h := newTokenHandler("test-key")

	req := httptest.NewRequest(http.MethodGet, "/v1/realtime/token?sessionId=s1&clientId=t-1", nil)
	req.Header.Set(RoleHeader, "teacher")
	rec := httptest.NewRecorder()
	h.Issue(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var token model.CapabilityToken
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if token.ClientID != "t-1" {
		t.Errorf("clientId = %q, want t-1", token.ClientID)
	}
	if !token.Capability.Allows(model.ChannelName("s1", model.ChannelControl), model.OpPublish) {
		t.Error("teacher tokens must allow control publish")
	}
}

func TestTokenHandler_MissingCredentialIs500(t *testing.T) {
	h := newTokenHandler("")

	req := httptest.NewRequest(http.MethodGet, "/v1/realtime/token", nil)
	rec := httptest.NewRecorder()
	h.Issue(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["error"] == "" {
		t.Error("error responses must carry an error message")
	}
}
