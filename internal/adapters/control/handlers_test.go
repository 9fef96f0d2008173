package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Visage/internal/app/session"
	"github.com/dkeye/Visage/internal/core"
	"github.com/dkeye/Visage/internal/domain"
	"github.com/dkeye/Visage/internal/testutil"
)

func newTestServer(t *testing.T) (*gin.Engine, *session.Controller, *testutil.FakeHandle) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handle := testutil.NewFakeHandle("user-1")
	transport := &testutil.FakeTransport{Handle: handle}
	ctrl := session.NewController(transport, &testutil.RecordingRenderer{}, core.NopProjector{}, session.Options{
		LocalIdentity: "user-1",
	})
	return SetupRouter("release", ctrl), ctrl, handle
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetStateDisconnected(t *testing.T) {
	r, _, _ := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/api/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(core.StateDisconnected)) {
		t.Errorf("body=%s", w.Body.String())
	}
}

func TestActionsWhileDisconnectedReturnConflict(t *testing.T) {
	r, _, _ := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/api/chat", `{"text":"hello"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("chat status=%d, want 409", w.Code)
	}
	if !strings.Contains(w.Body.String(), "session_not_ready") {
		t.Errorf("chat body=%s", w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/media/camera", `{"enabled":true}`)
	if w.Code != http.StatusConflict {
		t.Errorf("media status=%d, want 409", w.Code)
	}
}

func TestPostMediaValidation(t *testing.T) {
	r, ctrl, _ := newTestServer(t)
	if err := ctrl.Connect(context.Background(), "wss://room.test", "token"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ctrl.Disconnect()

	if w := doJSON(r, http.MethodPost, "/api/media/camera", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing flag: status=%d, want 400", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/api/media/hologram", `{"enabled":true}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown source: status=%d, want 404", w.Code)
	}
}

func TestMediaToggleRoundTrip(t *testing.T) {
	r, ctrl, handle := newTestServer(t)
	if err := ctrl.Connect(context.Background(), "wss://room.test", "token"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ctrl.Disconnect()

	w := doJSON(r, http.MethodPost, "/api/media/camera", `{"enabled":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !handle.PublishedSource(domain.SourceCamera) {
		t.Error("camera not published")
	}

	w = doJSON(r, http.MethodGet, "/api/participants", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "user-1") {
		t.Errorf("participants: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/sinks", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "camera") {
		t.Errorf("sinks: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestChatRoundTripOverHTTP(t *testing.T) {
	r, ctrl, handle := newTestServer(t)
	if err := ctrl.Connect(context.Background(), "wss://room.test", "token"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ctrl.Disconnect()

	if w := doJSON(r, http.MethodPost, "/api/chat", `{"text":"hello"}`); w.Code != http.StatusOK {
		t.Fatalf("post chat: status=%d body=%s", w.Code, w.Body.String())
	}
	if len(handle.SentTopics) != 1 || handle.SentTopics[0] != "chat" {
		t.Errorf("sent topics: %v", handle.SentTopics)
	}

	w := doJSON(r, http.MethodGet, "/api/chat", "")
	if !strings.Contains(w.Body.String(), "hello") || !strings.Contains(w.Body.String(), "You") {
		t.Errorf("chat log: %s", w.Body.String())
	}

	if w := doJSON(r, http.MethodPost, "/api/chat", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty chat: status=%d, want 400", w.Code)
	}
}

func TestDeviceEndpoints(t *testing.T) {
	r, ctrl, handle := newTestServer(t)
	if err := ctrl.Connect(context.Background(), "wss://room.test", "token"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ctrl.Disconnect()

	w := doJSON(r, http.MethodPost, "/api/devices/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/devices/switch", `{"kind":"videoinput","device_id":"cam-2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("switch: status=%d body=%s", w.Code, w.Body.String())
	}
	if handle.Switched[domain.DeviceVideoInput] != "cam-2" {
		t.Errorf("switch not forwarded: %v", handle.Switched)
	}

	if w := doJSON(r, http.MethodPost, "/api/devices/switch", `{"kind":"videoinput"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing device_id: status=%d, want 400", w.Code)
	}
}

func TestPostDisconnect(t *testing.T) {
	r, ctrl, handle := newTestServer(t)
	if err := ctrl.Connect(context.Background(), "wss://room.test", "token"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	w := doJSON(r, http.MethodPost, "/api/disconnect", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(core.StateDisconnected)) {
		t.Errorf("body=%s", w.Body.String())
	}
	if !handle.Closed() {
		t.Error("handle not closed")
	}
}
