package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleListRooms(t *testing.T) {
	server := NewServer()
	for _, id := range []string{"beta", "alpha"} {
		if err := server.Registry().Create(id, "pw"); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	recorder := httptest.NewRecorder()
	server.HandleListRooms(recorder, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var resp roomListResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Rooms) != 2 || resp.Rooms[0] != "alpha" || resp.Rooms[1] != "beta" {
		t.Fatalf("unexpected rooms: %v", resp.Rooms)
	}

	recorder = httptest.NewRecorder()
	server.HandleListRooms(recorder, httptest.NewRequest(http.MethodPost, "/api/rooms", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}

func TestHandleRoomExists(t *testing.T) {
	server := NewServer()
	if err := server.Registry().Create("lobby", "pw"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	recorder := httptest.NewRecorder()
	server.HandleRoomExists(recorder, httptest.NewRequest(http.MethodGet, "/exists", nil))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing param, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	server.HandleRoomExists(recorder, httptest.NewRequest(http.MethodGet, "/exists?room=lobby", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	server.HandleRoomExists(recorder, httptest.NewRequest(http.MethodGet, "/exists?room=nowhere", nil))
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()
	metrics.IncRoomCreated()
	metrics.IncMessage()
	metrics.IncMessage()
	metrics.IncConn()

	recorder := httptest.NewRecorder()
	metrics.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var payload map[string]float64
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["rooms_created_total"] != 1 || payload["messages_total"] != 2 || payload["active_connections"] != 1 {
		t.Fatalf("unexpected counters: %v", payload)
	}
}
