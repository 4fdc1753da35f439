package netclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
)

func testRegistrationClient(ts *httptest.Server) *RegistrationClient {
	return NewRegistrationClient(config.ClientConfig{
		APIBaseURL:     ts.URL + "/api/v1",
		RequestTimeout: 5,
	})
}

func TestRegisterDeviceRequest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/devices/register" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body["deviceType"] != "camera" {
			t.Errorf("deviceType = %q, want camera", body["deviceType"])
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // Test server write
		w.Write([]byte(`{
			"deviceId": "camera-1754049600000",
			"message": "Device camera registered successfully",
			"networkStats": {"totalDevices": 3, "onlineDevices": 3, "networkQuality": 85, "activeCameras": 1}
		}`))
	}))
	defer ts.Close()

	c := testRegistrationClient(ts)
	result, err := c.Register(context.Background(), "camera")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if result.DeviceID != "camera-1754049600000" {
		t.Errorf("deviceId = %q", result.DeviceID)
	}
	if result.NetworkStats.ActiveCameras != 1 {
		t.Errorf("activeCameras = %d, want 1", result.NetworkStats.ActiveCameras)
	}
}

func TestUnregisterAndReactivateRequests(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		var body map[string]string
		//nolint:errcheck // Test server decode
		json.NewDecoder(r.Body).Decode(&body)
		if body["deviceId"] != "sound-123" {
			t.Errorf("deviceId = %q, want sound-123", body["deviceId"])
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck // Test server write
		w.Write([]byte(`{"message": "ok", "networkStats": {"totalDevices": 2}}`))
	}))
	defer ts.Close()

	c := testRegistrationClient(ts)

	stats, err := c.Unregister(context.Background(), "sound-123")
	if err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	if stats.TotalDevices != 2 {
		t.Errorf("totalDevices = %d, want 2", stats.TotalDevices)
	}

	if _, err := c.Reactivate(context.Background(), "sound-123"); err != nil {
		t.Fatalf("Reactivate failed: %v", err)
	}

	want := []string{"/api/v1/devices/unregister", "/api/v1/devices/reactivate"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("request paths = %v, want %v", paths, want)
	}
}

func TestRegistrationErrorCarriesServerMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		//nolint:errcheck // Test server write
		w.Write([]byte(`{"status": 400, "code": "invalid_operation", "message": "cannot unregister default devices"}`))
	}))
	defer ts.Close()

	c := testRegistrationClient(ts)
	_, err := c.Unregister(context.Background(), "server-1")
	if err == nil {
		t.Fatal("expected error for rejected unregister")
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("error = %v, want ErrRequestFailed", err)
	}
	if !strings.Contains(err.Error(), "invalid_operation") {
		t.Errorf("error %q does not carry the server's code", err)
	}
}

func TestRegistrationUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewRegistrationClient(config.ClientConfig{
		APIBaseURL:     url + "/api/v1",
		RequestTimeout: 1,
	})

	if _, err := c.Register(context.Background(), "sound"); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("error = %v, want ErrRequestFailed", err)
	}
}
