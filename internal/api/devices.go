package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/nodex-core/internal/registry"
)

// registerRequest is the body of POST /devices/register.
type registerRequest struct {
	DeviceType string `json:"deviceType"`
}

// registerResponse is the body of a successful registration.
type registerResponse struct {
	DeviceID     string                `json:"deviceId"`
	Message      string                `json:"message"`
	NetworkStats registry.NetworkStats `json:"networkStats"`
}

// deviceIDRequest is the body of unregister/reactivate requests.
type deviceIDRequest struct {
	DeviceID string `json:"deviceId"`
}

// lifecycleResponse is the body of successful unregister/reactivate calls.
type lifecycleResponse struct {
	Message      string                `json:"message"`
	NetworkStats registry.NetworkStats `json:"networkStats"`
}

// snapshotResponse is the body of GET /devices.
type snapshotResponse struct {
	NetworkStats registry.NetworkStats `json:"networkStats"`
	Devices      []registry.Device     `json:"devices"`
}

// historyResponse is the body of GET /devices/{id}/history.
type historyResponse struct {
	DeviceID string                   `json:"deviceId"`
	Records  []registry.ReadingRecord `json:"records"`
}

// handleRegisterDevice creates a new device of the requested type.
//
// The response carries the resulting network stats, but the canonical
// state is whatever the next broadcast snapshot says.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, stats, err := s.registry.Register(req.DeviceType)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidDeviceType):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "device type is required")
		case errors.Is(err, registry.ErrUnknownDeviceType):
			writeError(w, http.StatusBadRequest, ErrCodeValidation,
				fmt.Sprintf("unknown device type %q", req.DeviceType))
		default:
			s.logger.Error("device registration failed", "error", err)
			writeInternalError(w, "failed to register device")
		}
		return
	}

	// Seed the history window with the initial reading so the device has
	// a record before the first broadcast tick.
	if s.history != nil {
		if err := s.history.Record(r.Context(), d.ID, d.Reading); err != nil {
			s.logger.Warn("failed to record initial reading", "device_id", d.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, registerResponse{
		DeviceID:     d.ID,
		Message:      fmt.Sprintf("Device %s registered successfully", req.DeviceType),
		NetworkStats: stats,
	})
}

// handleUnregisterDevice removes a device from the active set.
func (s *Server) handleUnregisterDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeBadRequest(w, "device ID is required")
		return
	}

	stats, err := s.registry.Unregister(req.DeviceID)
	if err != nil {
		if errors.Is(err, registry.ErrPermanentDevice) {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidOperation,
				"cannot unregister default devices")
			return
		}
		s.logger.Error("device unregistration failed", "error", err)
		writeInternalError(w, "failed to unregister device")
		return
	}

	writeJSON(w, http.StatusOK, lifecycleResponse{
		Message:      fmt.Sprintf("Device %s unregistered successfully", req.DeviceID),
		NetworkStats: stats,
	})
}

// handleReactivateDevice restores a previously unregistered device.
func (s *Server) handleReactivateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeBadRequest(w, "device ID is required")
		return
	}

	stats, err := s.registry.Reactivate(req.DeviceID)
	if err != nil {
		if errors.Is(err, registry.ErrDeviceNotFound) {
			writeNotFound(w, fmt.Sprintf("device %s not found", req.DeviceID))
			return
		}
		s.logger.Error("device reactivation failed", "error", err)
		writeInternalError(w, "failed to reactivate device")
		return
	}

	writeJSON(w, http.StatusOK, lifecycleResponse{
		Message:      fmt.Sprintf("Device %s reactivated successfully", req.DeviceID),
		NetworkStats: stats,
	})
}

// handleListDevices returns the current snapshot without waiting for the
// next broadcast tick.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	stats, devices := s.registry.Snapshot()
	writeJSON(w, http.StatusOK, snapshotResponse{
		NetworkStats: stats,
		Devices:      devices,
	})
}

// handleDeviceHistory returns the bounded reading history of a device,
// newest first.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "reading history is disabled")
		return
	}

	deviceID := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = v
	}

	records, err := s.history.Recent(r.Context(), deviceID, limit)
	if err != nil {
		s.logger.Error("history query failed", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to query reading history")
		return
	}
	if records == nil {
		records = []registry.ReadingRecord{}
	}

	writeJSON(w, http.StatusOK, historyResponse{
		DeviceID: deviceID,
		Records:  records,
	})
}

// handleStats returns the current network counters.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Stats())
}
