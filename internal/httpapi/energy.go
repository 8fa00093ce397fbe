package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BrandonDHaskell/facegate/internal/gate/service"
	"github.com/BrandonDHaskell/facegate/internal/gate/types"
)

const (
	todayWindowDays = 1
	weekWindowDays  = 7
)

func (s *Server) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")
	state := chi.URLParam(r, "state")

	cmd, delivered, err := s.control.SetDevice(r.Context(), device, state)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownDevice):
			writeError(w, http.StatusNotFound, "unknown_device", err.Error())
			return
		case errors.Is(err, service.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "invalid_state", err.Error())
			return
		}
	}

	resp := types.DeviceCommandResponse{
		OK:        true,
		Device:    strings.ToLower(device),
		State:     strings.ToLower(state),
		Command:   cmd,
		Delivered: delivered,
	}
	if err != nil {
		s.logger.WithError(err).WithField("command", cmd).Error("device command not recorded")
		resp.Warnings = append(resp.Warnings, "usage event not persisted")
	}
	if !delivered {
		resp.Warnings = append(resp.Warnings, warnNotDelivered)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnergyUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	devices := s.ledger.Registry().Devices()
	out := make([]types.DeviceUsageDTO, 0, len(devices))

	for _, dev := range devices {
		state, err := s.ledger.CurrentState(ctx, dev)
		if err != nil {
			s.internalError(w, "energy usage", err)
			return
		}
		today, err := s.ledger.UsageMinutes(ctx, dev, todayWindowDays)
		if err != nil {
			s.internalError(w, "energy usage", err)
			return
		}
		week, err := s.ledger.UsageMinutes(ctx, dev, weekWindowDays)
		if err != nil {
			s.internalError(w, "energy usage", err)
			return
		}
		out = append(out, types.DeviceUsageDTO{
			Device:       dev,
			State:        string(state),
			TodayMinutes: today,
			WeekMinutes:  week,
		})
	}

	writeJSON(w, http.StatusOK, types.EnergyUsageResponse{OK: true, Devices: out, ServerTime: serverTime()})
}

func (s *Server) handleEnergyEvent(w http.ResponseWriter, r *http.Request) {
	var req types.EnergyEventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		if tooLarge(w, err) {
			return
		}
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	var at time.Time
	if strings.TrimSpace(req.At) != "" {
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(req.At))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_timestamp", "at must be RFC3339")
			return
		}
		at = t.UTC()
	}

	if err := s.ledger.RecordEvent(r.Context(), req.Device, req.State, at); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownDevice):
			writeError(w, http.StatusBadRequest, "unknown_device", err.Error())
		case errors.Is(err, service.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "invalid_state", err.Error())
		default:
			s.internalError(w, "energy event", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}

	events, err := s.ledger.RecentActivity(r.Context(), limit)
	if err != nil {
		s.internalError(w, "activity", err)
		return
	}

	out := make([]types.UsageEventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, types.UsageEventDTO{
			Device: ev.Device,
			State:  string(ev.State),
			At:     ev.At.UTC().Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, types.ActivityResponse{OK: true, Events: out})
}

func (s *Server) handleAccessHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}

	recs, err := s.access.RecentAccess(r.Context(), limit)
	if err != nil {
		s.internalError(w, "access history", err)
		return
	}

	out := make([]types.AccessRecordDTO, 0, len(recs))
	for _, rec := range recs {
		names := rec.RecognizedNames
		if names == nil {
			names = []string{}
		}
		out = append(out, types.AccessRecordDTO{
			ID:              rec.ID,
			Filename:        rec.Filename,
			CapturedAt:      rec.CapturedAt.UTC().Format(time.RFC3339Nano),
			RecognizedNames: names,
			Granted:         rec.Granted,
		})
	}
	writeJSON(w, http.StatusOK, types.AccessHistoryResponse{OK: true, Records: out})
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	s.logger.WithError(err).Errorf("%s error", what)
	writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
}
