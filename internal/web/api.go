package web

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/camera"
)

// defaultTurnOffMethod is reported when the client does not say how the
// alarm was turned off.
const defaultTurnOffMethod = "desconocido"

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req ConfigureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.AlarmTime) == "" {
		writeError(w, http.StatusBadRequest, "hora_alarma is required")
		return
	}

	if err := s.opts.Alarm.Configure(req.AlarmTime); err != nil {
		if errors.Is(err, alarm.ErrInvalidAlarmTime) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ConfigureResponse{
		Success:   true,
		Message:   "Alarm configured. Hold out your hand to turn off the light.",
		AlarmTime: s.opts.Alarm.State().AlarmTime,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.opts.Alarm.CancelBecause("api")
	writeJSON(w, http.StatusOK, Result{Success: true, Message: "Alarm cancelled"})
}

func (s *Server) handleTurnOff(w http.ResponseWriter, r *http.Request) {
	var req TurnOffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	method := req.Method
	if method == "" {
		method = defaultTurnOffMethod
	}
	s.opts.Alarm.CancelBecause(method)
	writeJSON(w, http.StatusOK, TurnOffResponse{
		Success: true,
		Message: "Alarm turned off",
		Method:  method,
	})
}

func (s *Server) handleHandDetected(w http.ResponseWriter, r *http.Request) {
	var req HandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	minutes, err := s.opts.Alarm.HandDetected(req.ImagePath)
	if err != nil {
		// The detector polls; a hand with no alarm set is an answer, not a failure.
		writeJSON(w, http.StatusOK, HandResponse{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HandResponse{
		Success:        true,
		Message:        "Light off. Alarm started.",
		MinutesToAlarm: &minutes,
	})
}

func (s *Server) handleCheckHand(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Alarm.State())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Alarm.CurrentStatus())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.opts.Alarm.RecentSessions(r.Context(), alarm.MaxRecentSessions)
	if err != nil {
		log.Printf("http: history: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleVideoFrame(w http.ResponseWriter, r *http.Request) {
	var req FrameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Frame == "" {
		writeJSON(w, http.StatusOK, Result{Success: true})
		return
	}

	frame, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil {
		writeError(w, http.StatusBadRequest, "frame is not valid base64")
		return
	}
	if err := s.opts.Relay.SetFrame(frame); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, camera.ErrFrameTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		writeError(w, code, err.Error())
		return
	}
	s.opts.Recorder.ObserveFrame(len(frame))
	writeJSON(w, http.StatusOK, Result{Success: true})
}

func (s *Server) handleVideoStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", camera.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	s.opts.Recorder.StreamOpened()
	defer s.opts.Recorder.StreamClosed()

	if err := s.opts.Relay.Stream(r.Context(), w, s.opts.FrameInterval); err != nil {
		log.Printf("http: video stream ended: %v", err)
	}
}
