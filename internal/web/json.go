package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
)

var errNotFound = fs.ErrNotExist

// maxBodyBytes bounds JSON request bodies. Video frames are base64 JPEGs.
const maxBodyBytes = 8 << 20

// ConfigureRequest is the body of POST /api/alarma.
type ConfigureRequest struct {
	AlarmTime string `json:"hora_alarma"`
}

// ConfigureResponse acknowledges a configured alarm.
type ConfigureResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AlarmTime string `json:"hora_alarma"`
}

// HandRequest is the body of POST /api/hand-detected.
type HandRequest struct {
	ImagePath string `json:"image_path"`
}

// HandResponse reports the countdown started by a hand-off, or why none was.
type HandResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	MinutesToAlarm *int   `json:"tiempo_hasta_alarma_minutos,omitempty"`
}

// TurnOffRequest is the body of POST /api/alarma/apagar.
type TurnOffRequest struct {
	Method string `json:"metodo"`
}

// TurnOffResponse acknowledges a turned-off alarm.
type TurnOffResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Method  string `json:"metodo"`
}

// FrameRequest is the body of POST /api/video-frame.
type FrameRequest struct {
	Frame string `json:"frame"` // base64 JPEG
}

// Result is a bare success/message acknowledgement.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes into a buffer first so a failed encode never sends a
// partial body.
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("http: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("decode request body: %w", err)
}
