// Package response writes every JSON answer in one envelope:
//
//	{"success": true,  "data": {...}, "meta": {...}}
//	{"success": false, "error": "...", "data": {"field": ["message"]}}
package response

import (
	"encoding/json"
	"net/http"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// Send writes payload with status.
func Send(w http.ResponseWriter, status int, payload JSONResponse) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(payload)
}

// Success writes a successful envelope. meta may be nil.
func Success(w http.ResponseWriter, status int, data any, meta any) error {
	return Send(w, status, JSONResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error writes a failed envelope. errData may be a string, an error or a
// field -> messages map.
func Error(w http.ResponseWriter, status int, errData any) error {
	payload := JSONResponse{Success: false}

	switch e := errData.(type) {
	case string:
		payload.Error = e
	case error:
		payload.Error = e.Error()
	case map[string][]string:
		payload.Error = "validation failed"
		payload.Data = e
	default:
		payload.Error = "unexpected server error"
	}

	return Send(w, status, payload)
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Binary writes a non-JSON body, e.g. a PNG pass.
func Binary(w http.ResponseWriter, contentType string, body []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	return err
}
