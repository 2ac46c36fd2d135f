package api

import (
	"fmt"
	"net/http"
)

// APIResponse is the envelope the user endpoints reply with. All three
// fields are always serialized.
type APIResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message"`
	Data    any     `json:"data"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	jsonResponse(w, status, APIResponse{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, APIResponse{Success: true, Message: &msg})
}

func respondFailure(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, APIResponse{Success: false, Message: &msg})
}

// handleHealth answers liveness probes with plain text.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "API is running")
}
