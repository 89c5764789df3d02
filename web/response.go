package web

import (
	"encoding/json"
	"net/http"

	"gamerit/domain"

	log "github.com/sirupsen/logrus"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var kindStatus = map[domain.Kind]int{
	domain.KindValidation:          http.StatusBadRequest,
	domain.KindNotFound:            http.StatusNotFound,
	domain.KindStateConflict:       http.StatusConflict,
	domain.KindInsufficientFunds:   http.StatusPaymentRequired,
	domain.KindUpstreamUnavailable: http.StatusServiceUnavailable,
	domain.KindInternal:            http.StatusInternalServerError,
}

// StatusForError maps an error's domain kind onto an HTTP status
func StatusForError(err error) int {
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Error: message})
}

// writeError answers with the player-facing message of err. Anything that is
// not a classified domain error is logged and reported as "internal error".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := StatusForError(err)
	DomainErrorsTotal.WithLabelValues(string(kind)).Inc()

	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"kind":   kind,
			"error":  err,
		}).Error("Request failed")
	}

	writeMessage(w, status, domain.PublicMessage(err))
}
