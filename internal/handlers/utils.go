package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

// Principal is the authenticated identity extracted from a verified token.
// Role and Seq are claim snapshots taken at issue time.
type Principal struct {
	ID   int
	Role string
	Seq  int64
}

func principalFromContext(ctx context.Context) (Principal, error) {
	principal, ok := ctx.Value(contextPrincipalKey).(Principal)
	if !ok || principal.ID < 1 {
		return Principal{}, errors.New("missing principal")
	}
	return principal, nil
}

// Response is the uniform JSON envelope for every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: false, Message: message})
}

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// responder carries the pieces every handler needs to report internal
// failures: a logger and the production flag that gates diagnostic detail
// in responses.
type responder struct {
	logger     zerolog.Logger
	production bool
}

func (rs responder) internalError(w http.ResponseWriter, err error, message string) {
	rs.logger.Error().Err(err).Msg(message)
	if !rs.production && err != nil {
		writeError(w, http.StatusInternalServerError, message+": "+err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, message)
}
