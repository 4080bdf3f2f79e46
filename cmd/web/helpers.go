package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
)

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "encode response", errors.SlogError(err))
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.logger.Debug(http.StatusText(status), "method", r.Method, "uri", r.URL.RequestURI(), "message", message)
	app.writeJSON(w, r, status, map[string]string{"error": message})
}

// gameError translates engine sentinels into HTTP semantics. Anything
// unrecognized is a server error.
func (app *application) gameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		app.clientError(w, r, http.StatusNotFound, "no such game session")
	case errors.Is(err, game.ErrSessionBusy):
		app.clientError(w, r, http.StatusTooManyRequests, "another action is in progress, try again")
	case errors.Is(err, game.ErrSessionClosed),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrNotFinished):
		app.clientError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrUnknownSuspect),
		errors.Is(err, game.ErrUnknownLocation):
		app.clientError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrUnavailable):
		app.clientError(w, r, http.StatusServiceUnavailable, "the suspect hesitates, try again shortly")
	default:
		app.serverError(w, r, err)
	}
}

// decodeJSON reads a small JSON body into dst. A missing body is allowed when
// allowEmpty is set so endpoints with all-optional fields accept bare POSTs.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil || r.ContentLength == 0 {
		if allowEmpty {
			return nil
		}
		return errors.New("request body required")
	}
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

const sessionIDKey = "sessionID"

// requestSession resolves the session named in the URL path.
func (app *application) requestSession(r *http.Request) (*game.Session, error) {
	return app.registry.Get(r.PathValue("sessionID"))
}
