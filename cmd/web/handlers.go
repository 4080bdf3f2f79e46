package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/mystery"
)

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type startSessionRequest struct {
	Preset   string           `json:"preset,omitempty"`
	Settings *config.Settings `json:"settings,omitempty"`
}

type startSessionResponse struct {
	SessionID string           `json:"session_id"`
	CaseFile  mystery.CaseFile `json:"case_file"`
}

// startSession generates a scenario and opens a game. The new session id is
// also remembered in the cookie session so a browser client can reconnect.
func (app *application) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	settings := app.defaultSettings
	switch {
	case req.Preset != "":
		preset, ok := app.presets[req.Preset]
		if !ok {
			app.clientError(w, r, http.StatusBadRequest, "unknown preset: "+req.Preset)
			return
		}
		settings = preset
	case req.Settings != nil:
		settings = *req.Settings
	}
	if err := settings.Normalised().Validate(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := app.registry.Start(r.Context(), settings)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.sessionManager.Put(r.Context(), sessionIDKey, session.ID())

	app.writeJSON(w, r, http.StatusCreated, startSessionResponse{
		SessionID: session.ID(),
		CaseFile:  session.State().CaseFile,
	})
}

// currentSession redirects the cookie session's remembered game, if any.
func (app *application) currentSession(w http.ResponseWriter, r *http.Request) {
	id := app.sessionManager.GetString(r.Context(), sessionIDKey)
	if id == "" {
		app.clientError(w, r, http.StatusNotFound, "no game in progress")
		return
	}
	session, err := app.registry.Get(id)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, session.State())
}

func (app *application) sessionState(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, session.State())
}

type interrogateRequest struct {
	SuspectID string `json:"suspect_id"`
	Question  string `json:"question"`
}

func (app *application) interrogate(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	var req interrogateRequest
	if err = decodeJSON(r, &req, false); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.SuspectID == "" || strings.TrimSpace(req.Question) == "" {
		app.clientError(w, r, http.StatusBadRequest, "suspect_id and question are required")
		return
	}

	outcome, err := session.Interrogate(r.Context(), req.SuspectID, req.Question)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, outcome)
}

type searchLocationRequest struct {
	LocationID string `json:"location_id"`
}

func (app *application) searchLocation(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	var req searchLocationRequest
	if err = decodeJSON(r, &req, false); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.LocationID == "" {
		app.clientError(w, r, http.StatusBadRequest, "location_id is required")
		return
	}

	outcome, err := session.SearchLocation(r.Context(), req.LocationID)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, outcome)
}

type accuseRequest struct {
	SuspectID string `json:"suspect_id"`
	Evidence  string `json:"evidence,omitempty"`
}

func (app *application) accuse(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	var req accuseRequest
	if err = decodeJSON(r, &req, false); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.SuspectID == "" {
		app.clientError(w, r, http.StatusBadRequest, "suspect_id is required")
		return
	}

	outcome, err := session.Accuse(r.Context(), req.SuspectID, req.Evidence)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, outcome)
}

const defaultMemoryLimit = 5

func (app *application) searchMemory(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		app.clientError(w, r, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit := defaultMemoryLimit
	if k := r.URL.Query().Get("k"); k != "" {
		if limit, err = strconv.Atoi(k); err != nil || limit < 1 {
			app.clientError(w, r, http.StatusBadRequest, "query parameter k must be a positive integer")
			return
		}
	}

	results, err := session.SearchMemory(r.Context(), r.URL.Query().Get("suspect"), query, limit)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, results)
}

func (app *application) contradictions(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, session.Contradictions())
}

func (app *application) timeline(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	timeline, err := session.Timeline()
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, timeline)
}

func (app *application) closeSession(w http.ResponseWriter, r *http.Request) {
	session, err := app.requestSession(r)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	if err = app.registry.Close(r.Context(), session.ID()); err != nil {
		app.gameError(w, r, err)
		return
	}
	app.sessionManager.Remove(r.Context(), sessionIDKey)
	w.WriteHeader(http.StatusNoContent)
}
