package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave)

	mux.Handle("GET /api/healthy", session.ThenFunc(app.healthy))

	mux.Handle("POST /api/sessions", session.ThenFunc(app.startSession))
	mux.Handle("GET /api/sessions/current", session.ThenFunc(app.currentSession))
	mux.Handle("GET /api/sessions/{sessionID}/state", session.ThenFunc(app.sessionState))
	mux.Handle("POST /api/sessions/{sessionID}/interrogate", session.ThenFunc(app.interrogate))
	mux.Handle("POST /api/sessions/{sessionID}/search-location", session.ThenFunc(app.searchLocation))
	mux.Handle("POST /api/sessions/{sessionID}/accuse", session.ThenFunc(app.accuse))
	mux.Handle("GET /api/sessions/{sessionID}/memory", session.ThenFunc(app.searchMemory))
	mux.Handle("GET /api/sessions/{sessionID}/contradictions", session.ThenFunc(app.contradictions))
	mux.Handle("GET /api/sessions/{sessionID}/timeline", session.ThenFunc(app.timeline))
	mux.Handle("DELETE /api/sessions/{sessionID}", session.ThenFunc(app.closeSession))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
