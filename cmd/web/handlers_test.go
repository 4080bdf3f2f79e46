package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScenarioJSON = `{
  "setting": "A snowed-in manor house, winter 1923.",
  "victim": {"name": "Lord Edgar Blackwood", "background": "Owner of the manor."},
  "locations": [
    {"id": "study", "name": "The Study", "description": "Books and a cold fireplace.", "is_murder_scene": true},
    {"id": "library", "name": "The Library", "description": "Tall shelves."},
    {"id": "garden", "name": "The Winter Garden", "description": "Frosted glass panes."},
    {"id": "kitchen", "name": "The Kitchen", "description": "Still warm from dinner."}
  ],
  "suspects": [
    {"id": "s1", "name": "Clara Voss", "role": "Niece", "personality": "Sharp.",
     "motive": "Stood to inherit.", "secret": "She forged a letter.",
     "alibi": "I was reading in the library.", "alibi_location_id": "library"},
    {"id": "s2", "name": "Dr. Henry Marsh", "role": "Physician", "personality": "Evasive.",
     "motive": "Feared exposure.", "secret": "He owes gambling debts.",
     "alibi": "I kept Clara company.", "alibi_location_id": "library"},
    {"id": "s3", "name": "Mr. Pruitt", "role": "Butler", "personality": "Unreadable.",
     "motive": "Faced dismissal.", "secret": "He was in the study at nine.",
     "alibi": "I was tending the garden.", "alibi_location_id": "garden", "guilty": true},
    {"id": "s4", "name": "Rosa Lindqvist", "role": "Cook", "personality": "Guarded.",
     "motive": "Withheld wages.", "secret": "She hides a stowaway.",
     "alibi": "I never left my kitchen.", "alibi_location_id": "kitchen"}
  ],
  "clues": [
    {"id": "c1", "location_id": "study", "content": "Mud from the garden path.", "suspect_id": "s3"},
    {"id": "c2", "location_id": "library", "content": "Two teacups, both warm."}
  ],
  "events": [
    {"observer_id": "s1", "observed_id": "s2", "location_id": "library", "slot": "critical_window", "true": true},
    {"observer_id": "s2", "observed_id": "s1", "location_id": "library", "slot": "critical_window", "true": true},
    {"observer_id": "s3", "observed_id": "", "location_id": "study", "slot": "critical_window", "true": true},
    {"observer_id": "s4", "observed_id": "", "location_id": "kitchen", "slot": "critical_window", "true": true}
  ],
  "culprit_id": "s3"
}`

type testServer struct {
	*httptest.Server
	client http.Client
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	fake := &testhelpers.FakeAI{
		StructuredFunc: func(_ context.Context, _, _, schemaName string, out any) error {
			if schemaName == "murder_mystery" {
				return json.Unmarshal([]byte(testScenarioJSON), out)
			}
			return nil
		},
	}

	database, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	logger := testhelpers.NewLogger(io.Discard)
	store := memory.NewStore(database, fake, logger)

	app := application{
		logger:          logger,
		sessionManager:  scs.New(),
		registry:        game.NewRegistry(fake, store, logger),
		presets:         map[string]config.Settings{"lighthouse": {Era: "a lighthouse, 1899", Tone: "bleak", Suspects: 4}},
		defaultSettings: config.DefaultSettings(),
	}

	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return testServer{Server: srv, client: http.Client{Jar: jar}}
}

func (ts testServer) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (ts testServer) startGame(t *testing.T) startSessionResponse {
	t.Helper()
	resp := ts.request(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	started := decodeBody[startSessionResponse](t, resp)
	require.NotEmpty(t, started.SessionID)
	return started
}

func TestHealthy(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/healthy", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestStartSessionReturnsCaseFile(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	started := ts.startGame(t)
	assert.Len(t, started.CaseFile.Suspects, 4)
	assert.Equal(t, "Lord Edgar Blackwood", started.CaseFile.Victim.Name)

	// The cookie session remembers the game.
	resp := ts.request(t, http.MethodGet, "/api/sessions/current", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	snapshot := decodeBody[game.Snapshot](t, resp)
	assert.Equal(t, started.SessionID, snapshot.ID)
}

func TestStartSessionWithUnknownPreset(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/sessions", startSessionRequest{Preset: "moonbase"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.request(t, http.MethodPost, "/api/sessions", startSessionRequest{Preset: "lighthouse"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestInterrogateEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	started := ts.startGame(t)
	base := "/api/sessions/" + started.SessionID

	resp := ts.request(t, http.MethodPost, base+"/interrogate",
		interrogateRequest{SuspectID: "s1", Question: "Where were you at nine?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcome := decodeBody[game.InterrogationOutcome](t, resp)
	assert.Equal(t, 1, outcome.Turn)
	assert.NotEmpty(t, outcome.Reply)

	// Missing fields are rejected before touching the session.
	resp = ts.request(t, http.MethodPost, base+"/interrogate", interrogateRequest{SuspectID: "s1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.request(t, http.MethodPost, base+"/interrogate",
		interrogateRequest{SuspectID: "s9", Question: "Anyone there?"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSearchAndMemoryEndpoints(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	started := ts.startGame(t)
	base := "/api/sessions/" + started.SessionID

	resp := ts.request(t, http.MethodPost, base+"/search-location", searchLocationRequest{LocationID: "study"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcome := decodeBody[game.SearchOutcome](t, resp)
	require.True(t, outcome.Found)
	assert.Contains(t, outcome.Clue.Content, "Mud")

	resp = ts.request(t, http.MethodGet, base+"/memory?q=mud+garden", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decodeBody[[]memory.Result](t, resp)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Text, "Mud")

	resp = ts.request(t, http.MethodGet, base+"/memory", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAccuseEndpointEndsTheGame(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	started := ts.startGame(t)
	base := "/api/sessions/" + started.SessionID

	// The epilogue is locked while the game runs.
	resp := ts.request(t, http.MethodGet, base+"/timeline", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.request(t, http.MethodPost, base+"/accuse", accuseRequest{SuspectID: "s3", Evidence: "the mud"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcome := decodeBody[game.AccusationOutcome](t, resp)
	assert.True(t, outcome.Correct)
	assert.Equal(t, game.StatusWon, outcome.Status)
	require.NotNil(t, outcome.Solution)

	resp = ts.request(t, http.MethodGet, base+"/timeline", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.request(t, http.MethodPost, base+"/interrogate",
		interrogateRequest{SuspectID: "s1", Question: "One more thing."})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUnknownSessionIs404(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/sessions/nope/state", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCloseSessionEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	started := ts.startGame(t)
	base := "/api/sessions/" + started.SessionID

	resp := ts.request(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ts.request(t, http.MethodGet, base+"/state", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
