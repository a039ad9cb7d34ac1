package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/domain"
	"github.com/aretw0/courselet/pkg/flows"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/registry"
	"github.com/aretw0/courselet/pkg/routes"
	"github.com/aretw0/courselet/pkg/session"
)

type fixture struct {
	handler http.Handler
	coord   *live.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := memory.NewCatalog()
	cat.AddUnit(domain.Unit{ID: "u1", Title: "Newton"},
		domain.UnitLesson{ID: "intro", Kind: domain.LessonExplanation, Order: 1},
		domain.UnitLesson{ID: "q1", Kind: domain.LessonQuestion, Order: 2},
	)
	repo := memory.NewLiveRepository()
	coord := live.NewCoordinator(repo)
	reg, err := registry.New([]registry.Provider{flows.Provider(cat), live.Provider(coord)})
	require.NoError(t, err)
	eng, err := courselet.New(reg, session.NewManager(memory.NewStore()), routes.New(nil),
		courselet.WithEntityResolver(courselet.NewResolver(cat, repo)))
	require.NoError(t, err)
	return &fixture{
		handler: NewHandler(eng, WithRegistry(reg), WithCoordinator(coord)),
		coord:   coord,
	}
}

func (f *fixture) do(t *testing.T, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(SessionHeader, key)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeTarget(t *testing.T, w *httptest.ResponseRecorder) domain.Target {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var target domain.Target
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &target))
	return target
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/info", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), courselet.Version)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodOptions, "/v1/target", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), SessionHeader)
}

func TestRender_IssuesSessionCookie(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/v1/target", "", "")
	target := decodeTarget(t, w)
	assert.Equal(t, flows.Browse, target.Spec)
	assert.Equal(t, "/ct/", target.URL)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)

	// The cookie identifies the same stack on the next request.
	req := httptest.NewRequest(http.MethodPost, "/v1/events/unit", strings.NewReader(`{"extra":{"unit":"u1"}}`))
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "/ct/units/u1/", decodeTarget(t, rec).URL)
	assert.Empty(t, rec.Result().Cookies())
}

func TestFlows_PushInspectPop(t *testing.T) {
	f := newFixture(t)
	const key = "sess-1"

	target := decodeTarget(t, f.do(t, http.MethodPost, "/v1/flows/slideshow", key, `{"seed":{"unit":"u1"}}`))
	assert.Equal(t, flows.Slideshow, target.Spec)
	assert.Equal(t, "/ct/units/u1/lessons/intro/", target.URL)

	w := f.do(t, http.MethodGet, "/v1/stack", key, "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap courselet.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Frames, 2)
	assert.Equal(t, flows.Slideshow, snap.Frames[1].Spec)

	target = decodeTarget(t, f.do(t, http.MethodDelete, "/v1/flows/top", key, ""))
	assert.Equal(t, flows.Browse, target.Spec)

	w = f.do(t, http.MethodDelete, "/v1/flows/top", key, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMPTY_STACK", errorCode(t, w))
}

func TestErrors_StatusMapping(t *testing.T) {
	f := newFixture(t)
	const key = "sess-err"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown event", http.MethodPost, "/v1/events/nope", "", http.StatusConflict, "UNKNOWN_EVENT"},
		{"unknown spec", http.MethodPost, "/v1/flows/missing", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown seed key", http.MethodPost, "/v1/flows/slideshow", `{"seed":{"colour":"red"}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed body", http.MethodPost, "/v1/events/home", `{"extra":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown field", http.MethodPost, "/v1/events/home", `{"other":1}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing spec detail", http.MethodGet, "/v1/specs/missing", "", http.StatusNotFound, "NOT_FOUND"},
		{"unit without id", http.MethodPost, "/v1/events/unit", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"slideshow without unit", http.MethodPost, "/v1/events/slideshow", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"live without session", http.MethodPost, "/v1/events/live", `{"extra":{}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"deleted seed entity", http.MethodPost, "/v1/flows/slideshow", `{"seed":{"unit":"gone"}}`, http.StatusNotFound, "NOT_FOUND"},
		{"extra not an object", http.MethodPost, "/v1/events/home", `{"extra":[1]}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown stage move", http.MethodPost, "/v1/live/questions/q/stage/sideways", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"missing session body", http.MethodPost, "/v1/live/sessions", "", http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, key, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestOpenAPIDocument(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/openapi.yaml", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
	assert.Contains(t, w.Body.String(), "/v1/events/{event}:")

	w = f.do(t, http.MethodGet, "/swagger", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/openapi.yaml")
}

func TestRender_SyncsEndedLiveSession(t *testing.T) {
	f := newFixture(t)
	const key = "poller"

	sess, err := f.coord.StartSession(context.Background(), "u1", "prof")
	require.NoError(t, err)
	target := decodeTarget(t, f.do(t, http.MethodPost, "/v1/events/live", key, `{"extra":{"liveSession":"`+sess.ID+`"}}`))
	require.Equal(t, live.NodeWait, target.Node)

	_, err = f.coord.EndSession(context.Background(), sess.ID)
	require.NoError(t, err)

	target = decodeTarget(t, f.do(t, http.MethodGet, "/v1/target", key, ""))
	assert.Equal(t, flows.Browse, target.Spec)
	assert.Equal(t, "/ct/", target.URL)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	const key = "sess-reset"

	decodeTarget(t, f.do(t, http.MethodPost, "/v1/flows/test", key, ""))
	w := f.do(t, http.MethodDelete, "/v1/stack", key, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/v1/stack", key, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSpecs(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/v1/specs", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var specs []specSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &specs))
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	assert.Subset(t, names, []string{flows.Browse, flows.Slideshow, flows.Test, live.SpecName})

	w = f.do(t, http.MethodGet, "/v1/specs/slideshow", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entry":"START"`)
	assert.Contains(t, w.Body.String(), `"name":"next"`)
}

func TestLive_InstructorAndStudent(t *testing.T) {
	f := newFixture(t)
	const key = "student"

	w := f.do(t, http.MethodPost, "/v1/live/sessions", "", `{"unit":"u1","instructor":"prof"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sess domain.LiveSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))

	target := decodeTarget(t, f.do(t, http.MethodPost, "/v1/events/live", key, `{"extra":{"liveSession":"`+sess.ID+`"}}`))
	assert.Equal(t, live.NodeWait, target.Node)

	w = f.do(t, http.MethodPost, "/v1/live/sessions/"+sess.ID+"/questions", "", `{"title":"Why?","unitLesson":"q1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var q domain.LiveQuestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))

	target = decodeTarget(t, f.do(t, http.MethodPost, "/v1/events/sync", key, ""))
	assert.Equal(t, live.NodeRespond, target.Node)

	// START cannot jump to assessment.
	w = f.do(t, http.MethodPost, "/v1/live/questions/"+q.ID+"/stage/assessment", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STAGE", errorCode(t, w))

	w = f.do(t, http.MethodPost, "/v1/live/questions/"+q.ID+"/stage/sideways", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/v1/live/questions/"+q.ID+"/stage/response", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	target = decodeTarget(t, f.do(t, http.MethodPost, "/v1/events/respond", key,
		`{"extra":{"text":"gravity","confidence":"sure"}}`))
	assert.Equal(t, live.NodeWait, target.Node)

	w = f.do(t, http.MethodGet, "/v1/live/questions/"+q.ID+"/summary", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sum live.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.Active)
	assert.Equal(t, 1, sum.Responses)

	w = f.do(t, http.MethodPost, "/v1/live/sessions/"+sess.ID+"/end", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	target = decodeTarget(t, f.do(t, http.MethodPost, "/v1/events/sync", key, ""))
	assert.Equal(t, flows.Browse, target.Spec)
}

func TestLive_StartSessionValidation(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/v1/live/sessions", "", `{"unit":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/v1/live/sessions/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeEvents_BroadcastsInstructorMoves(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	sess, err := f.coord.StartSession(context.Background(), "u1", "prof")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/live/sessions/"+sess.ID+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}
	require.Equal(t, "connected", readData())

	post, err := http.Post(srv.URL+"/v1/live/sessions/"+sess.ID+"/questions", "application/json",
		strings.NewReader(`{"title":"Why?"}`))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	var n Notice
	require.NoError(t, json.Unmarshal([]byte(readData()), &n))
	assert.Equal(t, "question", n.Kind)
	assert.Equal(t, sess.ID, n.Session)
	assert.Equal(t, domain.StageStart, n.Stage)
}

func TestStreamManager_DropsForSlowClients(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	for i := 0; i < 20; i++ {
		sm.Broadcast("s1", "msg")
	}
	assert.Len(t, ch, 10)
	assert.Equal(t, 1, sm.Subscribers("s1"))

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	sm.Broadcast("s1", "after")
}
