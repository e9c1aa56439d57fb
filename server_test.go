package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"devfestsched/broadcaster"
	"devfestsched/config"
	"devfestsched/model"
	"devfestsched/provider"
	"devfestsched/schedule"

	ics "github.com/arran4/golang-ical"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// swappableSource serves whatever collection the test last set.
type swappableSource struct {
	mu sync.Mutex
	c  model.Collection
}

func (s *swappableSource) Fetch(context.Context, string) model.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c
}

func (s *swappableSource) set(c model.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = c
}

func lagosCollection() model.Collection {
	return schedule.Build(map[string][]model.RawSession{"day1": {
		{Title: "Lunch Break", Time: "1:00 PM - 2:00 PM"},
		{Title: "Opening Keynote", Time: "9:00 AM - 9:45 AM", Room: "Main Auditorium", SessionType: "Keynote"},
	}})
}

type testServer struct {
	*httptest.Server
	lagos   *swappableSource
	hub     *broadcaster.Broadcaster
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zaptest.NewLogger(t)
	c := config.DefaultConfig()
	c.Events["lagos"] = config.EventConfig{Name: "DevFest Lagos 2024", URL: "x", Source: "dom", Date: "2024-11-16", Timezone: "UTC"}

	lagos := &swappableSource{c: lagosCollection()}
	reg := provider.NewRegistry(
		provider.New(model.EventInfo{Location: "lagos", Name: "DevFest Lagos 2024", URL: "x", Source: "dom"}, lagos, log),
		provider.New(model.EventInfo{Location: "nairobi", Name: "DevFest Nairobi 2024", URL: "y", Source: "embedded"}, &swappableSource{c: model.Empty()}, log),
	)
	hub := broadcaster.NewBroadcaster(log)
	loader := provider.NewLoader(reg, time.Hour, log, provider.WithPublisher(hub))

	s := newScheduleServer(c, reg, loader, hub, log)
	s.now = func() time.Time { return time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC) }
	h := s.routes()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, lagos: lagos, hub: hub, handler: h}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHandleEvents(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var events []model.EventInfo
	require.NoError(t, json.Unmarshal([]byte(body), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "lagos", events[0].Location)
	assert.Equal(t, "DevFest Nairobi 2024", events[1].Name)
}

func TestHandleSchedule(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/schedule/Lagos")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var u model.Update
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	assert.Equal(t, 2, u.Sessions)
	assert.Equal(t, "Opening Keynote", u.Schedule["day1"][0].Title)

	resp, body = get(t, ts.URL+"/schedule/nairobi")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "not yet available")

	resp, _ = get(t, ts.URL+"/schedule/accra")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleScheduleText(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/schedule/lagos/text")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "Schedule for DevFest Lagos 2024:\n"))

	_, body = get(t, ts.URL+"/schedule/nairobi/text")
	assert.Equal(t, schedule.Unavailable("DevFest Nairobi 2024")+"\n", body)
}

func TestHandleScheduleICS(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/schedule/lagos/ics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/calendar; charset=utf-8", resp.Header.Get("Content-Type"))
	cal, err := ics.ParseCalendar(strings.NewReader(body))
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 2)

	resp, _ = get(t, ts.URL+"/schedule/nairobi/ics")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/schedule/lagos", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRefreshPushesToWebsocketClients(t *testing.T) {
	ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	readUpdate := func() model.Update {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var u model.Update
		require.NoError(t, json.Unmarshal(msg, &u))
		return u
	}
	assert.Equal(t, "lagos", readUpdate().Event)
	assert.Equal(t, "nairobi", readUpdate().Event)
	require.Eventually(t, func() bool { return ts.hub.Count() == 1 }, 5*time.Second, 5*time.Millisecond)

	ts.lagos.set(schedule.Build(map[string][]model.RawSession{"day1": {{Title: "Only session", Time: "10:00 AM"}}}))
	resp, err := http.Post(ts.URL+"/schedule/lagos/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pushed := readUpdate()
	assert.Equal(t, "lagos", pushed.Event)
	assert.Equal(t, 1, pushed.Sessions)
	assert.Equal(t, "Only session", pushed.Schedule["day1"][0].Title)
}

func TestRefreshOutlivesCallerHangup(t *testing.T) {
	ts := newTestServer(t)
	ts.lagos.set(schedule.Build(map[string][]model.RawSession{"day1": {{Title: "Only session", Time: "10:00 AM"}}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/schedule/lagos/refresh", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp, body := get(t, ts.URL+"/schedule/lagos")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u model.Update
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	assert.Equal(t, 1, u.Sessions)
}

func TestProbeCountsMessages(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan probeResult, 1)
	go func() { done <- runProbe(ctx, url, 3, time.Millisecond, zaptest.NewLogger(t)) }()

	// Clients register after their initial messages are written; give the
	// reads a moment to land before stopping.
	require.Eventually(t, func() bool { return ts.hub.Count() == 3 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.EqualValues(t, 3, res.Connected)
		assert.Zero(t, res.Failed)
		assert.EqualValues(t, 6, res.Messages, "each client gets both initial schedules")
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not stop after cancel")
	}
}

func TestProbeUnreachableServer(t *testing.T) {
	res := runProbe(context.Background(), "ws://127.0.0.1:1/ws", 2, time.Millisecond, zaptest.NewLogger(t))
	assert.EqualValues(t, 2, res.Failed)
	assert.Zero(t, res.Connected)
}
