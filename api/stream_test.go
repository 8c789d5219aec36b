package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
	"github.com/YassienTawfikk/SonoMetric/internal/testutil"
)

func TestFramesSSE(t *testing.T) {
	srv, engine, clock := newTestServer(t)
	mux := srv.ServeMux()

	rec := postJSON(t, mux, "/api/start", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/frames", nil).WithContext(ctx)
	sseRec := httptest.NewRecorder()

	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		mux.ServeHTTP(sseRec, req)
	}()

	// Give the handler time to subscribe, then produce frames.
	time.Sleep(20 * time.Millisecond)
	produceFrames(t, engine, clock)
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case <-handlerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("SSE handler did not return after context cancel")
	}

	if got := sseRec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	body := sseRec.Body.String()
	if !strings.Contains(body, "data: {") {
		t.Errorf("expected at least one SSE event, got %q", body)
	}
	if !strings.Contains(body, `"seq"`) {
		t.Error("event payload does not look like a spectrogram frame")
	}
}

func TestFramesWebsocket(t *testing.T) {
	srv, engine, clock := newTestServer(t)
	ts := httptest.NewServer(srv.ServeMux())
	defer ts.Close()

	testutil.AssertNoError(t, engine.Start())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/frames/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	testutil.AssertNoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Drive the engine while the reader waits for a frame.
	stop := make(chan struct{})
	go func() {
		interval := engine.Params().TickInterval
		for {
			select {
			case <-stop:
				return
			default:
				clock.Advance(interval)
				time.Sleep(2 * time.Millisecond)
			}
		}
	}()
	defer close(stop)

	testutil.AssertNoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, payload, err := conn.ReadMessage()
	testutil.AssertNoError(t, err)

	var frame doppler.SpectrogramFrame
	testutil.AssertNoError(t, json.Unmarshal(payload, &frame))
	if len(frame.Freqs) != engine.Params().FFTSize {
		t.Errorf("frame has %d bins, want %d", len(frame.Freqs), engine.Params().FFTSize)
	}
	if len(frame.Power) != len(frame.Freqs) {
		t.Errorf("power/freqs length mismatch: %d vs %d", len(frame.Power), len(frame.Freqs))
	}
}
