package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgUtils "github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
	done   chan struct{}
}

func newRecordingSink(expect int, err error) *recordingSink {
	return &recordingSink{err: err, done: make(chan struct{}, expect)}
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(_ context.Context, evt domain.Event) error {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *recordingSink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i+1)
		}
	}
}

func TestFanout_DeliversToEverySink(t *testing.T) {
	ok := newRecordingSink(2, nil)
	broken := newRecordingSink(2, errors.New("down"))
	fan := NewFanout(Config{RatePerSec: 1000}, ok, broken)
	fan.Start(context.Background())

	fan.Notify(context.Background(), domain.Event{Type: domain.EventPostScheduled, PostID: "p1"})
	fan.Notify(context.Background(), domain.Event{Type: domain.EventRuleCompleted, RuleID: "r1"})
	ok.wait(t, 2)
	broken.wait(t, 2)
	fan.Stop()

	require.Len(t, ok.events, 2)
	assert.Equal(t, "p1", ok.events[0].PostID)
	assert.False(t, ok.events[0].Timestamp.IsZero())

	stats := fan.Stats()
	assert.Equal(t, int64(2), stats.Delivered)
	assert.Equal(t, int64(2), stats.Failed)
	assert.Equal(t, []string{"recording", "recording"}, stats.Sinks)
}

func TestFanout_DropsWhenQueueFull(t *testing.T) {
	sink := newRecordingSink(4, nil)
	fan := NewFanout(Config{QueueSize: 1}, sink)

	// Not started: the first event fills the queue.
	fan.Notify(context.Background(), domain.Event{Type: domain.EventPostScheduled})
	fan.Notify(context.Background(), domain.Event{Type: domain.EventPostScheduled})
	assert.Equal(t, int64(1), fan.Stats().Dropped)
	assert.Equal(t, 1, fan.Stats().Queued)

	fan.Stop()
	fan.Notify(context.Background(), domain.Event{Type: domain.EventPostScheduled})
	assert.Equal(t, int64(1), fan.Stats().Dropped)
}

func TestWebhookSink_SignsBody(t *testing.T) {
	var (
		mu      sync.Mutex
		gotBody []byte
		gotSig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink([]string{srv.URL}, "secret")
	evt := domain.Event{Type: domain.EventPostScheduled, PostID: "p1", Timestamp: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, sink.Deliver(context.Background(), evt))

	mu.Lock()
	defer mu.Unlock()
	var decoded domain.Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "p1", decoded.PostID)

	want, err := pkgUtils.GetMessageDigestOrSignature(gotBody, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "sha256="+want, gotSig)
}

func TestWebhookSink_ReportsFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewWebhookSink([]string{srv.URL}, "")
	sink.backoff = time.Millisecond
	err := sink.Deliver(context.Background(), domain.Event{Type: domain.EventSweepFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestNatsSink_Subject(t *testing.T) {
	sink := NewNatsSinkFromConn(nil, "click.schedule.")
	assert.Equal(t, "click.schedule.post.moved", sink.Subject(domain.EventPostMoved))
	assert.Equal(t, "nats", sink.Name())
}
