package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierDelivers(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(srv.URL, time.Second, nil)
	notifier.Notify(context.Background(), Event{Kind: "report.completed", ReportID: "rep-1", Status: "COMPLETED"})

	select {
	case event := <-received:
		assert.Equal(t, "report.completed", event.Kind)
		assert.Equal(t, "rep-1", event.ReportID)
		assert.False(t, event.OccurredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestWebhookNotifierSwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(srv.URL, time.Second, nil)
	// Must not panic or propagate anything.
	notifier.Notify(context.Background(), Event{Kind: "report.failed"})
}

func TestWebhookNotifierEmptyURLIsNoop(t *testing.T) {
	notifier := NewWebhookNotifier("", time.Second, nil)
	notifier.Notify(context.Background(), Event{Kind: "report.completed"})
}
