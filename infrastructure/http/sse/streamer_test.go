package sse

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subrata270/studio-sub001/domain/entity"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

func TestPublish_OnlyReachesRecipient(t *testing.T) {
	s := NewStreamer(time.Minute, logger.NewNopLogger())
	mine := s.AddClient("poc-1")
	other := s.AddClient("hod-1")

	s.Publish(&entity.Notification{ID: "n-1", UserID: "poc-1", Message: "Approved"})

	select {
	case msg := <-mine.Channel:
		assert.Contains(t, string(msg), `"n-1"`)
	default:
		t.Fatal("recipient did not receive the event")
	}
	assert.Len(t, other.Channel, 0)
}

func TestPublish_DropsWhenClientIsFull(t *testing.T) {
	s := NewStreamer(time.Minute, logger.NewNopLogger())
	c := s.AddClient("poc-1")

	for i := 0; i < clientBuffer+5; i++ {
		s.Publish(&entity.Notification{ID: "n", UserID: "poc-1"})
	}
	assert.Len(t, c.Channel, clientBuffer)
}

func TestRemoveClient(t *testing.T) {
	s := NewStreamer(time.Minute, logger.NewNopLogger())
	a := s.AddClient("poc-1")
	b := s.AddClient("poc-1")
	assert.Equal(t, 2, s.ClientCount())

	s.RemoveClient(a)
	s.RemoveClient(a)
	assert.Equal(t, 1, s.ClientCount())

	s.RemoveClient(b)
	assert.Equal(t, 0, s.ClientCount())
	s.Publish(&entity.Notification{ID: "n", UserID: "poc-1"})
}

func TestServe_WritesConnectedAndNotification(t *testing.T) {
	s := NewStreamer(time.Minute, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/notifications/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Serve(w, req, "poc-1")
		close(done)
	}()

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	s.Publish(&entity.Notification{ID: "n-7", UserID: "poc-1", Message: "Payment completed"})
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "event: connected\n"))
	assert.Contains(t, body, "event: notification\n")
	assert.Contains(t, body, `"n-7"`)
	assert.Equal(t, 0, s.ClientCount())
}
