package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

const (
	clientBuffer      = 32
	defaultHeartbeat  = 15 * time.Second
	eventNotification = "notification"
	eventConnected    = "connected"
)

// Streamer fans committed notifications out to the Server-Sent Events
// connections of their recipients. A user may hold several connections.
type Streamer struct {
	mu        sync.RWMutex
	clients   map[string]map[string]*Client
	heartbeat time.Duration
	logger    logger.Logger
}

// Client is one open event stream
type Client struct {
	ID      string
	UserID  string
	Channel chan []byte
}

// Event is the JSON payload of every data line
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Time int64       `json:"time"`
}

func NewStreamer(heartbeat time.Duration, log logger.Logger) *Streamer {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Streamer{
		clients:   make(map[string]map[string]*Client),
		heartbeat: heartbeat,
		logger:    log.WithFields(map[string]interface{}{"component": "notification_stream"}),
	}
}

var _ outbound.NotificationPublisher = (*Streamer)(nil)

// Publish queues n for every connection of its recipient. Slow clients drop
// the event rather than stall the writer; they still see it in the list.
func (s *Streamer) Publish(n *entity.Notification) {
	if n == nil {
		return
	}
	message, err := encode(eventNotification, n)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to encode notification event", err, map[string]interface{}{"notification_id": n.ID})
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients[n.UserID] {
		select {
		case c.Channel <- message:
		default:
			s.logger.Warn(context.Background(), "Stream client lagging, event dropped", map[string]interface{}{
				"client_id":       c.ID,
				"user_id":         c.UserID,
				"notification_id": n.ID,
			})
		}
	}
}

// AddClient registers a new connection for userID
func (s *Streamer) AddClient(userID string) *Client {
	c := &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		Channel: make(chan []byte, clientBuffer),
	}
	s.mu.Lock()
	if s.clients[userID] == nil {
		s.clients[userID] = make(map[string]*Client)
	}
	s.clients[userID][c.ID] = c
	s.mu.Unlock()
	return c
}

// RemoveClient drops the connection; Publish never sends to it afterwards
func (s *Streamer) RemoveClient(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := s.clients[c.UserID]
	if _, ok := conns[c.ID]; !ok {
		return
	}
	delete(conns, c.ID)
	if len(conns) == 0 {
		delete(s.clients, c.UserID)
	}
}

// ClientCount returns the number of open connections
func (s *Streamer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, conns := range s.clients {
		n += len(conns)
	}
	return n
}

// Serve streams userID's notifications until the request context ends
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := s.AddClient(userID)
	defer s.RemoveClient(client)

	hello, _ := encode(eventConnected, map[string]string{"client_id": client.ID})
	if err := writeEvent(w, eventConnected, hello); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case message := <-client.Channel:
			if err := writeEvent(w, eventNotification, message); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ":heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func encode(eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(Event{Type: eventType, Data: data, Time: time.Now().Unix()})
}

func writeEvent(w http.ResponseWriter, eventType string, message []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, message)
	return err
}
