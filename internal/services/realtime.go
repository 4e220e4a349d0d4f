package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/buildhive/buildhive-backend/internal/database"
)

// Event type constants broadcast over Redis and WebSocket.
const (
	EventTypeMessage      = "message"
	EventTypeRead         = "read"
	EventTypeStatusUpdate = "status-update"
	EventTypeAssigned     = "assigned"
	EventTypePong         = "pong"
)

const projectChannelPrefix = "project:chat:"

// ProjectEvent is the payload delivered to subscribers of a project channel.
// Fire-and-forget: no acknowledgment, no replay.
type ProjectEvent struct {
	Type        string    `json:"type"`
	ProjectID   string    `json:"project_id,omitempty"`
	EntryID     string    `json:"entry_id,omitempty"`
	EntryType   string    `json:"entry_type,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
	Content     string    `json:"content,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
	Status      string    `json:"status,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// projectHub fans events out to local WebSocket connections, keyed by
// project. Cross-instance delivery goes through Redis pub/sub.
type projectHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan ProjectEvent]struct{}
}

var (
	hub          = &projectHub{subscribers: make(map[string]map[chan ProjectEvent]struct{})}
	redisStarted sync.Once
)

// SubscribeProject registers a local subscriber for a project channel and
// returns the event channel plus an unsubscribe func.
func SubscribeProject(projectID string) (<-chan ProjectEvent, func()) {
	ch := make(chan ProjectEvent, 16)

	hub.mu.Lock()
	subs, ok := hub.subscribers[projectID]
	if !ok {
		subs = make(map[chan ProjectEvent]struct{})
		hub.subscribers[projectID] = subs
	}
	subs[ch] = struct{}{}
	hub.mu.Unlock()

	unsubscribe := func() {
		hub.mu.Lock()
		if subs, ok := hub.subscribers[projectID]; ok {
			if _, present := subs[ch]; present {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(hub.subscribers, projectID)
			}
		}
		hub.mu.Unlock()
	}
	return ch, unsubscribe
}

// fanOutProjectEvent delivers an event to all local subscribers. Slow
// consumers are skipped rather than blocking the hub.
func fanOutProjectEvent(event ProjectEvent) {
	if event.ProjectID == "" {
		return
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for ch := range hub.subscribers[event.ProjectID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishProjectEvent publishes an event to Redis so every instance can fan
// it out to its own connections.
func PublishProjectEvent(ctx context.Context, event ProjectEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, projectChannelPrefix+event.ProjectID, data).Err()
}

// StartRedisProjectSubscriber ensures a single shared Redis listener per
// instance.
func StartRedisProjectSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; project event subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, projectChannelPrefix+"*")
			defer pubsub.Close()

			log.Printf("✅ Project event subscriber started (pattern: %s*)", projectChannelPrefix)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event ProjectEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal project event: %v", err)
					continue
				}

				fanOutProjectEvent(event)
			}
		}()
	}
}
