package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/anonto42/playmaker/backend/internal/metrics"
	"github.com/anonto42/playmaker/backend/internal/models"
	"go.uber.org/zap"
)

const (
	EventNewPost        = "new-post"
	EventNotification   = "notification"
	EventTimelineUpdate = "timeline-update"

	defaultBufferSize = 16
)

// Envelope is the frame written to every realtime connection
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans events out to the realtime connections of each user.
// Delivery is best effort: a connection whose queue is full misses the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[int64]*subscriber
	nextID      int64
	bufferSize  int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

type subscriber struct {
	id     int64
	userID uint
	stream chan []byte
}

// HubOption customizes a Hub
type HubOption func(*Hub)

// WithBufferSize sets the per-connection queue length
func WithBufferSize(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.bufferSize = size
		}
	}
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger, m *metrics.Metrics, opts ...HubOption) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		subscribers: make(map[uint]map[int64]*subscriber),
		bufferSize:  defaultBufferSize,
		logger:      logger,
		metrics:     m,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a stream for the user. The stream is unregistered when ctx is done
// or when the returned cleanup func is called.
func (h *Hub) Subscribe(ctx context.Context, userID uint) (<-chan []byte, func()) {
	if userID == 0 {
		ch := make(chan []byte)
		close(ch)
		return ch, func() {}
	}
	sub := &subscriber{
		id:     h.nextSequence(),
		userID: userID,
		stream: make(chan []byte, h.bufferSize),
	}
	h.register(sub)

	var once sync.Once
	cleanup := func() {
		once.Do(func() { h.unregister(sub) })
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.stream, cleanup
}

// BroadcastNewPost sends a freshly created post to every connection
func (h *Hub) BroadcastNewPost(post *models.Post) {
	h.publish(EventNewPost, post, h.all())
}

// NotifyUser sends a targeted notification to the recipient's connections
func (h *Hub) NotifyUser(recipientID uint, event models.NotificationEvent) {
	h.publish(EventNotification, event, h.forUser(recipientID))
}

// BroadcastPostUpdated sends the persisted state of an updated post to every connection
func (h *Hub) BroadcastPostUpdated(postID string, post *models.Post) {
	h.publish(EventTimelineUpdate, models.PostUpdatedEvent{PostID: postID, UpdatedPost: post}, h.all())
}

// ConnectionCount returns the number of registered streams for the user
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

func (h *Hub) publish(event string, data interface{}, targets []*subscriber) {
	if len(targets) == 0 {
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("failed to encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}
	for _, sub := range targets {
		select {
		case sub.stream <- frame:
			h.metrics.EventDelivered(event)
		default:
			h.metrics.EventDropped(event)
			h.logger.Debug("realtime queue full, dropping event",
				zap.String("event", event), zap.Uint("user_id", sub.userID))
		}
	}
}

func (h *Hub) all() []*subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*subscriber
	for _, subs := range h.subscribers {
		for _, sub := range subs {
			out = append(out, sub)
		}
	}
	return out
}

func (h *Hub) forUser(userID uint) []*subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := h.subscribers[userID]
	out := make([]*subscriber, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub)
	}
	return out
}

func (h *Hub) nextSequence() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	return h.nextID
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub.userID]; !ok {
		h.subscribers[sub.userID] = make(map[int64]*subscriber)
	}
	h.subscribers[sub.userID][sub.id] = sub
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	subs := h.subscribers[sub.userID]
	if subs != nil {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.subscribers, sub.userID)
		}
	}
	h.mu.Unlock()
}
