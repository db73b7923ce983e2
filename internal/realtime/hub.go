package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains organization_id -> set of connections and broadcasts booking
// events. Uses Redis pub/sub for horizontal scaling: local broadcast plus
// publish to Redis so other instances deliver to their own clients.
type Hub struct {
	orgs     map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per organization
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    Publisher
	redisSub Subscriber
}

// Publisher publishes organization events for cross-instance broadcast.
type Publisher interface {
	PublishOrganizationEvent(organizationID uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to an organization channel and invokes handler for
// incoming events.
type Subscriber interface {
	SubscribeOrganization(organizationID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a booking feed hub. redisPub and redisSub may be nil; the
// feed is then instance-local.
func NewHub(logger *zap.Logger, redisPub Publisher, redisSub Subscriber) *Hub {
	return &Hub{
		orgs:     make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to an organization room. Starts the Redis
// subscription for the organization when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.orgs[c.OrganizationID] == nil {
		h.orgs[c.OrganizationID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeOrganization(c.OrganizationID, func(event string, payload []byte) {
				h.broadcastLocal(c.OrganizationID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.OrganizationID] = cancel
			}
		}
	}
	h.orgs[c.OrganizationID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined feed",
		zap.String("client_id", c.ID),
		zap.String("organization_id", c.OrganizationID.String()))
}

// Unregister removes a client. Cancels the Redis subscription when the last
// client of an organization leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.orgs[c.OrganizationID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.orgs, c.OrganizationID)
			if cancel, ok := h.subs[c.OrganizationID]; ok {
				cancel()
				delete(h.subs, c.OrganizationID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left feed",
		zap.String("client_id", c.ID),
		zap.String("organization_id", c.OrganizationID.String()))
}

func (h *Hub) broadcastLocal(organizationID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := Message{Event: event, Data: data}

	// Sends are non-blocking, so holding the lock across the loop is safe
	// and keeps Register/Unregister from mutating the map mid-iteration.
	h.mu.RLock()
	for _, c := range h.orgs[organizationID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
	h.mu.RUnlock()
}

// BroadcastBooking delivers a booking event to the organization's feed.
// With Redis configured it publishes only, so the subscriber callback
// performs the broadcast once per instance without duplicate local delivery.
func (h *Hub) BroadcastBooking(organizationID uuid.UUID, event string, booking *models.Booking) {
	data, err := json.Marshal(booking)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishOrganizationEvent(organizationID, event, data)
		return
	}
	h.broadcastLocal(organizationID, event, json.RawMessage(data))
}

// ClientCount returns the number of connected clients for an organization.
func (h *Hub) ClientCount(organizationID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orgs[organizationID])
}
