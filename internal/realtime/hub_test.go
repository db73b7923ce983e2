package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/models"
)

func newTestClient(orgID uuid.UUID, id string) *Client {
	return &Client{
		ID:             id,
		OrganizationID: orgID,
		UserID:         uuid.New(),
		send:           make(chan Message, 8),
	}
}

func TestHubBroadcastReachesOrgClients(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	orgA, orgB := uuid.New(), uuid.New()

	a := newTestClient(orgA, "a")
	b := newTestClient(orgB, "b")
	hub.Register(a)
	hub.Register(b)

	booking := &models.Booking{ID: uuid.New(), OrganizationID: orgA}
	hub.BroadcastBooking(orgA, "booking.created", booking)

	select {
	case msg := <-a.send:
		assert.Equal(t, "booking.created", msg.Event)
	case <-time.After(time.Second):
		t.Fatal("org A client received nothing")
	}
	select {
	case <-b.send:
		t.Fatal("org B client received another org's event")
	default:
	}

	hub.Unregister(a)
	hub.Unregister(b)
	assert.Zero(t, hub.ClientCount(orgA))
	assert.Zero(t, hub.ClientCount(orgB))
}

// Churns registrations while broadcasting; run with -race to verify the
// room map is never mutated during a broadcast iteration.
func TestHubConcurrentChurnAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	orgID := uuid.New()
	booking := &models.Booking{ID: uuid.New(), OrganizationID: orgID}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c := newTestClient(orgID, fmt.Sprintf("c-%d-%d", n, j))
				hub.Register(c)
				hub.BroadcastBooking(orgID, "booking.updated", booking)
				hub.Unregister(c)
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, hub.ClientCount(orgID))
}
