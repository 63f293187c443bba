package events

import (
	"testing"

	"store-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_PublishReachesEveryClient(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	a := hub.Register()
	b := hub.Register()
	require.Equal(t, 2, hub.ClientCount())

	hub.Publish(models.NewLedgerEvent(models.EventStockAdjusted, "stk-1", "alice", nil))

	for _, c := range []*Client{a, b} {
		select {
		case ev := <-c.Events:
			assert.Equal(t, models.EventStockAdjusted, ev.Type)
			assert.Equal(t, "stk-1", ev.ResourceID)
		default:
			t.Fatalf("client %s received nothing", c.ID)
		}
	}
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	c := hub.Register()

	hub.Publish(models.NewLedgerEvent(models.EventStockCreated, "1", "", nil))
	hub.Publish(models.NewLedgerEvent(models.EventStockCreated, "2", "", nil))

	ev := <-c.Events
	assert.Equal(t, "1", ev.ResourceID)
	assert.Len(t, c.Events, 0)
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	c := hub.Register()

	hub.Unregister(c.ID)
	hub.Unregister(c.ID)

	_, open := <-c.Events
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())
}
