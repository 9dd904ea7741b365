package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	h := NewHub()
	a, b := h.Subscribe(), h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish(TypeApplicationRecorded, "run-1", Application{Client: "C", Title: "介護職"})

	for _, ch := range []chan []byte{a, b} {
		var e Event
		require.NoError(t, json.Unmarshal(<-ch, &e))
		assert.Equal(t, TypeApplicationRecorded, e.Type)
		assert.Equal(t, "run-1", e.RunID)
		assert.JSONEq(t, `{"client":"C","title":"介護職","received_at":"0001-01-01T00:00:00Z"}`, string(e.Data))
	}
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(TypeRunStarted, "", nil)
	}
	assert.Len(t, ch, subscriberBuffer)

	h.Unsubscribe(ch)
	h.Unsubscribe(ch)
	assert.Zero(t, h.Subscribers())
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(TypeRunFinished, "", nil) })
}
