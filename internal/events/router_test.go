package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgoyal/huddle/internal/registry"
)

type captureSession struct {
	delivered [][]byte
	accept    bool
}

func newCaptureSession() *captureSession { return &captureSession{accept: true} }

func (c *captureSession) Deliver(payload []byte) bool {
	if !c.accept {
		return false
	}
	c.delivered = append(c.delivered, payload)
	return true
}

func TestEmitDeliversToLiveRecipientsOnly(t *testing.T) {
	reg := registry.New()
	router := NewRouter(reg)

	alice := newCaptureSession()
	bob := newCaptureSession()
	reg.Register(1, alice)
	reg.Register(2, bob)

	router.Emit([]int{1, 2, 99}, Alert, AlertPayload{ChatID: 5, Message: "hello"})

	require.Len(t, alice.delivered, 1)
	require.Len(t, bob.delivered, 1)

	var env struct {
		Kind    string       `json:"kind"`
		Payload AlertPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(alice.delivered[0], &env))
	assert.Equal(t, Alert, env.Kind)
	assert.Equal(t, 5, env.Payload.ChatID)
	assert.Equal(t, "hello", env.Payload.Message)
}

func TestEmitZeroLiveRecipientsIsNoop(t *testing.T) {
	router := NewRouter(registry.New())

	// Must return without error and without delivering anything.
	router.Emit([]int{1, 2, 3}, RefetchChats, nil)
	router.Emit(nil, RefetchChats, nil)
}

func TestEmitOneRejectingSessionDoesNotBlockOthers(t *testing.T) {
	reg := registry.New()
	router := NewRouter(reg)

	stuck := newCaptureSession()
	stuck.accept = false
	healthy := newCaptureSession()
	reg.Register(1, stuck)
	reg.Register(2, healthy)

	router.Emit([]int{1, 2}, NewMessageAlert, ChatPayload{ChatID: 9})

	assert.Empty(t, stuck.delivered)
	assert.Len(t, healthy.delivered, 1)
}

func TestEmitPreservesPerRecipientOrder(t *testing.T) {
	reg := registry.New()
	router := NewRouter(reg)

	s := newCaptureSession()
	reg.Register(1, s)

	router.Emit([]int{1}, NewMessage, MessagePayload{ChatID: 3, Message: "first"})
	router.Emit([]int{1}, NewMessageAlert, ChatPayload{ChatID: 3})

	require.Len(t, s.delivered, 2)

	var first, second Envelope
	require.NoError(t, json.Unmarshal(s.delivered[0], &first))
	require.NoError(t, json.Unmarshal(s.delivered[1], &second))
	assert.Equal(t, NewMessage, first.Kind)
	assert.Equal(t, NewMessageAlert, second.Kind)
}
