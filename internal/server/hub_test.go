package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clients may still arrive or disconnect between cancellation and process
// exit; neither path may block once Run has returned.
func TestHubAddRemoveAfterShutdown(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop on cancellation")
	}

	c := &client{hub: hub, send: make(chan []byte, 1)}

	returned := make(chan bool, 1)
	go func() { returned <- hub.add(c) }()
	select {
	case accepted := <-returned:
		assert.False(t, accepted, "a stopped hub must refuse new clients")
	case <-time.After(time.Second):
		t.Fatal("add blocked on a stopped hub")
	}

	removed := make(chan struct{})
	go func() {
		hub.remove(c)
		close(removed)
	}()
	select {
	case <-removed:
	case <-time.After(time.Second):
		t.Fatal("remove blocked on a stopped hub")
	}
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(finished)
	}()

	c := &client{hub: hub, send: make(chan []byte, 1)}
	require.True(t, hub.add(c))

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop on cancellation")
	}

	select {
	case _, open := <-c.send:
		assert.False(t, open, "send channel should be closed on shutdown")
	default:
		t.Fatal("send channel was not closed on shutdown")
	}
}
