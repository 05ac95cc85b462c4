package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/varken/sensorbridge/internal/server"
	"codeberg.org/varken/sensorbridge/internal/statetree"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*statetree.Tree, *server.Hub, *httptest.Server) {
	t.Helper()

	tree := statetree.New()
	dht := tree.Group("DHT11_Sensor")
	dht.CreateSlot("Temperature_C", 21.5).SetWritable()
	dht.CreateSlot("Status", 0)

	hub := server.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts := httptest.NewServer(server.New("", tree, hub).Router())
	t.Cleanup(ts.Close)

	return tree, hub, ts
}

func TestGetTree(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/tree")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tree map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tree))
	assert.Equal(t, 21.5, tree["DHT11_Sensor"]["Temperature_C"])
}

func TestGetSlot(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/tree/DHT11_Sensor/Temperature_C")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 21.5, body["value"])
}

func TestGetSlotNotFound(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/tree/DHT11_Sensor/Missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func putSlot(t *testing.T, url string, value any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(map[string]any{"value": value})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func TestPutWritableSlot(t *testing.T) {
	tree, _, ts := newTestServer(t)

	resp := putSlot(t, ts.URL+"/api/v1/tree/DHT11_Sensor/Temperature_C", 99.9)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	slot, ok := tree.Lookup("DHT11_Sensor", "Temperature_C")
	require.True(t, ok)
	assert.Equal(t, 99.9, slot.Value())
}

func TestPutNonWritableSlot(t *testing.T) {
	tree, _, ts := newTestServer(t)

	resp := putSlot(t, ts.URL+"/api/v1/tree/DHT11_Sensor/Status", 3)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	slot, ok := tree.Lookup("DHT11_Sensor", "Status")
	require.True(t, ok)
	assert.Equal(t, 0, slot.Value())
}

func TestWebSocketReceivesBroadcast(t *testing.T) {
	_, hub, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Give the hub a moment to register the client before broadcasting
	time.Sleep(50 * time.Millisecond)
	hub.BroadcastState(map[string]any{"Temperature_C": 22.0})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(message, &payload))
	assert.Equal(t, 22.0, payload["Temperature_C"])
}
