package stream

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"candyworks/internal/session"
	"candyworks/internal/tycoon"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(session.Options{
		ID:     "ws",
		Engine: tycoon.NewEngine(tycoon.DefaultTuning(), tycoon.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))),
		Layout: tycoon.Layout{
			Name:     "ws",
			Droppers: []tycoon.Dropper{{ID: "d", SpawnRate: time.Second, CandyType: "sugar", CandyValue: 1}},
			Sellers:  []tycoon.Seller{{ID: "s", Position: tycoon.Vec2{X: 2}, SellMultiplier: 1}},
			Offers: []tycoon.Offer{
				{ID: "dropper", Name: "Dropper", Kind: tycoon.KindDropper, Target: "d"},
				{ID: "stand", Name: "Stand", Cost: 60, Kind: tycoon.KindSeller, Target: "s"},
			},
		},
		Logger: log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	return s
}

type harness struct {
	hub    *Hub
	conn   *websocket.Conn
	cancel context.CancelFunc
}

func start(t *testing.T, s *session.Session, every time.Duration) harness {
	t.Helper()
	hub := NewHub(s, Options{StateEvery: every, Logger: log.New(io.Discard, "", 0)})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	t.Cleanup(cancel)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)
	return harness{hub: hub, conn: conn, cancel: cancel}
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_SendsStateThenEvents(t *testing.T) {
	s := newSession(t)
	h := start(t, s, 0)

	first := read(t, h.conn)
	require.Equal(t, "state", first.Type)
	require.NotNil(t, first.State)
	assert.Equal(t, "ws", first.State.Session)
	assert.Equal(t, int64(100), first.State.State.Money)
	assert.Equal(t, "stand", first.State.NextOffer.ID)

	require.Equal(t, tycoon.RefusalNone, s.Purchase("stand"))
	ev := read(t, h.conn)
	require.Equal(t, "event", ev.Type)
	require.NotNil(t, ev.Event)
	assert.Equal(t, tycoon.EventPurchase, ev.Event.Type)
	assert.Equal(t, int64(60), ev.Event.Amount)
	assert.Equal(t, "s", ev.Event.StationID)
}

func TestHub_PeriodicState(t *testing.T) {
	s := newSession(t)
	h := start(t, s, 10*time.Millisecond)

	assert.Equal(t, "state", read(t, h.conn).Type)
	s.PassiveIncome()

	// a frame queued before the income landed may still carry the old balance
	for i := 0; i < 20; i++ {
		msg := read(t, h.conn)
		if msg.Type == "state" && msg.State.State.Money == 101 {
			return
		}
	}
	t.Fatal("no periodic state frame")
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	s := newSession(t)
	h := start(t, s, 0)
	read(t, h.conn)

	h.cancel()
	require.NoError(t, h.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := h.conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
	assert.Eventually(t, func() bool { return h.hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	s := newSession(t)
	h := start(t, s, 0)
	read(t, h.conn)

	require.NoError(t, h.conn.Close())
	assert.Eventually(t, func() bool { return h.hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}
