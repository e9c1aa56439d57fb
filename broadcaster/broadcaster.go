// Package broadcaster pushes schedule updates to connected websocket clients.
package broadcaster

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"devfestsched/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Broadcaster manages connected websocket clients and broadcasts messages.
type Broadcaster struct {
	clients map[*websocket.Conn]*sync.Mutex
	sync.RWMutex
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewBroadcaster(log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			// schedules are public; any page may subscribe
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleConnections upgrades the request, registers the client, sends it
// the messages returned by snapshot and keeps it registered until it
// disconnects. Broadcasts issued while the snapshot is being sent are
// delivered after it, so the client never misses an update.
func (b *Broadcaster) HandleConnections(w http.ResponseWriter, r *http.Request, snapshot func() [][]byte) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("failed to upgrade HTTP to websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	writeMu := &sync.Mutex{}
	writeMu.Lock()
	b.Lock()
	b.clients[conn] = writeMu
	total := len(b.clients)
	b.Unlock()
	b.log.Info("client connected", zap.Stringer("client", conn.RemoteAddr()), zap.Int("clients", total))

	defer func() {
		b.Lock()
		delete(b.clients, conn)
		total := len(b.clients)
		b.Unlock()
		b.log.Info("client removed", zap.Stringer("client", conn.RemoteAddr()), zap.Int("clients", total))
	}()

	var initial [][]byte
	if snapshot != nil {
		initial = snapshot()
	}
	for _, msg := range initial {
		if err = writeLocked(conn, msg); err != nil {
			break
		}
	}
	writeMu.Unlock()
	if err != nil {
		b.log.Warn("error sending initial schedule", zap.Stringer("client", conn.RemoteAddr()), zap.Error(err))
		return
	}

	// Clients never send anything; ReadMessage returns once they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast writes message to every connected client.
func (b *Broadcaster) Broadcast(message []byte) {
	b.RLock()
	defer b.RUnlock()

	for client, mu := range b.clients {
		if err := write(client, mu, message); err != nil {
			b.log.Warn("error sending to client", zap.Stringer("client", client.RemoteAddr()), zap.Error(err))
			// unblocks the reader in HandleConnections, which unregisters it
			client.Close()
		}
	}
}

// Publish broadcasts u as JSON.
func (b *Broadcaster) Publish(u model.Update) {
	msg, err := Encode(u)
	if err != nil {
		b.log.Error("encoding update failed", zap.String("event", u.Event), zap.Error(err))
		return
	}
	b.Broadcast(msg)
}

// Count returns the number of connected clients.
func (b *Broadcaster) Count() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.clients)
}

// Encode renders an update the way it is sent on the wire.
func Encode(u model.Update) ([]byte, error) {
	if u.Schedule == nil {
		u.Schedule = model.Empty()
	}
	return json.Marshal(u)
}

func write(conn *websocket.Conn, mu *sync.Mutex, msg []byte) error {
	mu.Lock()
	defer mu.Unlock()
	return writeLocked(conn, msg)
}

func writeLocked(conn *websocket.Conn, msg []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, msg)
}
