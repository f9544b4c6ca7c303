package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/kemkem23/raceboard/internal/domain"
	"github.com/kemkem23/raceboard/internal/metrics"
)

const (
	// flushInterval sits below human-perceptible update latency while
	// bounding the outbound message rate under bursts.
	flushInterval     = 150 * time.Millisecond
	heartbeatInterval = 30 * time.Second
	commandTimeout    = 5 * time.Second
	stopTimeout       = 10 * time.Second
	maxMessageSize    = 64 * 1024
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	eventType string
	data      any
}

type pongCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// client is the per-connection state owned by the actor goroutine.
// alive flips false when a probe is sent and back to true on the pong;
// a connection still stale at the next probe tick is reaped.
type client struct {
	writer *clientWriter
	alive  bool
}

// Hub coalesces domain events and fans the resulting frames out to all live
// viewer connections.
type Hub struct {
	cmdCh   chan hubCmd
	clock   clockwork.Clock
	clients map[*websocket.Conn]*client
	pending map[string]any
	order   []string
	done    chan struct{}
}

// NewHub creates a hub and starts its actor goroutine.
func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clock:   clock,
		clients: make(map[*websocket.Conn]*client),
		pending: make(map[string]any),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

// Broadcast queues a payload for the next flush. A newer payload of the same
// event type replaces the pending one; nothing queues beyond one slot per
// type. Never blocks: under extreme overload the call is dropped and the
// next mutation's broadcast carries the fresher state anyway.
func (h *Hub) Broadcast(eventType string, data any) {
	select {
	case h.cmdCh <- broadcastCmd{eventType: eventType, data: data}:
	default:
		metrics.DroppedBroadcasts.Inc()
		slog.Warn("Dropping broadcast, hub command channel full", "type", eventType)
	}
}

// Publish forwards a list of store events in order.
func (h *Hub) Publish(events []domain.Event) {
	for _, ev := range events {
		h.Broadcast(ev.Type, ev.Data)
	}
}

// Register adds a connection to the live set, marked alive.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection from the live set. Safe to call
// redundantly; close, error, and heartbeat reaping all converge here.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{connection: conn}
}

// ClientCount returns the number of live connections, or -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub. Payloads still pending are dropped; this is a
// live feed, not a durable log.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	flushTicker := h.clock.NewTicker(flushInterval)
	defer flushTicker.Stop()
	heartbeatTicker := h.clock.NewTicker(heartbeatInterval)
	defer heartbeatTicker.Stop()
	defer close(h.done)

	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.removeClient(c.connection)
			case broadcastCmd:
				h.handleBroadcast(c)
			case pongCmd:
				if cl, ok := h.clients[c.connection]; ok {
					cl.alive = true
				}
			case clientCountCmd:
				c.replyChannel <- len(h.clients)
			case stopCmd:
				h.handleStop()
				return
			}
		case <-flushTicker.Chan():
			h.handleFlush()
		case <-heartbeatTicker.Chan():
			h.handleHeartbeat()
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	conn := c.connection
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		// Runs on the connection's read pump; hand off to the actor.
		select {
		case h.cmdCh <- pongCmd{connection: conn}:
		default:
		}
		return nil
	})

	h.clients[conn] = &client{writer: newClientWriter(conn), alive: true}
	metrics.ConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Client registered", "remote_addr", conn.RemoteAddr().String(), "total_clients", len(h.clients))
	c.errorChannel <- nil
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	cl, ok := h.clients[conn]
	if !ok {
		return
	}
	cl.writer.stop()
	delete(h.clients, conn)
	metrics.ConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("Client unregistered", "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	if _, exists := h.pending[c.eventType]; exists {
		metrics.BroadcastsCoalesced.WithLabelValues(c.eventType).Inc()
	} else {
		h.order = append(h.order, c.eventType)
	}
	h.pending[c.eventType] = c.data
	metrics.BroadcastsQueued.WithLabelValues(c.eventType).Inc()
}

// handleFlush drains the pending map and delivers one frame per event type,
// in emission order, to every connection whose writer has room. The drain is
// atomic with respect to Broadcast: later calls land in a fresh batch.
func (h *Hub) handleFlush() {
	if len(h.pending) == 0 {
		return
	}
	start := h.clock.Now()

	frames := make([][]byte, 0, len(h.order))
	for _, eventType := range h.order {
		buf, err := json.Marshal(domain.Message{Type: eventType, Data: h.pending[eventType]})
		if err != nil {
			slog.Error("Failed to marshal broadcast frame", "type", eventType, "error", err)
			continue
		}
		frames = append(frames, buf)
	}
	h.pending = make(map[string]any)
	h.order = h.order[:0]

	for _, cl := range h.clients {
		for _, frame := range frames {
			select {
			case cl.writer.sendChannel <- frame:
				metrics.FramesSent.Inc()
			default:
				// Backpressured consumer: skip it for this cycle, no retry,
				// no per-connection queue beyond the writer buffer.
				metrics.SlowClientSkips.Inc()
			}
		}
	}

	metrics.FlushDuration.Observe(h.clock.Since(start).Seconds())
}

// handleHeartbeat runs one round of the mark-stale, probe, reap-if-still-
// stale state machine over all connections.
func (h *Hub) handleHeartbeat() {
	for conn, cl := range h.clients {
		if !cl.alive {
			metrics.HeartbeatReaps.Inc()
			slog.Info("Reaping unresponsive client", "remote_addr", conn.RemoteAddr().String())
			h.removeClient(conn)
			continue
		}
		cl.alive = false
		cl.writer.ping()
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "clients", len(h.clients), "pending_events", len(h.pending))
	for conn := range h.clients {
		h.removeClient(conn)
	}
	h.pending = make(map[string]any)
	h.order = nil
}
