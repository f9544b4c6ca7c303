package broadcast

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 5 * time.Second
	// sendBufferFrames bounds the per-connection outbound queue. A full
	// buffer is the backpressure signal: the hub skips the client for the
	// current flush instead of queueing further.
	sendBufferFrames = 64
)

// clientWriter serializes all writes to one connection on its own goroutine.
// The gorilla connection allows a single writer at a time, so frames and
// pings both funnel through here.
type clientWriter struct {
	connection  *websocket.Conn
	sendChannel chan []byte
	pingChannel chan struct{}
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newClientWriter(connection *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		connection:  connection,
		sendChannel: make(chan []byte, sendBufferFrames),
		pingChannel: make(chan struct{}, 1),
		doneChannel: make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	defer cw.wg.Done()

	for {
		select {
		case msg := <-cw.sendChannel:
			cw.connection.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				// Closing unblocks the connection's read pump, which then
				// unregisters the client.
				cw.connection.Close()
				return
			}
		case <-cw.pingChannel:
			cw.connection.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				cw.connection.Close()
				return
			}
		case <-cw.doneChannel:
			return
		}
	}
}

// ping enqueues a liveness probe. A probe already pending is enough.
func (cw *clientWriter) ping() {
	select {
	case cw.pingChannel <- struct{}{}:
	default:
	}
}

func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneChannel)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}
