package websocket

import (
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/collabhq/voicerelay/pkg/logger"
	"github.com/collabhq/voicerelay/pkg/network"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 10 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
	sendQueueSize  = 64
)

var (
	ErrClosed    = errors.New("connection closed")
	ErrQueueFull = errors.New("send queue full")
)

// WS wraps one gorilla websocket connection with a reader pump and
// a writer pump. All writes go through a bounded queue drained by the
// writer goroutine, so the outbound stream of a single connection keeps
// the order in which Send was called and a stuck peer can't block the
// caller for longer than the write deadline.
type WS struct {
	id   network.Uid
	conn deadlinedConn
	send chan []byte
	log  *logger.Logger

	// OnMessage is called from the reader pump for every inbound
	// message. Set it before Listen.
	OnMessage MessageHandler

	pingPong bool
	dead     chan struct{}
	once     sync.Once
	Done     chan struct{}
}

type MessageHandler func(message []byte)

// NewServer upgrades an incoming HTTP request to a websocket connection.
func NewServer(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*WS, error) {
	conn, err := DefaultUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, true, log), nil
}

// NewServerWithConn wraps an already upgraded server-side connection.
func NewServerWithConn(conn *websocket.Conn, log *logger.Logger) *WS {
	return newSocket(conn, true, log)
}

func NewClient(address url.URL, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, false, log), nil
}

func newSocket(conn *websocket.Conn, pingPong bool, log *logger.Logger) *WS {
	id := network.NewUid()
	return &WS{
		id:       id,
		conn:     deadlinedConn{sock: conn, wt: writeWait},
		send:     make(chan []byte, sendQueueSize),
		log:      log.Extend(log.With().Str("cid", id.Short())),
		pingPong: pingPong,
		dead:     make(chan struct{}),
		Done:     make(chan struct{}),
	}
}

func (ws *WS) Id() network.Uid { return ws.id }

// Listen starts both pumps and returns the Done channel, which closes
// after the connection is fully torn down.
func (ws *WS) Listen() chan struct{} {
	go ws.writer()
	go ws.reader()
	return ws.Done
}

// Send queues one message for delivery. It never blocks on the peer:
// a full queue or an already closed connection surfaces as an error
// which the caller is expected to log and move on.
func (ws *WS) Send(data []byte) error {
	select {
	case <-ws.dead:
		return ErrClosed
	default:
	}
	select {
	case ws.send <- data:
		return nil
	case <-ws.dead:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

// Close initiates a graceful shutdown from our side.
// Safe to call multiple times and concurrently with the pumps.
func (ws *WS) Close() {
	_ = ws.conn.write(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.shut()
	_ = ws.conn.close()
}

func (ws *WS) shut() { ws.once.Do(func() { close(ws.dead) }) }

// reader pumps inbound messages into the OnMessage callback.
// It owns the teardown: when the read side ends, for whatever reason,
// the underlying socket gets closed and Done is closed after it.
func (ws *WS) reader() {
	defer func() {
		ws.shut()
		_ = ws.conn.close()
		close(ws.Done)
		ws.log.Debug().Msg("CLOSE READER")
	}()
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(maxMessageSize)
		if ws.pingPong {
			_ = conn.SetReadDeadline(time.Now().Add(pongTime))
			conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(pongTime)); return nil })
		}
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				ws.log.Error().Err(err).Msg("read fail")
			}
			return
		}
		if ws.OnMessage != nil {
			ws.OnMessage(message)
		}
	}
}

// writer pumps messages from the send queue into the websocket
// connection. Serializes all websocket writes.
func (ws *WS) writer() {
	var ticker *time.Ticker
	if ws.pingPong {
		ticker = time.NewTicker(pingTime)
	} else {
		ticker = time.NewTicker(pongTime)
		ticker.Stop()
	}
	defer func() {
		ticker.Stop()
		ws.log.Debug().Msg("CLOSE WRITER")
	}()
	for {
		select {
		case message := <-ws.send:
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				ws.shut()
				return
			}
		case <-ticker.C:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				ws.shut()
				return
			}
		case <-ws.dead:
			return
		}
	}
}
