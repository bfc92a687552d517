package signaling

import (
	"sync"

	"github.com/collabhq/voicerelay/pkg/config/webrtc"
	"github.com/collabhq/voicerelay/pkg/logger"
)

// Conn is the transport surface a session owns end-to-end.
type Conn interface {
	Peer
	Close()
}

// Session drives one client connection through the signaling exchange.
// It is the only component that mutates the registry on behalf of its
// connection: join on accept, identity on the first join message,
// leave plus user_left fan-out on termination.
//
// States: accepted but anonymous -> joined with an identity -> closed.
// The relay stays a transparent pipe throughout: it never requires a
// join before forwarding offers and never pairs offers to answers.
type Session struct {
	conn     Conn
	room     string
	userId   string // set at most once, by the first join message
	ice      []webrtc.IceServer
	registry *Registry
	relay    *Relay
	log      *logger.Logger
	done     sync.Once
}

func NewSession(conn Conn, room string, registry *Registry, relay *Relay, ice []webrtc.IceServer, log *logger.Logger) *Session {
	return &Session{
		conn:     conn,
		room:     room,
		ice:      ice,
		registry: registry,
		relay:    relay,
		log: log.Extend(log.With().
			Str("room", room).
			Str("cid", conn.Id().Short())),
	}
}

// Start registers the connection into its room and greets it with the
// current peer count and the ICE server list. Existing peers learn
// about the newcomer only when its join message arrives.
func (s *Session) Start() {
	s.registry.Join(s.conn, s.room)
	connectsTotal.Inc()
	peers := s.registry.PeerCount(s.room, s.conn)
	s.log.Info().Int("peers", peers).Msg("Connect")
	if err := s.conn.Send(EncodeRoomInfo(peers, s.ice)); err != nil {
		s.log.Warn().Err(err).Msg("room_info was not delivered")
	}
}

// Handle processes one inbound message. Called sequentially from the
// connection's reader pump.
func (s *Session) Handle(data []byte) {
	env := DecodeEnvelope(data)
	messagesRelayed.WithLabelValues(metricType(env.Type)).Inc()

	switch env.Type {
	case MsgJoin:
		s.join(env, data)
		return
	case MsgOffer, MsgAnswer, MsgIce:
		// targetId is client-side routing info only; the relay
		// always fans out to the whole room
		s.log.Debug().
			Str("type", env.Type).
			Str("from", env.SenderId).
			Str("to", env.TargetId).
			Msg("Forward")
	default:
		s.log.Debug().Str("type", env.Type).Msg("Forward unknown message")
	}

	s.relay.BroadcastExcluding(s.room, data, s.conn)
}

func (s *Session) join(env Envelope, data []byte) {
	if s.userId == "" && env.SenderId != "" {
		s.userId = env.SenderId
		s.registry.RegisterIdentity(s.conn, s.room, env.SenderId)
	}
	peers := s.registry.PeerCount(s.room, s.conn)
	s.log.Info().Str("user", env.SenderId).Int("peers", peers).Msg("Join")
	// existing peers answer this announcement with an offer
	s.relay.BroadcastExcluding(s.room, data, s.conn)
}

// Finish tears the session down: leave the room and, when an identity
// was registered, tell the remaining peers. Runs exactly once no
// matter how many termination paths fire.
func (s *Session) Finish() {
	s.done.Do(func() {
		s.registry.Leave(s.conn, s.room)
		if s.userId != "" {
			s.relay.BroadcastAll(s.room, EncodeUserLeft(s.userId))
		}
		s.log.Info().Str("user", s.userId).Msg("Disconnect")
	})
}
