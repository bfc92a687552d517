package signaling

import (
	"net/http"
	"strings"

	"github.com/collabhq/voicerelay/pkg/config/webrtc"
	"github.com/collabhq/voicerelay/pkg/logger"
	ws "github.com/collabhq/voicerelay/pkg/network/websocket"
)

// VoicePathPrefix is where the voice signaling endpoint lives:
// GET /ws/projects/{projectID}/voice, one websocket per participant.
const VoicePathPrefix = "/ws/projects/"

const voicePathSuffix = "/voice"

// Hub accepts websocket upgrades and runs one session per connection.
// The registry and the relay are shared between all sessions; a
// session's goroutine is its own fault domain.
type Hub struct {
	registry *Registry
	relay    *Relay
	ice      []webrtc.IceServer
	wu       *ws.Upgrader
	log      *logger.Logger
}

// NewHub wires a registry with a relay. The origin param restricts
// cross-origin upgrades; browsers connect from the app's origin, so
// "*" mirrors the usual reverse-proxy setup.
func NewHub(conf webrtc.Webrtc, origin string, log *logger.Logger) *Hub {
	registry := NewRegistry()
	return &Hub{
		registry: registry,
		relay:    NewRelay(registry, log),
		ice:      conf.IceServers,
		wu:       ws.NewUpgrader(origin),
		log:      log,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// Terminate closes every registered connection. Each session notices
// its transport going down and runs the usual leave+notify cleanup.
func (h *Hub) Terminate() {
	h.registry.ForEachPeer(func(p Peer) {
		if c, ok := p.(Conn); ok {
			c.Close()
		}
	})
}

// HandleVoice is the websocket endpoint handler. It owns the
// connection's lifecycle end-to-end: register, pump, cleanup. Both
// graceful closes and transport errors end up on the same path, and
// the session guards its own cleanup against running twice.
func (h *Hub) HandleVoice(w http.ResponseWriter, r *http.Request) {
	room, ok := roomFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "unknown voice room path", http.StatusBadRequest)
		return
	}

	sock, err := h.wu.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("socket upgrade fail")
		return
	}
	conn := ws.NewServerWithConn(sock, h.log)

	session := NewSession(conn, room, h.registry, h.relay, h.ice, h.log)
	conn.OnMessage = session.Handle
	session.Start()
	defer session.Finish()
	<-conn.Listen()
}

// roomFromPath extracts the project id out of
// /ws/projects/{projectID}/voice. Project ids are decimal, anything
// else is rejected before the upgrade.
func roomFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, VoicePathPrefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, voicePathSuffix)
	if !ok || id == "" {
		return "", false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return id, true
}
