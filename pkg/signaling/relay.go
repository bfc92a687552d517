package signaling

import "github.com/collabhq/voicerelay/pkg/logger"

// Relay fans one signaling message out to a room.
// It takes a membership snapshot first and iterates it lock-free, so a
// broken or slow recipient affects neither the registry nor the other
// recipients: per-peer send failures are logged and swallowed.
type Relay struct {
	registry *Registry
	log      *logger.Logger
}

func NewRelay(registry *Registry, log *logger.Logger) *Relay {
	return &Relay{registry: registry, log: log}
}

// BroadcastExcluding delivers data to every room member except one,
// normally the sender, which already knows what it sent.
func (r *Relay) BroadcastExcluding(roomId string, data []byte, except Peer) {
	r.fanout(roomId, data, except)
}

// BroadcastAll delivers data to every current room member. Used for
// the user_left notification, after the departed connection has
// already been removed from the room.
func (r *Relay) BroadcastAll(roomId string, data []byte) {
	r.fanout(roomId, data, nil)
}

func (r *Relay) fanout(roomId string, data []byte, except Peer) {
	for _, p := range r.registry.Snapshot(roomId, except) {
		if err := p.Send(data); err != nil {
			deliveryFails.Inc()
			r.log.Warn().Err(err).
				Str("room", roomId).
				Str("cid", p.Id().Short()).
				Msg("Dropped message for unreachable peer")
		}
	}
}
