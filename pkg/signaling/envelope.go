package signaling

import (
	"github.com/collabhq/voicerelay/pkg/config/webrtc"
	"github.com/goccy/go-json"
)

// Message types recognized by the relay. Anything else is forwarded
// opaquely to the rest of the room.
const (
	MsgJoin     = "join"
	MsgOffer    = "offer"
	MsgAnswer   = "answer"
	MsgIce      = "ice"
	MsgUserLeft = "user_left"
	MsgRoomInfo = "room_info"
)

// Envelope is a partial view of a signaling message: only the
// discriminator fields the relay branches on. The raw bytes are what
// gets forwarded to peers, so any extra fields survive verbatim.
type Envelope struct {
	Type     string `json:"type"`
	SenderId string `json:"senderId,omitempty"`
	TargetId string `json:"targetId,omitempty"`
}

// DecodeEnvelope peeks into a raw message. Malformed input yields the
// zero envelope, and the message is relayed as an unknown type.
func DecodeEnvelope(data []byte) (env Envelope) {
	_ = json.Unmarshal(data, &env)
	return
}

// EncodeUserLeft builds the server-generated departure notification.
func EncodeUserLeft(senderId string) []byte {
	data, _ := json.Marshal(Envelope{Type: MsgUserLeft, SenderId: senderId})
	return data
}

type roomInfo struct {
	Type       string             `json:"type"`
	PeerCount  int                `json:"peerCount"`
	IceServers []webrtc.IceServer `json:"iceServers,omitempty"`
}

// EncodeRoomInfo builds the greeting sent to a connection right after
// the accept: how many peers are already in the room and which ICE
// servers the client should use for its peer connections.
func EncodeRoomInfo(peers int, ice []webrtc.IceServer) []byte {
	data, _ := json.Marshal(roomInfo{Type: MsgRoomInfo, PeerCount: peers, IceServers: ice})
	return data
}
