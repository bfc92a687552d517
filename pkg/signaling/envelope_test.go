package signaling

import (
	"testing"

	"github.com/collabhq/voicerelay/pkg/config/webrtc"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Envelope
	}{
		{name: "join", in: `{"type":"join","senderId":"A"}`, want: Envelope{Type: MsgJoin, SenderId: "A"}},
		{name: "offer keeps target", in: `{"type":"offer","senderId":"A","targetId":"B","sdp":"v=0"}`,
			want: Envelope{Type: MsgOffer, SenderId: "A", TargetId: "B"}},
		{name: "extra fields ignored", in: `{"type":"ice","senderId":"A","candidate":{"c":1}}`,
			want: Envelope{Type: MsgIce, SenderId: "A"}},
		{name: "missing type", in: `{"senderId":"A"}`, want: Envelope{SenderId: "A"}},
		{name: "garbage", in: `]`, want: Envelope{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecodeEnvelope([]byte(tc.in)); got != tc.want {
				t.Errorf("DecodeEnvelope(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestEncodeUserLeft(t *testing.T) {
	want := `{"type":"user_left","senderId":"B"}`
	if got := string(EncodeUserLeft("B")); got != want {
		t.Errorf("EncodeUserLeft = %s, want %s", got, want)
	}
}

func TestEncodeRoomInfo(t *testing.T) {
	if got := string(EncodeRoomInfo(2, nil)); got != `{"type":"room_info","peerCount":2}` {
		t.Errorf("EncodeRoomInfo = %s", got)
	}
	ice := []webrtc.IceServer{{Urls: "turn:t.example.org:3478", Username: "u", Credential: "p"}}
	want := `{"type":"room_info","peerCount":0,"iceServers":[{"urls":"turn:t.example.org:3478","username":"u","credential":"p"}]}`
	if got := string(EncodeRoomInfo(0, ice)); got != want {
		t.Errorf("EncodeRoomInfo = %s", got)
	}
}
