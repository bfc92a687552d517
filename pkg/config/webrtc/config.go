package webrtc

import (
	"log"
	"strings"

	"github.com/collabhq/voicerelay/pkg/config"
)

// Webrtc holds the STUN/TURN list handed to clients on connect.
// The relay itself never opens a peer connection.
type Webrtc struct {
	IceServers []IceServer
}

type IceServer struct {
	Urls       string `json:"urls,omitempty"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// AddIceServersEnv merges ICE servers defined through environment
// variables over the file-configured list.
func (w *Webrtc) AddIceServersEnv() {
	cfg := Webrtc{IceServers: []IceServer{{}, {}, {}, {}, {}}}
	_ = config.LoadConfigEnv(&cfg)
	for i, ice := range cfg.IceServers {
		if ice.Urls == "" {
			continue
		}
		if strings.HasPrefix(ice.Urls, "turn:") || strings.HasPrefix(ice.Urls, "turns:") {
			if ice.Username == "" || ice.Credential == "" {
				log.Fatalf("TURN or TURNS servers should have both username and credential: %+v", ice)
			}
		}
		if i > len(w.IceServers)-1 {
			w.IceServers = append(w.IceServers, ice)
		} else {
			w.IceServers[i] = ice
		}
	}
}
