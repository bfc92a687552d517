package relay

import (
	"os"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	conf := NewConfig()
	if conf.Relay.Server.Address == "" {
		t.Errorf("no default server address")
	}
	if conf.Relay.Origin == "" {
		t.Errorf("no default websocket origin")
	}
}

func TestConfigEnvOverride(t *testing.T) {
	_ = os.Setenv("VOICE_RELAY_RELAY_DEBUG", "true")
	defer func() { _ = os.Unsetenv("VOICE_RELAY_RELAY_DEBUG") }()

	conf := NewConfig()
	if !conf.Relay.Debug {
		t.Errorf("env override was not applied: %+v", conf.Relay)
	}
}

func TestIceServersEnv(t *testing.T) {
	_ = os.Setenv("VOICE_RELAY_ICESERVERS_0_URLS", "stun:stun.example.org:3478")
	defer func() { _ = os.Unsetenv("VOICE_RELAY_ICESERVERS_0_URLS") }()

	conf := NewConfig()
	found := false
	for _, ice := range conf.Webrtc.IceServers {
		if ice.Urls == "stun:stun.example.org:3478" {
			found = true
		}
	}
	if !found {
		t.Errorf("env ICE server was not merged: %+v", conf.Webrtc.IceServers)
	}
}
