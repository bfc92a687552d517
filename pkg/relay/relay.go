package relay

import (
	"context"
	"net/http"

	config "github.com/collabhq/voicerelay/pkg/config/relay"
	"github.com/collabhq/voicerelay/pkg/logger"
	"github.com/collabhq/voicerelay/pkg/monitoring"
	"github.com/collabhq/voicerelay/pkg/network/httpx"
	"github.com/collabhq/voicerelay/pkg/service"
	"github.com/collabhq/voicerelay/pkg/signaling"
)

// Relay is the signaling relay service: one HTTP(S) server carrying
// the voice websocket endpoint, plus an optional monitoring sidecar.
type Relay struct {
	conf     config.Config
	hub      *signaling.Hub
	log      *logger.Logger
	services service.Group
}

func New(conf config.Config, log *logger.Logger) *Relay {
	r := &Relay{conf: conf, log: log}

	hub := signaling.NewHub(conf.Webrtc, conf.Relay.Origin, log)
	signaling.ObserveRegistry(hub.Registry())
	r.hub = hub

	srv, err := httpx.NewServer(
		conf.Relay.Server.GetAddr(),
		func(*httpx.Server) httpx.Handler {
			h := http.NewServeMux()
			h.HandleFunc(signaling.VoicePathPrefix, hub.HandleVoice)
			return h
		},
		httpx.WithServerConfig(conf.Relay.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("http server init fail")
	}

	r.services.Add(srv)
	r.services.AddIf(conf.Relay.Monitoring.IsEnabled(),
		monitoring.New(conf.Relay.Monitoring, "relay", log))
	return r
}

func (r *Relay) Start() { r.services.Start() }

func (r *Relay) Shutdown(ctx context.Context) error {
	r.hub.Terminate()
	return r.services.Shutdown(ctx)
}
