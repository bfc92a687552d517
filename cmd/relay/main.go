package main

import (
	"context"

	config "github.com/collabhq/voicerelay/pkg/config/relay"
	"github.com/collabhq/voicerelay/pkg/logger"
	"github.com/collabhq/voicerelay/pkg/os"
	"github.com/collabhq/voicerelay/pkg/relay"
)

var Version = "?"

func main() {
	conf := config.NewConfig()
	conf.ParseFlags()

	log := logger.NewConsole(conf.Relay.Debug, "rly", false)

	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	r := relay.New(conf, log)
	r.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		if err := r.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("service shutdown errors")
		}
	}()
	<-os.ExpectTermination()
	cancel()
}
