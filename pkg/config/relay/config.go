package relay

import (
	goflag "flag"

	"github.com/collabhq/voicerelay/pkg/config"
	"github.com/collabhq/voicerelay/pkg/config/monitoring"
	"github.com/collabhq/voicerelay/pkg/config/shared"
	"github.com/collabhq/voicerelay/pkg/config/webrtc"
	flag "github.com/spf13/pflag"
)

type Config struct {
	Relay  Relay
	Webrtc webrtc.Webrtc
}

type Relay struct {
	Debug      bool
	Origin     string
	Monitoring monitoring.Config
	Server     shared.Server
}

// allows custom config path
var configPath string

func NewConfig() Config {
	conf := Config{}
	conf.Relay.Origin = "*"
	conf.Relay.Server.Address = ":8000"
	conf.Relay.Monitoring = monitoring.Config{
		Port:      6601,
		URLPrefix: "/relay",
	}
	if err := config.LoadConfig(&conf, configPath); err != nil {
		panic(err)
	}
	conf.Webrtc.AddIceServersEnv()
	return conf
}

func (c *Config) ParseFlags() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	c.Relay.Server.AddFlags(flag.CommandLine)
	flag.BoolVarP(&c.Relay.Debug, "verbose", "v", c.Relay.Debug, "Set debug log level")
	flag.IntVar(&c.Relay.Monitoring.Port, "monitoring.port", c.Relay.Monitoring.Port, "Monitoring server port")
	flag.StringVarP(&configPath, "conf", "c", configPath, "Set custom configuration file path")
	flag.Parse()
}
