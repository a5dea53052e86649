package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	WSURL  string `envconfig:"CHAT_WS_URL"`
	APIURL string `envconfig:"CHAT_API_URL"`
	Token  string `envconfig:"CHAT_TOKEN"`
	RoomID int64  `envconfig:"E2E_ROOM_ID" default:"1"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
