package internal

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config defines the client environment variables.
type Config struct {
	WSURL  string `env:"CHAT_WS_URL,required=true" validate:"url"`
	APIURL string `env:"CHAT_API_URL,required=true" validate:"url"`
	Token  string `env:"CHAT_TOKEN,required=true"`

	HistoryLimit         int           `env:"HISTORY_LIMIT,default=50" validate:"gt=0"`
	ReconnectBaseDelay   time.Duration `env:"RECONNECT_BASE_DELAY,default=1s"`
	ReconnectCapDelay    time.Duration `env:"RECONNECT_CAP_DELAY,default=5s"`
	MaxReconnectAttempts int           `env:"MAX_RECONNECT_ATTEMPTS,default=5" validate:"gt=0"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
}

// Validate applies the constraints go-env cannot express.
func (c Config) Validate() error {
	return validate.Struct(c)
}
