package server

import (
	"github.com/raysh454/alignscore/internal/app"
	"github.com/raysh454/alignscore/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address. Empty falls back to the
	// application's LISTEN_ADDR.
	ListenAddr string

	// App is the wired application. Required.
	App *app.Application

	Logger logging.Logger

	// MaxBodyBytes caps request bodies and websocket frames. Zero means 64 KiB.
	MaxBodyBytes int64
}
