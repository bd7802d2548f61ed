package server

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
)

// writeTimeoutSlack is how long a response may take to flush after the
// handler deadline fires.
const writeTimeoutSlack = 5 * time.Second

type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// ConfigFor derives the listener timeouts from the per-request deadline so a
// slow PBKDF2 round never has its response cut by the server.
func ConfigFor(port string, requestTimeout time.Duration) ServerConfig {
	write := constants.ServerWriteTimeout
	if floor := requestTimeout + writeTimeoutSlack; floor > write {
		write = floor
	}

	return ServerConfig{
		Addr:              ":" + port,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		ReadTimeout:       constants.ServerReadTimeout,
		WriteTimeout:      write,
		IdleTimeout:       constants.ServerIdleTimeout,
	}
}

// NewServer routes net/http's own error output through log at WARNING.
func NewServer(cfg ServerConfig, handler http.Handler, log *logger.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          log.StdLogger(logger.WARNING),
	}
}
