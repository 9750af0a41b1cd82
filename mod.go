// Package stake is the root of the MissionStake ledger. It holds the global
// logger and the list of Prometheus collectors that components register.
package stake

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "LLVL"

const defaultLevel = zerolog.InfoLevel

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. By default, it only prints
// info level logs and above, which can be changed with the LLVL environment
// variable or SetLogLevel.
var Logger = zerolog.New(logout).Level(LevelOf(os.Getenv(EnvLogLevel))).
	With().Timestamp().Logger().
	With().Caller().Logger()

// PromCollectors exposes the Prometheus collectors created by the components.
// The proxy registers them when the metrics handler is mounted.
var PromCollectors []prometheus.Collector

// LevelOf returns the zerolog level matching the name, or the default level
// when the name is empty or unknown.
func LevelOf(name string) zerolog.Level {
	switch name {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}

// SetLogLevel updates the level of the global logger.
func SetLogLevel(name string) {
	Logger = Logger.Level(LevelOf(name))
}
