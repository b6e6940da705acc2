// Package featureflags wraps the Rollout SDK. Flags serve their defaults
// until Setup completes, so a missing API key degrades to static config
// instead of blocking startup.
package featureflags

import (
	"context"
	"fmt"
	"os"

	"github.com/rollout/rox-go/v5/server"
)

// Container holds every flag the service consults.
type Container struct {
	// Offline blocks all traffic except health checks when enabled.
	Offline server.RoxFlag
	// LogLevel drives the runtime log level.
	LogLevel server.RoxString
}

var flags = &Container{
	Offline:  server.NewRoxFlag(false),
	LogLevel: server.NewRoxString("info", []string{"debug", "info", "warn", "error"}),
}

var rox *server.Rox

// Init registers the flag container and connects to Rollout. apiKey falls
// back to ROLLOUT_API_KEY; with no key the flags keep their defaults and an
// error is returned for the caller to log.
func Init(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ROLLOUT_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no rollout api key configured, flags serve defaults")
	}

	rox = server.NewRox()
	rox.Register("catalog", flags)

	done := rox.Setup(apiKey, server.NewRoxOptions(server.RoxOptionsBuilder{}))
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("feature flags setup: %w", ctx.Err())
	}
}

// Values returns the flag container. Safe to call before Init.
func Values() *Container { return flags }

// Shutdown releases the SDK. No-op when Init never connected.
func Shutdown() {
	if rox != nil {
		rox.Shutdown()
		rox = nil
	}
}
