// Package logging constructs the zap.Logger every long-running process
// uses. It is the only place that chooses between the development and
// production encoders; everything else just takes a *zap.Logger.
package logging

import "go.uber.org/zap"

// Env selects which zap preset New builds.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// New builds a logger for env. Production uses zap's JSON encoder at info
// level; development uses the human-readable console encoder at debug
// level. An unrecognized env falls back to production, since that's the
// safer default for a daemon started without a config file.
func New(env Env) (*zap.Logger, error) {
	if env == EnvDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
