// Package autoload initializes the global logger from LOG_* env vars when
// blank-imported.
package autoload

import (
	configx "github.com/euporia-ai/concierge/pkg/config"
	logx "github.com/euporia-ai/concierge/pkg/logger"
)

func init() {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*cfg)
}
