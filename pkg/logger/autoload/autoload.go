// Package autoload configures the global logger from the environment
// as an import side effect:
//
//	import _ ".../pkg/logger/autoload"
package autoload

import (
	configx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/pkg/config"
	logx "github.com/tanpawarit/Discord-MCP-Conversational-Relay/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
