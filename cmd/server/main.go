package main

import (
	"github.com/ntria/backend/internal/server"
	"github.com/ntria/backend/internal/util"
	"github.com/ntria/backend/pkg/logger"
	"github.com/ntria/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
