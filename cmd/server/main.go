package main

import (
	"github.com/opencog/question2atomese/internal/server"
	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	server.Init()
}
