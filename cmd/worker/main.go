package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opencog/question2atomese/internal/db"
	"github.com/opencog/question2atomese/internal/queue"
	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/atomese"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/logger/console"
	"github.com/opencog/question2atomese/pkg/translate"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	// translator
	cfg, err := atomese.LoadConfig(util.GetEnv("RELEX_CONFIG"))
	if err != nil {
		logger.Fatal("Failed to load relex config", "err", err)
	}
	client, err := translate.NewClient(translate.NewClientParams{
		ParallelQuestions: util.GetEnvInt("TRANSLATE_PARALLEL", 4),
		MaxRetries:        util.GetEnvInt("TRANSLATE_RETRIES", 3),
		Config:            cfg,
	})
	if err != nil {
		logger.Fatal("Failed to create translator", "err", err)
	}

	// storage
	kind := util.GetEnvString("STORE", db.KindPostgres)
	dsn := util.GetEnv("DATABASE_URL")
	if kind == db.KindSQLite {
		dsn = util.GetEnvString("SQLITE_PATH", "translations.db")
	}
	storage, err := db.OpenStorage(ctx, kind, dsn)
	if err != nil {
		logger.Fatal("Unable to open storage", "store", kind, "err", err)
	}
	defer storage.Close()

	// rabbitmq
	conn, err := queue.Init()
	if err != nil {
		logger.Fatal("Failed to connect to queue", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	retryDelay := util.GetEnvDuration("RABBITMQ_RETRY_DELAY", 30*time.Second)
	if err := queue.SetupQueues(ch, []string{queue.TranslateQueue}, int(retryDelay.Milliseconds())); err != nil {
		logger.Fatal("Failed to setup queues", "err", err)
	}

	if err := queue.Consume(ctx, ch, queue.TranslateQueue, queue.TranslateHandler(client, storage)); err != nil {
		logger.Fatal("Consumer stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
