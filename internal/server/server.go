package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opencog/question2atomese/internal/db"
	"github.com/opencog/question2atomese/internal/queue"
	mid "github.com/opencog/question2atomese/internal/server/middleware"
	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/atomese"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/translate"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance with middleware and routes for app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("32M"))

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &mid.App{
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.KeyFunc = k.Keyfunc
	} else if app.MasterAPIKey == "" {
		logger.Warn("Neither AUTH_URL nor MASTER_API_KEY set, API routes will reject all requests")
	}

	cfg, err := atomese.LoadConfig(util.GetEnv("RELEX_CONFIG"))
	if err != nil {
		logger.Fatal("Failed to load relex config", "err", err)
	}
	app.Translator, err = translate.NewClient(translate.NewClientParams{
		ParallelQuestions: util.GetEnvInt("TRANSLATE_PARALLEL", 4),
		MaxRetries:        util.GetEnvInt("TRANSLATE_RETRIES", 3),
		Config:            cfg,
	})
	if err != nil {
		logger.Fatal("Failed to create translator", "err", err)
	}

	kind := util.GetEnvString("STORE", db.KindPostgres)
	dsn := util.GetEnv("DATABASE_URL")
	if kind == db.KindSQLite {
		dsn = util.GetEnvString("SQLITE_PATH", "translations.db")
	}
	app.Storage, err = db.OpenStorage(ctx, kind, dsn)
	if err != nil {
		logger.Fatal("Failed to open storage", "store", kind, "err", err)
	}
	defer app.Storage.Close()

	if util.GetEnv("RABBITMQ_HOST") != "" {
		que, err := queue.Init()
		if err != nil {
			logger.Fatal("Failed to connect to queue", "err", err)
		}
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		retryDelay := util.GetEnvDuration("RABBITMQ_RETRY_DELAY", 30*time.Second)
		if err := queue.SetupQueues(ch, []string{queue.TranslateQueue}, int(retryDelay.Milliseconds())); err != nil {
			logger.Fatal("Failed to setup queues", "err", err)
		}
		app.Queue = ch
	} else {
		logger.Warn("RABBITMQ_HOST not set, enqueueing questions is disabled")
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
