package middleware

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/opencog/question2atomese/internal/queue"
	"github.com/opencog/question2atomese/pkg/store"
	"github.com/opencog/question2atomese/pkg/translate"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// App holds the dependencies shared by all handlers. Queue is nil when no
// broker is configured and KeyFunc is nil when only the master API key is
// accepted.
type App struct {
	Storage      store.TranslationStorage
	Queue        queue.Publisher
	Translator   *translate.Client
	KeyFunc      jwt.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
