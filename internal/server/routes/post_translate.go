package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opencog/question2atomese/internal/server/middleware"
	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/question"
)

// TranslateHandler translates one question synchronously and stores the
// result.
func TranslateHandler(c echo.Context) error {
	type translateResponse struct {
		Message     string              `json:"message"`
		Translation *common.Translation `json:"translation,omitempty"`
	}

	data := new(question.Parsed)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, translateResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, translateResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	t, err := app.Translator.Translate(ctx, *data)
	if err != nil {
		if util.IsPermanent(err) {
			return c.JSON(http.StatusUnprocessableEntity, translateResponse{
				Message: err.Error(),
			})
		}
		logger.Error("[Server] Failed to translate question", "question_id", data.QuestionID, "err", err)
		return c.JSON(http.StatusInternalServerError, translateResponse{
			Message: "Internal server error",
		})
	}

	if err := app.Storage.SaveTranslations(ctx, []common.Translation{*t}); err != nil {
		logger.Error("[Server] Failed to save translation", "id", t.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, translateResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusCreated, translateResponse{
		Message:     "Question translated",
		Translation: t,
	})
}
