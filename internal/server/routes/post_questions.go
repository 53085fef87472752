package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opencog/question2atomese/internal/queue"
	"github.com/opencog/question2atomese/internal/server/middleware"
	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/question"
)

// EnqueueQuestionsHandler publishes questions to the translate queue. IDs
// are assigned here so callers can poll for the results.
func EnqueueQuestionsHandler(c echo.Context) error {
	type enqueueBody struct {
		Questions []question.Parsed `json:"questions" validate:"required,min=1,dive"`
	}

	type enqueueResponse struct {
		Message string   `json:"message"`
		IDs     []string `json:"ids,omitempty"`
	}

	data := new(enqueueBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, enqueueResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, enqueueResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, enqueueResponse{
			Message: "Queue not configured",
		})
	}
	ctx := c.Request().Context()

	ids := make([]string, 0, len(data.Questions))
	for _, p := range data.Questions {
		if p.ID == "" {
			id, err := util.NewID()
			if err != nil {
				return c.JSON(http.StatusInternalServerError, enqueueResponse{
					Message: "Internal server error",
				})
			}
			p.ID = id
		}
		if err := queue.PublishQuestion(ctx, app.Queue, p); err != nil {
			logger.Error("[Server] Failed to enqueue question", "question_id", p.QuestionID, "err", err)
			return c.JSON(http.StatusInternalServerError, enqueueResponse{
				Message: "Failed to enqueue questions",
				IDs:     ids,
			})
		}
		ids = append(ids, p.ID)
	}

	return c.JSON(http.StatusAccepted, enqueueResponse{
		Message: "Questions queued",
		IDs:     ids,
	})
}
