package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opencog/question2atomese/internal/server/middleware"
)

func DeleteTranslationHandler(c echo.Context) error {
	type deleteTranslationParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deleteTranslationParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	storage := c.(*middleware.AppContext).App.Storage
	if err := storage.DeleteTranslations(c.Request().Context(), []string{params.ID}); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.NoContent(http.StatusNoContent)
}
