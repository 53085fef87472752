package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opencog/question2atomese/internal/server/middleware"
	"github.com/opencog/question2atomese/pkg/store"
)

func GetTranslationHandler(c echo.Context) error {
	type getTranslationParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getTranslationParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	storage := c.(*middleware.AppContext).App.Storage
	t, err := storage.GetTranslation(c.Request().Context(), params.ID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Translation not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, t)
}

func GetShapesHandler(c echo.Context) error {
	type getShapesParams struct {
		Limit int `query:"limit" validate:"min=0,max=10000"`
	}

	params := &getShapesParams{Limit: 20}
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	storage := c.(*middleware.AppContext).App.Storage
	shapes, err := storage.ShapeStatistics(c.Request().Context(), params.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, shapes)
}
