package handlers

import (
	"errors"
	"net/http"

	"mindpulse-be/internal/apperrors"
	"mindpulse-be/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps the service error taxonomy onto HTTP statuses. Unknown
// errors are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *apperrors.ValidationError
		channelErr    *apperrors.InvalidChannelError
		userErr       *apperrors.InvalidUserError
		authErr       *apperrors.AuthorizationError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: validationErr.Error()})
	case errors.As(err, &channelErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: channelErr.Error()})
	case errors.As(err, &userErr):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: userErr.Error()})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: authErr.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}
