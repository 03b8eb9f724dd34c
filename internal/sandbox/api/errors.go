package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"tourdesk/internal/sandbox/services"
	"tourdesk/internal/validation"
)

// Custom HTTP error handler. Validation failures answer 422 with per-field
// messages; everything else carries {error, message, code, time}.
func customHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		if err := c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": ve.Message,
			"errors":  formatValidationErrors(ve),
		}); err != nil {
			c.Logger().Error(err)
		}
		return
	}

	code, message := classify(err)
	if code >= http.StatusInternalServerError {
		log.Warn("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]interface{}{
			"error":   message,
			"message": message,
			"code":    code,
			"time":    time.Now().Format(time.RFC3339),
		})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if he.Internal != nil && he.Message == nil {
			return he.Code, he.Internal.Error()
		}
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Record not found"
	case errors.Is(err, services.ErrUnknownColumn), errors.Is(err, services.ErrUnknownRelation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrCampaignNotSendable):
		return http.StatusConflict, "Only draft or scheduled campaigns can be sent"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "A record with these values already exists"
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// formatValidationErrors groups messages per field the way the console reads them
func formatValidationErrors(ve *validation.ValidationError) map[string][]string {
	out := make(map[string][]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}
