package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/repository"
	"pos-service/pkg/logger"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

type listResponse struct {
	Data       interface{}           `json:"data"`
	Pagination repository.Pagination `json:"pagination"`
	Summary    interface{}           `json:"summary,omitempty"`
}

type dataResponse struct {
	Data interface{} `json:"data"`
}

type mutationResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondError logs err and writes it as {error, code}. Unclassified errors
// are logged with their cause and returned as an opaque SERVER_ERROR.
func respondError(c echo.Context, err error) error {
	appErr := classify(err)
	log := logger.FromContext(c)
	if appErr.Status >= http.StatusInternalServerError {
		log.Error("Request failed",
			zap.String("path", c.Path()),
			zap.String("code", appErr.Code),
			zap.Error(err))
	} else {
		log.Warn("Request rejected",
			zap.String("path", c.Path()),
			zap.String("code", appErr.Code),
			zap.String("reason", appErr.Message))
	}
	return c.JSON(appErr.Status, errorResponse{
		Error:  appErr.Message,
		Code:   appErr.Code,
		Fields: appErr.Fields,
	})
}

// HTTPErrorHandler renders errors returned by middleware and the router in
// the same shape as handler errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(classify(err).Status)
		return
	}
	_ = respondError(c, err)
}

func classify(err error) *apperror.Error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok && m != "" {
			message = m
		}
		code := apperror.CodeInvalidRequest
		switch {
		case httpErr.Code == http.StatusNotFound:
			code = apperror.CodeNotFound
		case httpErr.Code == http.StatusUnauthorized:
			code = apperror.CodeUnauthorized
		case httpErr.Code == http.StatusForbidden:
			code = apperror.CodeForbidden
		case httpErr.Code >= http.StatusInternalServerError:
			code = apperror.CodeServerError
		}
		return apperror.New(code, httpErr.Code, message)
	}
	return apperror.From(err)
}

func respondList(c echo.Context, data interface{}, page repository.Pagination) error {
	return c.JSON(http.StatusOK, listResponse{Data: data, Pagination: page})
}

func respondData(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, dataResponse{Data: data})
}

func respondMutation(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, mutationResponse{Message: message, Data: data})
}
