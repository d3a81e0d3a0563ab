package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/internal/service"
)

// parseID reads a positive numeric path parameter
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.InvalidRequest("invalid "+name, name)
	}
	return uint(id), nil
}

// listQuery reads page, limit, search, scope, status and the date range
// from the query string, plus exact-match filters for the given columns.
// Filters on "_id" columns must be numeric.
func listQuery(c echo.Context, filters ...string) (repository.ListQuery, error) {
	q := repository.ListQuery{
		Search: c.QueryParam("search"),
		Scope:  model.ParseScope(c.QueryParam("scope")),
		Status: c.QueryParam("status"),
	}

	var err error
	if q.Page, err = intParam(c, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(c, "limit"); err != nil {
		return q, err
	}
	if q.DateFrom, err = dateParam(c, "date_from"); err != nil {
		return q, err
	}
	if q.DateTo, err = dateParam(c, "date_to"); err != nil {
		return q, err
	}

	for _, f := range filters {
		if v := c.QueryParam(f); v != "" {
			if strings.HasSuffix(f, "_id") {
				if _, err := strconv.ParseUint(v, 10, 64); err != nil {
					return q, apperror.InvalidRequest("invalid "+f, f)
				}
			}
			if q.Filters == nil {
				q.Filters = make(map[string]string)
			}
			q.Filters[f] = v
		}
	}
	return q, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.InvalidRequest("invalid "+name, name)
	}
	return n, nil
}

func dateParam(c echo.Context, name string) (*time.Time, error) {
	t, err := service.ParseDate(c.QueryParam(name))
	if err != nil {
		return nil, apperror.InvalidRequest("invalid "+name, name)
	}
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}

// bind decodes the request body into req and validates it
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperror.InvalidRequest("Invalid request data")
	}
	return c.Validate(req)
}
