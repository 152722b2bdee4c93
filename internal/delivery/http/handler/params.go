package handler

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"anzsco-lookup/internal/delivery/http/middleware"
	"anzsco-lookup/internal/pkg/response"
	"anzsco-lookup/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

const HeaderClientID = "X-Client-ID"

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.New(key + " must not be negative")
	}
	return v, nil
}

func parseQueryBool(c fiber.Ctx, key string, defaultVal bool) (bool, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(s)
}

func pathParam(c fiber.Ctx, key string) string {
	v := c.Params(key)
	if u, err := url.PathUnescape(v); err == nil {
		v = u
	}
	return strings.TrimSpace(v)
}

// clientID identifies the caller for search history. Clients without the
// header share history by IP.
func clientID(c fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get(HeaderClientID)); id != "" {
		return id
	}
	return c.IP()
}

func badRequest(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
}

func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Occupation not found", nil, err)
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid credentials", nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrRefreshInProgress):
		return middleware.NewAppError(fiber.StatusConflict, "Refresh already in progress", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
