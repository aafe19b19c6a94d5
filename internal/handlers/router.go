package handlers

import (
	"errors"

	"roomledger/internal/app"
	"roomledger/internal/handlers/middleware"
	"roomledger/internal/logger"
	"roomledger/internal/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	api := router.Group("/api")
	HealthHandler(api, app.Config)
	NewContractHandler(*app, api).Register()
	NewBillingHandler(*app, api).Register()
	NewCheckoutHandler(*app, api).Register()
	NewAuditHandler(*app, api).Register()
	NewJobsHandler(*app, api).Register()

	return nil
}

// statusFromError maps domain failures onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusFromError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
