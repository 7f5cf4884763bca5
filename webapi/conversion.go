package webapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/finvoq/fxcache/pkg/currency"
	"github.com/finvoq/fxcache/pkg/domain"
	"github.com/finvoq/fxcache/pkg/service/conversion"
	"github.com/finvoq/fxcache/pkg/settings"
)

var validate = validator.New()

// ConversionRoutes registers the produced interface of the subsystem:
// single and batch conversion, cache invalidation, and cache stats.
func ConversionRoutes(app *fiber.App, svc *conversion.Service, targets *settings.Memory) {
	group := app.Group("/api/conversions")

	group.Post("/", ConvertOne(svc))
	group.Post("/batch", ConvertBatch(svc))
	group.Delete("/cache", InvalidateCache(svc))
	group.Get("/cache/stats", CacheStats(svc))

	app.Put("/api/settings/currency", SetTargetCurrency(svc, targets))
}

// ConvertOne converts a single amount.
// @Summary Convert an amount
// @Description Convert an amount recorded in one currency at a past date into the reporting currency
// @Tags conversions
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 400 {object} ProblemDetails
// @Router /api/conversions [post]
func ConvertOne(svc *conversion.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ConvertRequest
		if err := c.BodyParser(&body); err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error())
		}

		req, err := body.toDomain()
		if err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid conversion request", err.Error())
		}

		result, err := svc.ConvertOne(c.Context(), req)
		if err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Conversion failed", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Conversion completed", result)
	}
}

// ConvertBatch converts a batch of amounts, preserving input order.
// @Summary Convert a batch of amounts
// @Tags conversions
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 400 {object} ProblemDetails
// @Router /api/conversions/batch [post]
func ConvertBatch(svc *conversion.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BatchConvertRequest
		if err := c.BodyParser(&body); err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error())
		}

		reqs := make([]domain.ConversionRequest, 0, len(body.Items))
		for _, item := range body.Items {
			req, err := item.toDomain()
			if err != nil {
				return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid conversion request", err.Error())
			}
			reqs = append(reqs, req)
		}

		results, err := svc.ConvertBatch(c.Context(), reqs)
		if err != nil {
			return ProblemDetailsJSON(c, fiber.StatusInternalServerError, "Batch conversion failed", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Batch conversion completed", results)
	}
}

// InvalidateCache clears the conversion cache.
// @Summary Invalidate the conversion cache
// @Tags conversions
// @Produce json
// @Success 200 {object} Response
// @Router /api/conversions/cache [delete]
func InvalidateCache(svc *conversion.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.InvalidateCache(c.Context()); err != nil {
			return ProblemDetailsJSON(c, fiber.StatusInternalServerError, "Failed to invalidate cache", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Conversion cache invalidated", nil)
	}
}

// CacheStats reports cache observability counters.
// @Summary Conversion cache statistics
// @Tags conversions
// @Produce json
// @Success 200 {object} Response
// @Router /api/conversions/cache/stats [get]
func CacheStats(svc *conversion.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "Cache statistics", svc.CacheStats())
	}
}

// SetTargetCurrency changes the reporting currency. New cache keys shadow
// the old entries; a hard reset clears them eagerly instead.
// @Summary Change the reporting currency
// @Tags settings
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 400 {object} ProblemDetails
// @Router /api/settings/currency [put]
func SetTargetCurrency(svc *conversion.Service, targets *settings.Memory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetCurrencyRequest
		if err := c.BodyParser(&body); err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error())
		}

		code, err := currency.Parse(body.Currency)
		if err != nil {
			return ProblemDetailsJSON(c, fiber.StatusBadRequest, "Invalid currency code", err.Error())
		}

		targets.Set(code)
		if body.HardReset {
			if err := svc.InvalidateCache(c.Context()); err != nil {
				return ProblemDetailsJSON(c, fiber.StatusInternalServerError, "Failed to reset cache", err.Error())
			}
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Reporting currency updated", fiber.Map{"currency": code})
	}
}
