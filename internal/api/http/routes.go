package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/coffee-machine/internal/coffee"
	"github.com/i474232898/coffee-machine/internal/common"
	"github.com/i474232898/coffee-machine/internal/weather"
)

// PreparedLayout is the timestamp format of the "prepared" response field.
const PreparedLayout = "2006-01-02T15:04:05-0700"

// ServiceName is reported by the health endpoint.
const ServiceName = "coffee-machine"

// Brewer is the part of coffee.Engine the routes need.
type Brewer interface {
	Brew(ctx context.Context, today time.Time) (coffee.BrewOutcome, error)
	Status(ctx context.Context) (coffee.MachineStatus, error)
}

type brewResponse struct {
	Message  string `json:"message"`
	Prepared string `json:"prepared"`
}

type statusResponse struct {
	RequestCount     int    `json:"requestCount"`
	LastRequestDate  string `json:"lastRequestDate,omitempty"`
	BrewsUntilRefill int    `json:"brewsUntilRefill"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// clock supplies "today" for every brew; time.Now when nil.
func RegisterRoutes(app *fiber.App, brewer Brewer, clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": ServiceName,
		})
	})

	brew := brewHandler(brewer, clock)
	app.Get("/brew-coffee", brew)

	v1 := app.Group("/api/v1")
	v1.Get("/brew-coffee", brew)

	v1.Get("/status", func(c *fiber.Ctx) error {
		st, err := brewer.Status(c.UserContext())
		if err != nil {
			log.WithError(err).Error("httpapi: status lookup failed")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read machine status")
		}

		resp := statusResponse{
			RequestCount:     st.RequestCount,
			BrewsUntilRefill: st.BrewsUntilRefill,
		}
		if !st.LastRequestDate.IsZero() {
			resp.LastRequestDate = common.FormatDate(st.LastRequestDate)
		}
		return c.JSON(resp)
	})
}

func brewHandler(brewer Brewer, clock func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome, err := brewer.Brew(c.UserContext(), clock())
		if err != nil {
			return brewError(c, err)
		}

		if outcome.OutOfCoffee {
			// Send(nil) keeps the body empty; SendStatus would write the status text.
			return c.Status(fiber.StatusServiceUnavailable).Send(nil)
		}

		return c.JSON(brewResponse{
			Message:  outcome.Message,
			Prepared: outcome.Prepared.Format(PreparedLayout),
		})
	}
}

func brewError(c *fiber.Ctx, err error) error {
	var refused *coffee.RefusedError
	switch {
	case errors.As(err, &refused):
		return fiber.NewError(refused.Status, refused.Message)
	case errors.Is(err, weather.ErrUpstreamFailure):
		log.WithError(err).Warn("httpapi: weather lookup failed")
		return fiber.NewError(fiber.StatusBadGateway, "weather service unavailable")
	default:
		log.WithFields(log.Fields{
			"path":  c.Path(),
			"error": err,
		}).Error("httpapi: brew failed")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to brew coffee")
	}
}

// ErrorHandler renders every handler error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
