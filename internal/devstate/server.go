package devstate

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Server exposes device state over HTTP. Appliances report sensor data and
// poll their indicator state; operators flip LEDs and faces.
type Server struct {
	app    *fiber.App
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the structured logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithServerClock overrides the wall clock, for tests.
func WithServerClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// NewServer builds the HTTP server around a Store.
func NewServer(store Store, opts ...ServerOption) *Server {
	s := &Server{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "devstate.server")

	app := fiber.New(fiber.Config{
		AppName:               "chipi device state",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Get("/health", s.handleHealth)
	app.Patch("/devices/:serial", s.handlePatchDevice)
	app.Get("/devices/:serial/led", s.handleGetLED)
	app.Get("/devices/:serial/lcd", s.handleGetLCD)
	app.Get("/devices/:serial/sensor", s.handleGetSensor)
	app.Post("/sensor_data", s.handlePostSensor)

	s.app = app
	return s
}

// Listen blocks serving on addr (e.g. ":8000").
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown drains connections and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handlePatchDevice updates LED state, face, or both from form fields.
// Older firmware sends the face under lcd_face instead of led_face; both
// are accepted.
func (s *Server) handlePatchDevice(c *fiber.Ctx) error {
	serial := c.Params("serial")
	ctx := c.UserContext()
	now := s.now()

	updated := make([]string, 0, 2)

	if raw := c.FormValue("is_led_on"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "is_led_on must be true or false",
			})
		}
		if err := s.store.SetLED(ctx, serial, on, now); err != nil {
			return s.storeError(c, err)
		}
		updated = append(updated, "is_led_on")
	}

	face := c.FormValue("led_face")
	if face == "" {
		face = c.FormValue("lcd_face")
	}
	if face != "" {
		if err := s.store.SetFace(ctx, serial, face, now); err != nil {
			return s.storeError(c, err)
		}
		updated = append(updated, "led_face")
	}

	if len(updated) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no recognized fields; expected is_led_on or led_face",
		})
	}

	s.logger.Info("device updated", "serial", serial, "fields", updated)
	return c.JSON(fiber.Map{
		"serial":     serial,
		"updated":    updated,
		"updated_at": now,
	})
}

func (s *Server) handleGetLED(c *fiber.Ctx) error {
	d, err := s.store.Device(c.UserContext(), c.Params("serial"))
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"is_led_on":  d.LEDOn,
		"updated_at": nullableTime(d.LEDUpdatedAt),
	})
}

func (s *Server) handleGetLCD(c *fiber.Ctx) error {
	d, err := s.store.Device(c.UserContext(), c.Params("serial"))
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"face":       d.Face,
		"updated_at": nullableTime(d.FaceUpdatedAt),
	})
}

func (s *Server) handleGetSensor(c *fiber.Ctx) error {
	r, err := s.store.LastSensor(c.UserContext(), c.Params("serial"))
	if err != nil {
		return s.storeError(c, err)
	}
	if r == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no sensor data",
		})
	}
	return c.JSON(r)
}

// handlePostSensor ingests an environmental report. Malformed numbers are
// coerced to zero rather than rejected so a flaky sensor cannot wedge the
// device's report loop.
func (s *Server) handlePostSensor(c *fiber.Ctx) error {
	serial := c.FormValue("serial")
	if serial == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "serial is required",
		})
	}

	record := SensorRecord{
		Serial:      serial,
		Temperature: parseFloat(c.FormValue("temperature")),
		Humidity:    parseFloat(c.FormValue("humidity")),
		Illuminance: c.FormValue("illuminance"),
		ReceivedAt:  s.now(),
	}
	if err := s.store.PutSensor(c.UserContext(), record); err != nil {
		return s.storeError(c, err)
	}

	s.logger.Debug("sensor report",
		"serial", serial,
		"temperature", record.Temperature,
		"humidity", record.Humidity)
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) storeError(c *fiber.Ctx, err error) error {
	s.logger.Error("store failure", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "storage unavailable",
	})
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// nullableTime renders the zero time as JSON null.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
