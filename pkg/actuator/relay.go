package actuator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/do0ori/chytonpide-embedded/internal/httpc"
)

// ErrNoSerial is returned when a relay client is built without a device serial.
var ErrNoSerial = errors.New("actuator: device serial required")

// DefaultRelayTimeout bounds each relay request. The relay lives on the
// local network; anything slower than this is effectively down.
const DefaultRelayTimeout = 5 * time.Second

// Relay is an HTTP client for the device state server.
type Relay struct {
	baseURL string
	serial  string
	client  *http.Client
	logger  *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithRelayTimeout overrides the per-request timeout.
func WithRelayTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		r.client = httpc.NewClient(d)
	}
}

// WithRelayLogger sets the structured logger.
func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

// NewRelay creates a relay client for one device.
func NewRelay(baseURL, serial string, opts ...RelayOption) (*Relay, error) {
	if serial == "" {
		return nil, ErrNoSerial
	}
	r := &Relay{
		baseURL: strings.TrimRight(baseURL, "/"),
		serial:  serial,
		client:  httpc.NewClient(DefaultRelayTimeout),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "actuator.relay", "serial", serial)
	return r, nil
}

// SetLED turns the device LED on or off.
func (r *Relay) SetLED(ctx context.Context, on bool) error {
	form := url.Values{}
	form.Set("is_led_on", fmt.Sprintf("%t", on))
	return r.patchDevice(ctx, form)
}

// SetFace sets the LCD face emotion.
func (r *Relay) SetFace(ctx context.Context, emotion string) error {
	form := url.Values{}
	form.Set("led_face", emotion)
	return r.patchDevice(ctx, form)
}

// LEDState reads the current LED state.
func (r *Relay) LEDState(ctx context.Context) (bool, error) {
	var body struct {
		IsLEDOn bool `json:"is_led_on"`
	}
	if err := r.getJSON(ctx, r.devicePath("/led"), &body); err != nil {
		return false, err
	}
	return body.IsLEDOn, nil
}

// FaceState reads the current LCD face emotion.
func (r *Relay) FaceState(ctx context.Context) (string, error) {
	var body struct {
		Face string `json:"face"`
	}
	if err := r.getJSON(ctx, r.devicePath("/lcd"), &body); err != nil {
		return "", err
	}
	return body.Face, nil
}

// Sensor reads the latest environment sample for the device.
func (r *Relay) Sensor(ctx context.Context) (*SensorReading, error) {
	var reading SensorReading
	if err := r.getJSON(ctx, r.devicePath("/sensor"), &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// ReportSensor pushes an environment sample to the server, form-encoded
// the way the firmware does.
func (r *Relay) ReportSensor(ctx context.Context, reading SensorReading) error {
	form := url.Values{}
	serial := reading.Serial
	if serial == "" {
		serial = r.serial
	}
	form.Set("serial", serial)
	form.Set("temperature", fmt.Sprintf("%.2f", reading.Temperature))
	form.Set("humidity", fmt.Sprintf("%.2f", reading.Humidity))
	if reading.Illuminance != "" {
		form.Set("illuminance", reading.Illuminance)
	}
	return r.doForm(ctx, "POST", r.baseURL+"/sensor_data", form)
}

func (r *Relay) devicePath(suffix string) string {
	return r.baseURL + "/devices/" + url.PathEscape(r.serial) + suffix
}

func (r *Relay) patchDevice(ctx context.Context, form url.Values) error {
	return r.doForm(ctx, "PATCH", r.devicePath(""), form)
}

func (r *Relay) doForm(ctx context.Context, method, u string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, method, u, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("actuator: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("actuator: %s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("actuator: %s %s: status %d: %s", method, u, resp.StatusCode, body)
	}
	return nil
}

func (r *Relay) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("actuator: create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("actuator: GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("actuator: GET %s: status %d: %s", u, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("actuator: decode %s: %w", u, err)
	}
	return nil
}

var _ DeviceRelay = (*Relay)(nil)
