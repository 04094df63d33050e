// Package actuator drives the assistant's physical side effects: the device
// relay server (LED, LCD face, sensors) and the plant-shaking servo.
//
// Actuator failures must never break a conversation turn, so every client
// here reports errors to the caller and leaves the decision to ignore them
// to the dispatcher.
package actuator

import "context"

// DeviceRelay is the interface the dispatcher uses to reach the device
// state server.
type DeviceRelay interface {
	// SetLED turns the device LED on or off.
	SetLED(ctx context.Context, on bool) error

	// SetFace sets the LCD face emotion (e.g. "HAPPY", "SAD").
	SetFace(ctx context.Context, emotion string) error

	// LEDState reads the current LED state.
	LEDState(ctx context.Context) (bool, error)

	// FaceState reads the current LCD face emotion.
	FaceState(ctx context.Context) (string, error)

	// Sensor reads the latest environment sample for the device.
	Sensor(ctx context.Context) (*SensorReading, error)

	// ReportSensor pushes an environment sample to the server.
	ReportSensor(ctx context.Context, reading SensorReading) error
}

// SensorReading is one environment sample from the plant pot.
type SensorReading struct {
	Serial      string  `json:"serial"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Illuminance string  `json:"illuminance"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// Servo runs the physical plant-shaking motion.
type Servo interface {
	// Shake runs one shake cycle, blocking until it finishes or the
	// context expires.
	Shake(ctx context.Context) error
}
