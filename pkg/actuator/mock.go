package actuator

import (
	"context"
	"sync"
)

// MockRelay is a test double for DeviceRelay. It records state changes and
// serves reads from its fields.
type MockRelay struct {
	mu sync.Mutex

	SetLEDFunc  func(ctx context.Context, on bool) error
	SetFaceFunc func(ctx context.Context, emotion string) error
	SensorFunc  func(ctx context.Context) (*SensorReading, error)

	LED     bool
	Face    string
	Reading *SensorReading

	// LEDCalls and FaceCalls record every state change in order.
	LEDCalls  []bool
	FaceCalls []string
	Reports   []SensorReading
}

func (m *MockRelay) SetLED(ctx context.Context, on bool) error {
	m.mu.Lock()
	m.LED = on
	m.LEDCalls = append(m.LEDCalls, on)
	m.mu.Unlock()
	if m.SetLEDFunc != nil {
		return m.SetLEDFunc(ctx, on)
	}
	return nil
}

func (m *MockRelay) SetFace(ctx context.Context, emotion string) error {
	m.mu.Lock()
	m.Face = emotion
	m.FaceCalls = append(m.FaceCalls, emotion)
	m.mu.Unlock()
	if m.SetFaceFunc != nil {
		return m.SetFaceFunc(ctx, emotion)
	}
	return nil
}

func (m *MockRelay) LEDState(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LED, nil
}

func (m *MockRelay) FaceState(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Face, nil
}

func (m *MockRelay) Sensor(ctx context.Context) (*SensorReading, error) {
	if m.SensorFunc != nil {
		return m.SensorFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reading, nil
}

func (m *MockRelay) ReportSensor(ctx context.Context, reading SensorReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, reading)
	return nil
}

// Faces returns a copy of the recorded face changes.
func (m *MockRelay) Faces() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.FaceCalls))
	copy(out, m.FaceCalls)
	return out
}

var _ DeviceRelay = (*MockRelay)(nil)

// MockServo is a test double for Servo.
type MockServo struct {
	mu sync.Mutex

	ShakeFunc func(ctx context.Context) error

	// Shakes counts Shake invocations.
	Shakes int
}

func (m *MockServo) Shake(ctx context.Context) error {
	m.mu.Lock()
	m.Shakes++
	m.mu.Unlock()
	if m.ShakeFunc != nil {
		return m.ShakeFunc(ctx)
	}
	return nil
}

// ShakeCount returns the number of Shake invocations.
func (m *MockServo) ShakeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Shakes
}

var _ Servo = (*MockServo)(nil)
