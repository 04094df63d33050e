// Package devstate tracks per-device indicator state and sensor readings
// for the companion HTTP server. The appliance reports sensor data and
// reads back the LED and LCD face state it should display.
package devstate

import (
	"context"
	"sync"
	"time"
)

// DefaultFace is served for devices that never had a face set.
const DefaultFace = "NEUTRAL"

// DeviceState is the indicator state for one device.
type DeviceState struct {
	Serial        string    `json:"serial"`
	LEDOn         bool      `json:"is_led_on"`
	LEDUpdatedAt  time.Time `json:"led_updated_at"`
	Face          string    `json:"face"`
	FaceUpdatedAt time.Time `json:"face_updated_at"`
}

// SensorRecord is one environmental report from a device.
type SensorRecord struct {
	Serial      string    `json:"serial"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Illuminance string    `json:"illuminance,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Store persists device state. Unknown serials are not errors; reads of a
// device that was never written return zero-value defaults.
type Store interface {
	SetLED(ctx context.Context, serial string, on bool, at time.Time) error
	SetFace(ctx context.Context, serial, face string, at time.Time) error
	Device(ctx context.Context, serial string) (DeviceState, error)
	PutSensor(ctx context.Context, record SensorRecord) error
	LastSensor(ctx context.Context, serial string) (*SensorRecord, error)
	Close() error
}

// MemoryStore keeps everything in process memory. It is the default
// backing for single-node deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[string]DeviceState
	sensors map[string]SensorRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string]DeviceState),
		sensors: make(map[string]SensorRecord),
	}
}

func (s *MemoryStore) SetLED(_ context.Context, serial string, on bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.devices[serial]
	d.Serial = serial
	d.LEDOn = on
	d.LEDUpdatedAt = at
	s.devices[serial] = d
	return nil
}

func (s *MemoryStore) SetFace(_ context.Context, serial, face string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.devices[serial]
	d.Serial = serial
	d.Face = face
	d.FaceUpdatedAt = at
	s.devices[serial] = d
	return nil
}

func (s *MemoryStore) Device(_ context.Context, serial string) (DeviceState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[serial]
	if !ok {
		return DeviceState{Serial: serial, Face: DefaultFace}, nil
	}
	if d.Face == "" {
		d.Face = DefaultFace
	}
	return d, nil
}

func (s *MemoryStore) PutSensor(_ context.Context, record SensorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensors[record.Serial] = record
	return nil
}

func (s *MemoryStore) LastSensor(_ context.Context, serial string) (*SensorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sensors[serial]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
