package devstate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	deviceKeyPrefix = "device:"
	sensorKeyPrefix = "sensor:"

	// Sensor readings go stale; device state does not expire.
	sensorTTL = 24 * time.Hour
)

// RedisStore persists device state in Redis so several server instances
// can share it.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) deviceKey(serial string) string { return deviceKeyPrefix + serial }
func (s *RedisStore) sensorKey(serial string) string { return sensorKeyPrefix + serial }

func (s *RedisStore) load(ctx context.Context, serial string) (DeviceState, error) {
	val, err := s.client.Get(ctx, s.deviceKey(serial)).Result()
	if err == redis.Nil {
		return DeviceState{Serial: serial}, nil
	}
	if err != nil {
		return DeviceState{}, err
	}
	var d DeviceState
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		return DeviceState{}, err
	}
	return d, nil
}

func (s *RedisStore) save(ctx context.Context, d DeviceState) error {
	val, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.deviceKey(d.Serial), val, 0).Err()
}

func (s *RedisStore) SetLED(ctx context.Context, serial string, on bool, at time.Time) error {
	d, err := s.load(ctx, serial)
	if err != nil {
		return err
	}
	d.Serial = serial
	d.LEDOn = on
	d.LEDUpdatedAt = at
	return s.save(ctx, d)
}

func (s *RedisStore) SetFace(ctx context.Context, serial, face string, at time.Time) error {
	d, err := s.load(ctx, serial)
	if err != nil {
		return err
	}
	d.Serial = serial
	d.Face = face
	d.FaceUpdatedAt = at
	return s.save(ctx, d)
}

func (s *RedisStore) Device(ctx context.Context, serial string) (DeviceState, error) {
	d, err := s.load(ctx, serial)
	if err != nil {
		return DeviceState{}, err
	}
	if d.Face == "" {
		d.Face = DefaultFace
	}
	return d, nil
}

func (s *RedisStore) PutSensor(ctx context.Context, record SensorRecord) error {
	val, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.sensorKey(record.Serial), val, sensorTTL).Err()
}

func (s *RedisStore) LastSensor(ctx context.Context, serial string) (*SensorRecord, error) {
	val, err := s.client.Get(ctx, s.sensorKey(serial)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r SensorRecord
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
