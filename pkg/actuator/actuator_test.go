package actuator_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/do0ori/chytonpide-embedded/pkg/actuator"
)

func TestRelaySetLED(t *testing.T) {
	var gotMethod, gotPath, gotLED string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		r.ParseForm()
		gotLED = r.PostForm.Get("is_led_on")
	}))
	defer srv.Close()

	relay, err := actuator.NewRelay(srv.URL, "ESP32-S3-001")
	if err != nil {
		t.Fatalf("NewRelay() error = %v", err)
	}

	if err := relay.SetLED(context.Background(), true); err != nil {
		t.Fatalf("SetLED() error = %v", err)
	}
	if gotMethod != "PATCH" || gotPath != "/devices/ESP32-S3-001" {
		t.Errorf("request = %s %s, want PATCH /devices/ESP32-S3-001", gotMethod, gotPath)
	}
	if gotLED != "true" {
		t.Errorf("is_led_on = %q, want true", gotLED)
	}
}

func TestRelaySetFace(t *testing.T) {
	var gotFace string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotFace = r.PostForm.Get("led_face")
	}))
	defer srv.Close()

	relay, err := actuator.NewRelay(srv.URL, "dev-1")
	if err != nil {
		t.Fatalf("NewRelay() error = %v", err)
	}

	if err := relay.SetFace(context.Background(), "HAPPY"); err != nil {
		t.Fatalf("SetFace() error = %v", err)
	}
	if gotFace != "HAPPY" {
		t.Errorf("led_face = %q, want HAPPY", gotFace)
	}
}

func TestRelayReads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/devices/dev-1/led":
			w.Write([]byte(`{"is_led_on":true}`))
		case "/devices/dev-1/lcd":
			w.Write([]byte(`{"face":"SAD"}`))
		case "/devices/dev-1/sensor":
			w.Write([]byte(`{"serial":"dev-1","temperature":24.5,"humidity":61.2,"illuminance":"300"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	relay, err := actuator.NewRelay(srv.URL, "dev-1")
	if err != nil {
		t.Fatalf("NewRelay() error = %v", err)
	}
	ctx := context.Background()

	on, err := relay.LEDState(ctx)
	if err != nil || !on {
		t.Errorf("LEDState() = %v, %v, want true", on, err)
	}

	face, err := relay.FaceState(ctx)
	if err != nil || face != "SAD" {
		t.Errorf("FaceState() = %q, %v, want SAD", face, err)
	}

	reading, err := relay.Sensor(ctx)
	if err != nil {
		t.Fatalf("Sensor() error = %v", err)
	}
	if reading.Temperature != 24.5 || reading.Humidity != 61.2 {
		t.Errorf("Sensor() = %+v", reading)
	}
}

func TestRelayReportSensor(t *testing.T) {
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sensor_data" || r.Method != "POST" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		r.ParseForm()
		gotForm = r.PostForm
	}))
	defer srv.Close()

	relay, err := actuator.NewRelay(srv.URL, "dev-1")
	if err != nil {
		t.Fatalf("NewRelay() error = %v", err)
	}

	err = relay.ReportSensor(context.Background(), actuator.SensorReading{
		Temperature: 25.5,
		Humidity:    60,
		Illuminance: "120",
	})
	if err != nil {
		t.Fatalf("ReportSensor() error = %v", err)
	}
	if gotForm["serial"][0] != "dev-1" {
		t.Errorf("serial = %v, want the relay's device serial", gotForm["serial"])
	}
	if gotForm["temperature"][0] != "25.50" {
		t.Errorf("temperature = %v", gotForm["temperature"])
	}
}

func TestRelayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	relay, err := actuator.NewRelay(srv.URL, "dev-1")
	if err != nil {
		t.Fatalf("NewRelay() error = %v", err)
	}
	if err := relay.SetLED(context.Background(), false); err == nil {
		t.Error("SetLED() = nil error on 500 response")
	}
}

func TestNewRelayRequiresSerial(t *testing.T) {
	if _, err := actuator.NewRelay("http://localhost:8000", ""); !errors.Is(err, actuator.ErrNoSerial) {
		t.Errorf("NewRelay() error = %v, want ErrNoSerial", err)
	}
}

func TestPoolRunsTasks(t *testing.T) {
	pool := actuator.NewPool(2, nil)

	var mu sync.Mutex
	ran := 0
	var wg sync.WaitGroup
	wg.Add(2)

	for i := 0; i < 2; i++ {
		err := pool.Go(context.Background(), "task", func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("Go() error = %v", err)
		}
	}
	wg.Wait()

	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
}

func TestPoolSaturation(t *testing.T) {
	pool := actuator.NewPool(1, nil)

	release := make(chan struct{})
	if err := pool.Go(context.Background(), "blocker", func(ctx context.Context) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Go() error = %v", err)
	}

	if err := pool.Go(context.Background(), "extra", func(ctx context.Context) error {
		return nil
	}); !errors.Is(err, actuator.ErrPoolSaturated) {
		t.Errorf("Go() error = %v, want ErrPoolSaturated", err)
	}

	close(release)
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestPoolShutdown(t *testing.T) {
	pool := actuator.NewPool(1, nil)

	if err := pool.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := pool.Go(context.Background(), "late", func(ctx context.Context) error {
		return nil
	}); !errors.Is(err, actuator.ErrPoolClosed) {
		t.Errorf("Go() after Shutdown error = %v, want ErrPoolClosed", err)
	}
}

func TestPoolShutdownTimeout(t *testing.T) {
	pool := actuator.NewPool(1, nil)

	release := make(chan struct{})
	defer close(release)
	pool.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
}

func TestIndicatorTogglesInOrder(t *testing.T) {
	calls := make(chan bool, 4)
	relay := &actuator.MockRelay{}
	relay.SetLEDFunc = func(ctx context.Context, on bool) error {
		calls <- on
		return nil
	}

	ind := actuator.NewIndicator(relay)
	defer ind.Close()

	ind.On()
	ind.Off()

	for _, want := range []bool{true, false} {
		select {
		case got := <-calls:
			if got != want {
				t.Fatalf("toggle = %v, want %v", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("indicator toggle never reached the relay")
		}
	}
}

func TestIndicatorSurvivesRelayFailure(t *testing.T) {
	calls := make(chan bool, 4)
	relay := &actuator.MockRelay{}
	relay.SetLEDFunc = func(ctx context.Context, on bool) error {
		calls <- on
		return errors.New("relay offline")
	}

	ind := actuator.NewIndicator(relay)
	defer ind.Close()

	ind.On()
	ind.Off()

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("indicator stopped after a relay failure")
		}
	}
}
