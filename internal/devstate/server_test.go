package devstate_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/do0ori/chytonpide-embedded/internal/devstate"
)

func newTestServer(t *testing.T) *devstate.Server {
	t.Helper()
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return devstate.NewServer(devstate.NewMemoryStore(),
		devstate.WithServerClock(func() time.Time { return fixed }))
}

func doForm(t *testing.T, srv *devstate.Server, method, path string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, srv, req)
}

func do(t *testing.T, srv *devstate.Server, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var decoded map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			t.Fatalf("decode %q: %v", body, err)
		}
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestPatchDevice(t *testing.T) {
	t.Run("led only", func(t *testing.T) {
		srv := newTestServer(t)
		resp, body := doForm(t, srv, http.MethodPatch, "/devices/chipi-01",
			url.Values{"is_led_on": {"true"}})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		updated, _ := body["updated"].([]any)
		if len(updated) != 1 || updated[0] != "is_led_on" {
			t.Fatalf("updated = %v", body["updated"])
		}

		_, led := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/chipi-01/led", nil))
		if led["is_led_on"] != true {
			t.Fatalf("led = %v", led)
		}
		if led["updated_at"] == nil {
			t.Fatal("updated_at not stamped")
		}
	})

	t.Run("face and led together", func(t *testing.T) {
		srv := newTestServer(t)
		_, body := doForm(t, srv, http.MethodPatch, "/devices/chipi-01",
			url.Values{"is_led_on": {"false"}, "led_face": {"HAPPY"}})
		updated, _ := body["updated"].([]any)
		if len(updated) != 2 {
			t.Fatalf("updated = %v", body["updated"])
		}

		_, lcd := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/chipi-01/lcd", nil))
		if lcd["face"] != "HAPPY" {
			t.Fatalf("lcd = %v", lcd)
		}
	})

	t.Run("lcd_face alias", func(t *testing.T) {
		srv := newTestServer(t)
		doForm(t, srv, http.MethodPatch, "/devices/chipi-01",
			url.Values{"lcd_face": {"SAD"}})

		_, lcd := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/chipi-01/lcd", nil))
		if lcd["face"] != "SAD" {
			t.Fatalf("lcd = %v", lcd)
		}
	})

	t.Run("invalid led value", func(t *testing.T) {
		srv := newTestServer(t)
		resp, _ := doForm(t, srv, http.MethodPatch, "/devices/chipi-01",
			url.Values{"is_led_on": {"maybe"}})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("no recognized fields", func(t *testing.T) {
		srv := newTestServer(t)
		resp, _ := doForm(t, srv, http.MethodPatch, "/devices/chipi-01",
			url.Values{"brightness": {"7"}})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestDefaults(t *testing.T) {
	srv := newTestServer(t)

	_, led := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/unknown/led", nil))
	if led["is_led_on"] != false || led["updated_at"] != nil {
		t.Fatalf("led defaults = %v", led)
	}

	_, lcd := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/unknown/lcd", nil))
	if lcd["face"] != "NEUTRAL" || lcd["updated_at"] != nil {
		t.Fatalf("lcd defaults = %v", lcd)
	}
}

func TestSensorData(t *testing.T) {
	t.Run("report then read back", func(t *testing.T) {
		srv := newTestServer(t)
		resp, body := doForm(t, srv, http.MethodPost, "/sensor_data", url.Values{
			"serial":      {"chipi-01"},
			"temperature": {"24.50"},
			"humidity":    {"61.20"},
			"illuminance": {"bright"},
		})
		if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
			t.Fatalf("status = %d body = %v", resp.StatusCode, body)
		}

		_, reading := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/chipi-01/sensor", nil))
		if reading["temperature"] != 24.5 || reading["humidity"] != 61.2 {
			t.Fatalf("reading = %v", reading)
		}
		if reading["illuminance"] != "bright" {
			t.Fatalf("illuminance = %v", reading["illuminance"])
		}
	})

	t.Run("malformed numbers coerce to zero", func(t *testing.T) {
		srv := newTestServer(t)
		resp, _ := doForm(t, srv, http.MethodPost, "/sensor_data", url.Values{
			"serial":      {"chipi-01"},
			"temperature": {"warm"},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		_, reading := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/chipi-01/sensor", nil))
		if reading["temperature"] != float64(0) {
			t.Fatalf("temperature = %v, want 0", reading["temperature"])
		}
	})

	t.Run("missing serial rejected", func(t *testing.T) {
		srv := newTestServer(t)
		resp, _ := doForm(t, srv, http.MethodPost, "/sensor_data", url.Values{
			"temperature": {"20"},
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("no data yet", func(t *testing.T) {
		srv := newTestServer(t)
		resp, _ := do(t, srv, httptest.NewRequest(http.MethodGet, "/devices/chipi-01/sensor", nil))
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})
}
