package audioio_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/do0ori/chytonpide-embedded/pkg/audioio"
)

func TestConfigChunkFrames(t *testing.T) {
	cfg := audioio.DefaultConfig()
	if got := cfg.ChunkFrames(); got != 1600 {
		t.Errorf("expected 1600 frames per 100ms chunk at 16kHz, got %d", got)
	}

	cfg.ChunkDuration = 20 * time.Millisecond
	if got := cfg.ChunkFrames(); got != 320 {
		t.Errorf("expected 320 frames per 20ms chunk, got %d", got)
	}
}

func TestChunkBytes(t *testing.T) {
	c := audioio.Chunk{Samples: []int16{0x0102, -1}}
	b := c.Bytes()
	want := []byte{0x02, 0x01, 0xFF, 0xFF}
	if len(b) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(b))
	}
	for i := range want {
		if b[i] != want[i] {
			t.Errorf("byte %d: expected %#x, got %#x", i, want[i], b[i])
		}
	}
}

func TestMockSource(t *testing.T) {
	cfg := audioio.DefaultConfig()
	src := audioio.NewScriptedSource(cfg, []float64{0.5, 0.0})
	ctx := context.Background()

	t.Run("read before start returns EOF", func(t *testing.T) {
		if _, err := src.Read(ctx); !errors.Is(err, io.EOF) {
			t.Errorf("expected EOF, got %v", err)
		}
	})

	if err := src.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	t.Run("replays scripted chunks then EOF", func(t *testing.T) {
		loud, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(loud.Samples) != cfg.ChunkFrames() {
			t.Errorf("expected full chunk, got %d samples", len(loud.Samples))
		}
		if loud.Samples[0] == 0 {
			t.Error("expected non-silent first chunk")
		}

		quiet, err := src.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if quiet.Samples[0] != 0 {
			t.Error("expected silent second chunk")
		}

		if _, err := src.Read(ctx); !errors.Is(err, io.EOF) {
			t.Errorf("expected EOF after chunks exhausted, got %v", err)
		}
	})

	t.Run("closed source refuses start", func(t *testing.T) {
		src.Close()
		if err := src.Start(ctx); !errors.Is(err, audioio.ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}
