package audioio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes PCM16 samples to a WAV file in the capture format.
// Used to persist utterance buffers for debugging and for TTS temp files.
func WriteWAV(path string, samples []int16, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audioio: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, cfg.SampleRate, 16, cfg.Channels, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: cfg.Channels, SampleRate: cfg.SampleRate},
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audioio: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audioio: finalize %s: %w", path, err)
	}
	return nil
}
