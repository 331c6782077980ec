package canopy

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"go.uber.org/zap"
)

// AudioCues is a SoundPlayer backed by Ebitengine's audio package. Each cue
// maps to one decoded WAV clip; playing a cue starts a fresh player so
// overlapping cues mix instead of cutting each other off.
type AudioCues struct {
	mu     sync.Mutex
	ctx    *audio.Context
	clips  map[SoundCue][]byte
	volume float64
	logger *zap.Logger
}

// NewAudioCues creates a cue player on ctx. A nil logger discards output.
func NewAudioCues(ctx *audio.Context, logger *zap.Logger) *AudioCues {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioCues{
		ctx:    ctx,
		clips:  make(map[SoundCue][]byte),
		volume: 1,
		logger: logger,
	}
}

// LoadWAV decodes a WAV stream and binds it to cue, replacing any previous
// clip. The stream is resampled to the context's sample rate.
func (a *AudioCues) LoadWAV(cue SoundCue, r io.Reader) error {
	if a.ctx == nil {
		return fmt.Errorf("load cue %s: %w: nil audio context", cue, ErrInvalidArgument)
	}
	stream, err := wav.DecodeWithSampleRate(a.ctx.SampleRate(), r)
	if err != nil {
		return fmt.Errorf("load cue %s: %w", cue, err)
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("load cue %s: %w", cue, err)
	}
	a.SetClip(cue, pcm)
	return nil
}

// SetClip binds already decoded 16-bit stereo PCM at the context's sample
// rate to cue. A nil clip unbinds the cue.
func (a *AudioCues) SetClip(cue SoundCue, pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pcm == nil {
		delete(a.clips, cue)
		return
	}
	a.clips[cue] = pcm
}

// HasClip reports whether cue has a clip bound.
func (a *AudioCues) HasClip(cue SoundCue) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.clips[cue]
	return ok
}

// SetVolume sets the playback volume in [0, 1] for cues started afterwards.
func (a *AudioCues) SetVolume(v float64) {
	a.mu.Lock()
	a.volume = clamp01(v)
	a.mu.Unlock()
}

// PlayCue implements SoundPlayer. Unbound cues are silently ignored.
func (a *AudioCues) PlayCue(cue SoundCue) {
	a.mu.Lock()
	pcm, ok := a.clips[cue]
	vol := a.volume
	a.mu.Unlock()
	if !ok || a.ctx == nil {
		return
	}
	p, err := a.ctx.NewPlayer(bytes.NewReader(pcm))
	if err != nil {
		a.logger.Warn("cue playback failed", zap.Stringer("cue", cue), zap.Error(err))
		return
	}
	p.SetVolume(vol)
	p.Play()
}
