// Package assets loads the session's read-only data directory: images for
// sprite records and audio clips for sound channels, both referenced by
// relative filename from update records. Images are cached and can be
// invalidated by the directory watcher so a running game sees repainted
// files.
package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"go.uber.org/zap"
)

const sampleRate = 44100

// The audio context must exist once per process before any player is built.
var audioContext = audio.NewContext(sampleRate)

// Library serves decoded assets from one data directory.
type Library struct {
	dir string
	log *zap.Logger

	mu      sync.Mutex
	images  map[string]*ebiten.Image
	watcher *Watcher
}

// NewLibrary returns a library rooted at dir.
func NewLibrary(dir string, log *zap.Logger) *Library {
	return &Library{
		dir:    dir,
		log:    log,
		images: map[string]*ebiten.Image{},
	}
}

// Watch starts invalidating cached images when their files change on disk.
// Best effort: a data dir that can't be watched only loses hot reload.
func (l *Library) Watch() error {
	w, err := NewWatcher(l.dir)
	if err != nil {
		return fmt.Errorf("watch data dir %s: %w", l.dir, err)
	}
	l.watcher = w
	go func() {
		for name := range w.Events {
			l.invalidate(name)
		}
	}()
	go func() {
		for err := range w.Errors {
			l.log.Warn("data dir watcher", zap.Error(err))
		}
	}()
	return nil
}

// Close stops the watcher if one is running.
func (l *Library) Close() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

// Image loads and caches the named image. The name comes straight from an
// untrusted update record, so it must resolve inside the data directory.
func (l *Library) Image(name string) (*ebiten.Image, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if img, ok := l.images[path]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load image %q: %w", name, err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", name, err)
	}
	img := ebiten.NewImageFromImage(decoded)

	l.mu.Lock()
	l.images[path] = img
	l.mu.Unlock()
	return img, nil
}

// NewChannelPlayer decodes the named clip into a player. loop wraps the clip
// in an infinite loop; pitch is a playback-rate multiplier applied by
// resampling, 1 leaves the clip alone.
func (l *Library) NewChannelPlayer(name string, loop bool, pitch float64) (*audio.Player, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load clip %q: %w", name, err)
	}

	stream, length, err := decodeClip(path, b)
	if err != nil {
		return nil, err
	}

	src, length := repitch(stream, length, pitch)
	if loop {
		player, err := audioContext.NewPlayer(audio.NewInfiniteLoop(src, length))
		if err != nil {
			return nil, fmt.Errorf("player for %q: %w", name, err)
		}
		return player, nil
	}
	player, err := audioContext.NewPlayer(src)
	if err != nil {
		return nil, fmt.Errorf("player for %q: %w", name, err)
	}
	return player, nil
}

func decodeClip(path string, b []byte) (io.ReadSeeker, int64, error) {
	r := bytes.NewReader(b)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, err := wav.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode wav %q: %w", path, err)
		}
		return s, s.Length(), nil
	case ".ogg":
		s, err := vorbis.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode ogg %q: %w", path, err)
		}
		return s, s.Length(), nil
	case ".mp3":
		s, err := mp3.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode mp3 %q: %w", path, err)
		}
		return s, s.Length(), nil
	default:
		return nil, 0, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
}

// repitch shifts playback rate by resampling: the stream is declared to be at
// rate*pitch and converted back to the context rate, so it plays pitch times
// faster. Length is rounded down to a whole 4-byte frame.
func repitch(src io.ReadSeeker, length int64, pitch float64) (io.ReadSeeker, int64) {
	if pitch <= 0 || pitch == 1 {
		return src, length
	}
	out := audio.Resample(src, length, int(float64(sampleRate)*pitch), sampleRate)
	newLen := int64(float64(length)/pitch) &^ 3
	return out, newLen
}

// resolve maps a record filename onto the data directory and rejects paths
// that would escape it.
func (l *Library) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty asset name")
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("asset name %q escapes the data directory", name)
	}
	return filepath.Join(l.dir, clean), nil
}

func (l *Library) invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.images[path]; ok {
		delete(l.images, path)
		l.log.Info("reloading changed image", zap.String("path", path))
	}
}
