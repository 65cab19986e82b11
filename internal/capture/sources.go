package capture

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// FileCamera serves a still image from disk as a one-frame stream
type FileCamera struct {
	Path string
}

func (c FileCamera) Open(_ context.Context) (Stream, error) {
	img, err := imaging.Open(c.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.Path, err)
	}
	return &stillStream{img: img}, nil
}

type stillStream struct {
	mu      sync.Mutex
	img     image.Image
	stopped bool
}

func (s *stillStream) Tracks() []Track {
	return []Track{s}
}

func (s *stillStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.img = nil
}

func (s *stillStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, fmt.Errorf("stream stopped")
	}
	return s.img, nil
}

// FixedLocator reports a position given up front, such as from flags
type FixedLocator Position

func (l FixedLocator) Position(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position(l), nil
}
