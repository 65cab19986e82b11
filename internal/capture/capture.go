// Package capture acquires the selfie and position of a check-in on the
// client side and submits them to the attendance API.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
)

// LocateTimeout bounds a single position lookup
const LocateTimeout = 5 * time.Second

const (
	maxSide     = 1280
	jpegQuality = 85
)

var (
	ErrCameraUnavailable   = errors.New("camera unavailable")
	ErrNoFrame             = errors.New("camera produced no frame")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrLocationTimeout     = errors.New("location lookup timed out")
)

// Track is one hardware source inside a stream
type Track interface {
	Stop()
}

// Stream is an open camera session. Every track must be stopped once the
// caller is done with it.
type Stream interface {
	Tracks() []Track
	Frame(ctx context.Context) (image.Image, error)
}

// Camera opens streams
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locator reports the device position
type Locator interface {
	Position(ctx context.Context) (Position, error)
}

// TakePhoto grabs one frame from cam and returns it as JPEG. The stream is
// released on every return path.
func TakePhoto(ctx context.Context, cam Camera) ([]byte, error) {
	stream, err := cam.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	defer stopTracks(stream)

	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, ErrNoFrame
	}

	b := frame.Bounds()
	if b.Dx() > maxSide || b.Dy() > maxSide {
		frame = imaging.Fit(frame, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func stopTracks(s Stream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

type located struct {
	pos Position
	err error
}

// Locate asks loc for the position and gives up after LocateTimeout, even
// when loc ignores its context.
func Locate(ctx context.Context, loc Locator) (Position, error) {
	return locate(ctx, loc, LocateTimeout)
}

func locate(ctx context.Context, loc Locator, timeout time.Duration) (Position, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan located, 1)
	go func() {
		pos, err := loc.Position(ctx)
		done <- located{pos, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return Position{}, ErrLocationTimeout
			}
			return Position{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, r.err)
		}
		if r.pos.Latitude < -90 || r.pos.Latitude > 90 || r.pos.Longitude < -180 || r.pos.Longitude > 180 {
			return Position{}, fmt.Errorf("%w: coordinates out of range", ErrLocationUnavailable)
		}
		return r.pos, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Position{}, ErrLocationTimeout
		}
		return Position{}, ctx.Err()
	}
}
