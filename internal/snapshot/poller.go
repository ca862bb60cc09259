package snapshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"time"
)

// DefaultInterval is the pause between two snapshot requests.
const DefaultInterval = 500 * time.Millisecond

// ErrDecode is returned when the snapshot bytes are not a supported image.
var ErrDecode = errors.New("Failed to decode image")

// Fetcher retrieves the latest raw snapshot of a camera.
type Fetcher interface {
	Snapshot(ctx context.Context, mac string) ([]byte, error)
}

// Frame is one decoded snapshot.
type Frame struct {
	MAC       string
	Image     image.Image
	Format    string
	Raw       []byte
	FetchedAt time.Time
}

// Decode decodes a JPEG or PNG snapshot.
func Decode(raw []byte) (image.Image, string, error) {
	if len(raw) == 0 {
		return nil, "", ErrDecode
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", ErrDecode
	}
	return img, format, nil
}

// JPEG returns the frame as JPEG bytes, re-encoding non-JPEG sources at the given quality.
func (f Frame) JPEG(quality int) ([]byte, error) {
	if f.Format == "jpeg" && len(f.Raw) > 0 {
		return f.Raw, nil
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Poller repeatedly fetches snapshots of a single camera.
type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration

	now func() time.Time
}

// NewPoller creates a poller; a non-positive interval falls back to DefaultInterval.
func NewPoller(fetcher Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{Fetcher: fetcher, Interval: interval, now: time.Now}
}

// Once fetches and decodes a single frame.
func (p *Poller) Once(ctx context.Context, mac string) (Frame, error) {
	raw, err := p.Fetcher.Snapshot(ctx, mac)
	if err != nil {
		return Frame{}, err
	}
	img, format, err := Decode(raw)
	if err != nil {
		return Frame{}, err
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	return Frame{MAC: mac, Image: img, Format: format, Raw: raw, FetchedAt: now()}, nil
}

// Run delivers frames to sink until ctx is done.
// A failed tick is logged and the next one is attempted after the usual interval.
func (p *Poller) Run(ctx context.Context, mac string, sink func(Frame)) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log.Printf("Starting snapshot polling for camera %s", mac)

	p.tick(ctx, mac, sink)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Snapshot polling for camera %s stopped", mac)
			return
		case <-timer.C:
			p.tick(ctx, mac, sink)
			timer.Reset(interval)
		}
	}
}

func (p *Poller) tick(ctx context.Context, mac string, sink func(Frame)) {
	frame, err := p.Once(ctx, mac)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Error loading snapshot for camera %s: %v", mac, err)
		}
		return
	}
	sink(frame)
}
