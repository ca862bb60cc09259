package snapshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFetcher is a mock implementation of the Fetcher interface.
type mockFetcher struct {
	mu           sync.Mutex
	calls        int
	SnapshotFunc func(call int) ([]byte, error)
}

func (m *mockFetcher) Snapshot(ctx context.Context, mac string) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.SnapshotFunc(call)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, format, err := Decode(testPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, format, err = Decode(testJPEG(t))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, _, err = Decode([]byte("not an image"))
	assert.ErrorIs(t, err, ErrDecode)
	assert.EqualError(t, err, "Failed to decode image")

	_, _, err = Decode(nil)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestFrame_JPEG(t *testing.T) {
	raw := testJPEG(t)
	img, format, err := Decode(raw)
	require.NoError(t, err)
	out, err := Frame{Image: img, Format: format, Raw: raw}.JPEG(80)
	require.NoError(t, err)
	assert.Equal(t, raw, out, "jpeg frames are passed through")

	raw = testPNG(t)
	img, format, err = Decode(raw)
	require.NoError(t, err)
	out, err = Frame{Image: img, Format: format, Raw: raw}.JPEG(80)
	require.NoError(t, err)
	_, format, err = Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestPoller_Once(t *testing.T) {
	fetched := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{SnapshotFunc: func(int) ([]byte, error) { return testPNG(t), nil }}
	p := NewPoller(fetcher, 0)
	p.now = func() time.Time { return fetched }

	frame, err := p.Once(context.Background(), "AA:BB")
	require.NoError(t, err)
	assert.Equal(t, "AA:BB", frame.MAC)
	assert.Equal(t, "png", frame.Format)
	assert.Equal(t, fetched, frame.FetchedAt)
	assert.Equal(t, DefaultInterval, p.Interval)
}

func TestPoller_FailedTickDoesNotStopLoop(t *testing.T) {
	fetcher := &mockFetcher{SnapshotFunc: func(call int) ([]byte, error) {
		switch call {
		case 1:
			return nil, errors.New("Failed to get snapshot: Service Unavailable")
		case 2:
			return []byte("garbage"), nil
		default:
			return testPNG(t), nil
		}
	}}
	p := NewPoller(fetcher, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan Frame, 16)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, "AA:BB", func(f Frame) {
			select {
			case frames <- f:
			default:
			}
		})
		close(done)
	}()

	select {
	case f := <-frames:
		assert.Equal(t, "png", f.Format)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered after failing ticks")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.GreaterOrEqual(t, fetcher.calls, 3)
}

func TestPoller_StopsOnCancelledContext(t *testing.T) {
	fetcher := &mockFetcher{SnapshotFunc: func(int) ([]byte, error) { return nil, context.Canceled }}
	p := NewPoller(fetcher, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx, "AA:BB", func(Frame) { t.Error("unexpected frame") })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller ignored cancelled context")
	}
}
