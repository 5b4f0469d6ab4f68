package framebench

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/visiona/framebench/internal/media"
)

// fakeDecoder scripts the decode capability: each compressed unit releases
// zero or more pictures, and the flush releases whatever was still
// buffered. This mirrors real decoder behavior where send/receive is not
// 1:1.
type fakeDecoder struct {
	info     media.StreamInfo
	units    [][]media.Picture // pictures released per compressed unit
	buffered []media.Picture   // pictures released only by the flush

	queue      []media.Picture
	unitIdx    int
	flushed    bool
	closed     bool
	receiveErr error
	unitErr    error
}

func (d *fakeDecoder) Info() media.StreamInfo { return d.info }

func (d *fakeDecoder) NextUnit() error {
	if d.unitErr != nil {
		return d.unitErr
	}
	if d.unitIdx >= len(d.units) {
		return io.EOF
	}
	d.queue = append(d.queue, d.units[d.unitIdx]...)
	d.unitIdx++
	return nil
}

func (d *fakeDecoder) SendEOF() error {
	d.flushed = true
	d.queue = append(d.queue, d.buffered...)
	d.buffered = nil
	return nil
}

func (d *fakeDecoder) ReceivePicture() (media.Picture, error) {
	if d.receiveErr != nil {
		return media.Picture{}, d.receiveErr
	}
	if len(d.queue) == 0 {
		return media.Picture{}, media.ErrDrained
	}
	pic := d.queue[0]
	d.queue = d.queue[1:]
	return pic, nil
}

func (d *fakeDecoder) Close() { d.closed = true }

func testPicture(width, height, stride int) media.Picture {
	data := make([]byte, stride*height)
	for i := range data {
		data[i] = byte(i % 253)
	}
	return media.Picture{Data: data, Stride: stride, Width: width, Height: height}
}

func newTestSource(dec media.Decoder) *FrameSource {
	return &FrameSource{dec: dec, pacer: NewPacer(0)}
}

func TestFrameSource_MonotonicNumberingAcrossReadAndFlush(t *testing.T) {
	pic := testPicture(4, 2, 12)
	dec := &fakeDecoder{
		info: media.StreamInfo{Width: 4, Height: 2, TotalFrames: 4, Duration: time.Second, TimeBase: 1.0 / 90000},
		// One unit yields two pictures, the next yields none, the last
		// yields one; one more sits in the decoder until the flush.
		units:    [][]media.Picture{{pic, pic}, {}, {pic}},
		buffered: []media.Picture{pic},
	}
	src := newTestSource(dec)

	for want := uint64(1); want <= 4; want++ {
		frame, err := src.Next()
		if err != nil {
			t.Fatalf("Next() #%d failed: %v", want, err)
		}
		if frame == nil {
			t.Fatalf("Next() #%d returned early end of stream", want)
		}
		if frame.FrameNumber != want {
			t.Errorf("frame number = %d, want %d", frame.FrameNumber, want)
		}
	}

	if !dec.flushed {
		t.Errorf("decoder was never flushed")
	}
	if got := src.Info().CurrentFrame; got != 4 {
		t.Errorf("CurrentFrame = %d, want 4", got)
	}
}

func TestFrameSource_EndOfStreamIsStable(t *testing.T) {
	dec := &fakeDecoder{
		info:  media.StreamInfo{Width: 2, Height: 2, TotalFrames: 1, Duration: time.Second},
		units: [][]media.Picture{{testPicture(2, 2, 6)}},
	}
	src := newTestSource(dec)

	if frame, err := src.Next(); err != nil || frame == nil {
		t.Fatalf("Next() = (%v, %v), want one frame", frame, err)
	}

	for i := 0; i < 3; i++ {
		frame, err := src.Next()
		if err != nil {
			t.Fatalf("Next() after end of stream failed: %v", err)
		}
		if frame != nil {
			t.Fatalf("Next() after end of stream returned frame %d", frame.FrameNumber)
		}
	}
}

func TestFrameSource_NormalizesPaddedStride(t *testing.T) {
	width, height, stride := 5, 3, 32
	pic := testPicture(width, height, stride)
	dec := &fakeDecoder{
		info:  media.StreamInfo{Width: width, Height: height, TotalFrames: 1, Duration: time.Second},
		units: [][]media.Picture{{pic}},
	}
	src := newTestSource(dec)

	frame, err := src.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if want := width * height * 3; len(frame.Data) != want {
		t.Fatalf("frame data length = %d, want %d", len(frame.Data), want)
	}
	for y := 0; y < height; y++ {
		wantRow := pic.Data[y*stride : y*stride+width*3]
		gotRow := frame.Data[y*width*3 : (y+1)*width*3]
		if !bytes.Equal(gotRow, wantRow) {
			t.Errorf("row %d differs from stride-stripped source", y)
		}
	}
}

func TestFrameSource_FrameOwnsItsBuffer(t *testing.T) {
	pic := testPicture(4, 4, 12)
	dec := &fakeDecoder{
		info:  media.StreamInfo{Width: 4, Height: 4, TotalFrames: 1, Duration: time.Second},
		units: [][]media.Picture{{pic}},
	}
	src := newTestSource(dec)

	frame, err := src.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}

	before := frame.Data[0]
	pic.Data[0] ^= 0xFF // decoder reuses its buffer on the next call
	if frame.Data[0] != before {
		t.Errorf("frame data aliases the decoder's transient buffer")
	}
}

func TestFrameSource_Timestamps(t *testing.T) {
	// 300 frames over 10s → native 30 FPS.
	info := media.StreamInfo{Width: 2, Height: 2, TotalFrames: 300, Duration: 10 * time.Second, TimeBase: 1.0 / 90000}

	tests := []struct {
		name string
		pts  int64
		has  bool
		want time.Duration
	}{
		{"pts converted through time base", 90000, true, time.Second},
		{"negative pts falls back to frame/native", -3600, true, time.Second / 30},
		{"absent pts falls back to frame/native", 0, false, time.Second / 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pic := testPicture(2, 2, 6)
			pic.PTS = tt.pts
			pic.HasPTS = tt.has
			dec := &fakeDecoder{info: info, units: [][]media.Picture{{pic}}}
			src := newTestSource(dec)

			frame, err := src.Next()
			if err != nil {
				t.Fatalf("Next() failed: %v", err)
			}
			if frame.Timestamp != tt.want {
				t.Errorf("timestamp = %v, want %v", frame.Timestamp, tt.want)
			}
		})
	}
}

func TestFrameSource_NativeFPSFallback(t *testing.T) {
	dec := &fakeDecoder{info: media.StreamInfo{Width: 2, Height: 2}}
	src := newTestSource(dec)

	if got := src.NativeFPS(); got != 30.0 {
		t.Errorf("NativeFPS with unknown duration = %v, want 30.0", got)
	}
}

func TestFrameSource_DecodeErrorPropagates(t *testing.T) {
	decodeErr := errors.New("bitstream corrupted")
	dec := &fakeDecoder{
		info:       media.StreamInfo{Width: 2, Height: 2},
		receiveErr: decodeErr,
	}
	src := newTestSource(dec)

	if _, err := src.Next(); !errors.Is(err, decodeErr) {
		t.Errorf("Next() error = %v, want wrapped %v", err, decodeErr)
	}
}

func TestFrameSource_Progress(t *testing.T) {
	pic := testPicture(2, 2, 6)
	dec := &fakeDecoder{
		info:  media.StreamInfo{Width: 2, Height: 2, TotalFrames: 4, Duration: time.Second},
		units: [][]media.Picture{{pic, pic}},
	}
	src := newTestSource(dec)

	if got := src.Info().Progress(); got != 0 {
		t.Errorf("initial progress = %v, want 0", got)
	}
	src.Next()
	src.Next()
	if got := src.Info().Progress(); got != 0.5 {
		t.Errorf("progress after 2/4 frames = %v, want 0.5", got)
	}
}

func TestFrameSource_CloseReleasesDecoder(t *testing.T) {
	dec := &fakeDecoder{info: media.StreamInfo{Width: 2, Height: 2}}
	src := newTestSource(dec)

	src.Close()
	if !dec.closed {
		t.Errorf("Close did not release the decoder")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open("testdata/does-not-exist.mp4", Options{}); err == nil {
		t.Fatalf("Open accepted a missing file")
	}
}
