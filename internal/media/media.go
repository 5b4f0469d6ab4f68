// Package media wraps the external decode capability behind a narrow
// contract: open a container's best video stream, pull compressed units,
// receive decoded pictures converted to RGB24, and flush at end of stream.
//
// The canonical implementation is built on FFmpeg via go-astiav (see
// astiav.go). The Decoder interface exists so the frame production loop can
// be exercised against fakes without linking FFmpeg.
package media

import (
	"errors"
	"time"
)

var (
	// ErrNoVideoStream is returned by Open when the container has no video stream.
	ErrNoVideoStream = errors.New("media: no video stream found")

	// ErrDecoderInit is returned by Open when a decoder cannot be constructed
	// from the stream's codec parameters.
	ErrDecoderInit = errors.New("media: decoder initialization failed")

	// ErrScalerInit is returned by Open when the RGB pixel converter cannot be built.
	ErrScalerInit = errors.New("media: scaler initialization failed")

	// ErrDrained signals that the decoder holds no picture right now and
	// needs more input (or, after SendEOF, has nothing left at all).
	ErrDrained = errors.New("media: decoder drained")
)

// Picture is one decoded frame converted to RGB24.
//
// Data holds the RGB plane with rows spaced Stride bytes apart. The buffer
// is only valid until the next Decoder call; callers that keep a picture
// must copy it out first.
type Picture struct {
	Data   []byte
	Stride int
	Width  int
	Height int
	// PTS is the presentation timestamp in stream time-base units.
	// Only meaningful when HasPTS is true.
	PTS    int64
	HasPTS bool
}

// StreamInfo describes the selected video stream.
type StreamInfo struct {
	Width  int
	Height int
	// TotalFrames is the container's frame count estimate (0 if unknown)
	TotalFrames uint64
	// Duration is the stream duration estimate
	Duration time.Duration
	// TimeBase is the size of one PTS unit in seconds
	TimeBase float64
	// CodecName identifies the codec (e.g. "h264")
	CodecName string
}

// Options configures decoder construction.
type Options struct {
	// ThreadCount is the decoder worker thread count (0 = library default).
	ThreadCount int
}

// Decoder is the decode capability contract.
//
// Usage is receive-first: call ReceivePicture until it reports ErrDrained,
// then feed one more compressed unit with NextUnit and try again. A single
// unit may yield zero or more pictures. When NextUnit reports io.EOF, call
// SendEOF once and keep receiving until ErrDrained — the decoder may still
// hold buffered pictures.
//
// Implementations are not safe for concurrent use.
type Decoder interface {
	// Info returns the selected stream's metadata.
	Info() StreamInfo

	// NextUnit reads the next compressed unit belonging to the video stream
	// and feeds it to the decoder. Returns io.EOF when the container is
	// exhausted.
	NextUnit() error

	// SendEOF signals end of stream so remaining buffered pictures can be
	// drained via ReceivePicture.
	SendEOF() error

	// ReceivePicture returns the next decoded picture converted to RGB24,
	// or ErrDrained when the decoder needs more input.
	ReceivePicture() (Picture, error)

	// Close releases decoder and scaler resources. Idempotent.
	Close()
}
