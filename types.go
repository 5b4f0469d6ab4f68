package framebench

import "time"

// VideoFrame is a single decoded, normalized picture.
//
// Data holds tightly packed interleaved RGB bytes (RGBRGB...), exactly
// Width*Height*3 bytes with no inter-row padding. The buffer is freshly
// allocated per frame and owned by the receiver; it is never aliased by
// decoder or scaler internals.
type VideoFrame struct {
	// Data is the packed RGB pixel buffer (len = Width*Height*3)
	Data []byte
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Timestamp is the presentation time relative to stream start
	Timestamp time.Duration
	// FrameNumber is the monotonic frame counter, starting at 1
	FrameNumber uint64
}

// PlaybackInfo is a snapshot of the source's playback cursor and stream
// metadata.
type PlaybackInfo struct {
	// CurrentFrame is the number of frames emitted so far
	CurrentFrame uint64
	// TotalFrames is the container's frame count estimate (0 if unknown).
	// CurrentFrame may legitimately exceed it when metadata under-reports.
	TotalFrames uint64
	// Duration is the stream duration estimate
	Duration time.Duration
	// NativeFPS is the stream's own frame rate estimate
	NativeFPS float64
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// CodecName identifies the video codec (e.g. "h264")
	CodecName string
}

// Progress returns the playback position as a fraction in [0, 1].
// Returns 0 when the total frame count is unknown; clamps to 1 when the
// container under-reported its frame count.
func (i PlaybackInfo) Progress() float64 {
	if i.TotalFrames == 0 {
		return 0
	}
	if i.CurrentFrame >= i.TotalFrames {
		return 1
	}
	return float64(i.CurrentFrame) / float64(i.TotalFrames)
}

// Options configures a FrameSource.
type Options struct {
	// TargetFPS caps playback speed through the source's Pacer.
	// 0 means unconstrained (decode at maximum speed).
	TargetFPS uint32
	// DecodeThreads is the decoder worker thread count.
	// 0 means one thread per available CPU core.
	DecodeThreads int
}
