package framebench

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/visiona/framebench/internal/media"
	"github.com/visiona/framebench/internal/pixbuf"
)

// Re-exported open failure sentinels. Open wraps these, so callers can
// classify failures with errors.Is without importing internal packages.
var (
	ErrNoVideoStream = media.ErrNoVideoStream
	ErrDecoderInit   = media.ErrDecoderInit
	ErrScalerInit    = media.ErrScalerInit
)

// fallbackFPS is used to synthesize timestamps when the container reports
// no usable duration.
const fallbackFPS = 30.0

// FrameSource turns a video file into a sequence of timed, stride-correct
// RGB frames. It exclusively owns the decoder and scaler resources and the
// playback cursor.
//
// Not safe for concurrent use; a single driving loop must own it.
type FrameSource struct {
	dec   media.Decoder
	pacer *Pacer

	currentFrame uint64
	flushed      bool
	done         bool
}

// Open opens the video file at path and prepares it for decoding.
//
// Fails fast if the file does not exist. Stream selection, decoder and
// scaler construction failures surface as ErrNoVideoStream, ErrDecoderInit
// and ErrScalerInit respectively (wrapped with detail). Decoding is
// parallelized across all available CPU cores unless Options.DecodeThreads
// says otherwise.
func Open(path string, opts Options) (*FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("framebench: video file not accessible: %w", err)
	}

	threads := opts.DecodeThreads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	dec, err := media.Open(path, media.Options{ThreadCount: threads})
	if err != nil {
		return nil, fmt.Errorf("framebench: %w", err)
	}

	info := dec.Info()
	slog.Info("framebench: video loaded",
		"path", path,
		"codec", info.CodecName,
		"resolution", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"total_frames", info.TotalFrames,
		"duration", info.Duration,
		"target_fps", opts.TargetFPS,
	)

	return &FrameSource{
		dec:   dec,
		pacer: NewPacer(opts.TargetFPS),
	}, nil
}

// Pacer returns the pacing controller bound to this source's target rate.
func (s *FrameSource) Pacer() *Pacer {
	return s.pacer
}

// Next returns the next decoded frame, or (nil, nil) once both live
// decoding and the end-of-stream flush are exhausted. The end-of-stream
// signal is stable: every later call returns (nil, nil) again.
//
// A single compressed unit may yield zero or more decoded frames, so Next
// drains the decoder before pulling more input. Blocks on container I/O and
// decode work.
func (s *FrameSource) Next() (*VideoFrame, error) {
	if s.done {
		return nil, nil
	}

	for {
		pic, err := s.dec.ReceivePicture()
		if err == nil {
			return s.emit(pic)
		}
		if !errors.Is(err, media.ErrDrained) {
			return nil, fmt.Errorf("framebench: decoding frame %d: %w", s.currentFrame+1, err)
		}

		// Decoder is empty. After the flush there is nothing left to feed
		// it, so a drained decoder means end of stream.
		if s.flushed {
			s.done = true
			slog.Debug("framebench: end of stream", "frames_emitted", s.currentFrame)
			return nil, nil
		}

		if err := s.dec.NextUnit(); err != nil {
			if errors.Is(err, io.EOF) {
				if err := s.dec.SendEOF(); err != nil {
					return nil, fmt.Errorf("framebench: flushing decoder: %w", err)
				}
				s.flushed = true
				continue
			}
			return nil, fmt.Errorf("framebench: reading stream: %w", err)
		}
	}
}

// emit normalizes a decoded picture into an independently owned VideoFrame
// and advances the playback cursor. Counting is identical for the normal
// read path and the flush path.
func (s *FrameSource) emit(pic media.Picture) (*VideoFrame, error) {
	data, err := pixbuf.Pack(pic.Data, pic.Stride, pic.Width, pic.Height)
	if err != nil {
		return nil, fmt.Errorf("framebench: normalizing frame %d: %w", s.currentFrame+1, err)
	}

	s.currentFrame++

	return &VideoFrame{
		Data:        data,
		Width:       pic.Width,
		Height:      pic.Height,
		Timestamp:   s.timestamp(pic),
		FrameNumber: s.currentFrame,
	}, nil
}

// timestamp prefers the decoder-reported PTS converted through the stream
// time base. Absent or negative timestamps (seen in some containers) fall
// back to the frame number over the native rate.
func (s *FrameSource) timestamp(pic media.Picture) time.Duration {
	if pic.HasPTS {
		if seconds := float64(pic.PTS) * s.dec.Info().TimeBase; seconds >= 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return time.Duration(float64(s.currentFrame) / s.NativeFPS() * float64(time.Second))
}

// Info returns the playback cursor and stream metadata.
func (s *FrameSource) Info() PlaybackInfo {
	info := s.dec.Info()
	return PlaybackInfo{
		CurrentFrame: s.currentFrame,
		TotalFrames:  info.TotalFrames,
		Duration:     info.Duration,
		NativeFPS:    s.NativeFPS(),
		Width:        info.Width,
		Height:       info.Height,
		CodecName:    info.CodecName,
	}
}

// NativeFPS estimates the stream's own frame rate from its metadata, or
// 30.0 when the container reports no usable duration.
func (s *FrameSource) NativeFPS() float64 {
	info := s.dec.Info()
	if seconds := info.Duration.Seconds(); seconds > 0 && info.TotalFrames > 0 {
		return float64(info.TotalFrames) / seconds
	}
	return fallbackFPS
}

// Close releases decoder and scaler resources. Idempotent.
func (s *FrameSource) Close() {
	s.dec.Close()
}
