// Package framebench provides paced frame-by-frame video decoding with
// playback performance telemetry.
//
// It decodes a video file into timed, tightly packed RGB frames through
// FFmpeg (via go-astiav), paces consumption against a target frame rate,
// and feeds every produced frame into a metrics collector that maintains
// windowed, cumulative and peak statistics for display or export.
//
// # Quick Start
//
// Decode a file as fast as possible and collect statistics:
//
//	src, err := framebench.Open("clip.mp4", framebench.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	col := metrics.NewCollector(sampler)
//	for {
//	    frame, err := src.Next()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if frame == nil {
//	        break // end of stream
//	    }
//	    col.Record(frame.FrameNumber, frame.Timestamp.Seconds())
//	}
//	report := col.Finalize()
//
// To play back at a fixed rate, drive the loop through the pacer:
//
//	src, _ := framebench.Open("clip.mp4", framebench.Options{TargetFPS: 30})
//	for {
//	    src.Pacer().Maintain() // sleeps until the next frame is due
//	    frame, err := src.Next()
//	    ...
//	}
//
// A repaint-style loop can instead poll src.Pacer().ShouldAdvance() on every
// tick and only pull a frame when it reports true.
//
// # Frame Format
//
// Frames are delivered as raw interleaved RGB bytes (RGBRGB...), exactly
// Width × Height × 3 bytes with no inter-row padding. Decoder strides are
// normalized away before a frame is returned, and every frame owns a fresh
// buffer independent of the decoder's internal state.
//
// # End of Stream
//
// Next returns (nil, nil) once both the container and the decoder's
// internal buffers are exhausted. The signal is stable: further calls keep
// returning (nil, nil).
//
// # Concurrency Model
//
// FrameSource and metrics.Collector are designed for exclusive access from
// a single driving loop; they are not internally synchronized. FFmpeg may
// decode with multiple worker threads internally, but that parallelism is
// fully encapsulated: Next is a synchronous call. A GUI or service that
// wants live statistics should publish collector snapshots to the telemetry
// server rather than share the collector across goroutines.
//
// # Dependencies
//
// FFmpeg libraries must be installed on the system (libavformat, libavcodec,
// libswscale), as required by github.com/asticode/go-astiav:
//
//	# Ubuntu/Debian
//	sudo apt-get install libavformat-dev libavcodec-dev libavutil-dev libswscale-dev
//
//	# Fedora/RHEL
//	sudo dnf install ffmpeg-free-devel
//
// # Limitations
//
//   - File sources only (no RTSP, HLS or WebRTC inputs)
//   - RGB24 output only, at the source's native resolution
//   - No seeking; playback is strictly forward
//   - No audio decoding (video only)
package framebench
