package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/asticode/go-astiav"
)

func init() {
	// FFmpeg is chatty by default; failures surface as wrapped errors instead.
	astiav.SetLogLevel(astiav.LogLevelQuiet)
}

// input is the FFmpeg-backed Decoder. It exclusively owns the format
// context, codec context, scale context and the reusable packet/frame
// buffers; nothing else in the module touches astiav types.
type input struct {
	formatContext *astiav.FormatContext
	stream        *astiav.Stream
	codecContext  *astiav.CodecContext
	scaleContext  *astiav.SoftwareScaleContext

	packet   *astiav.Packet
	srcFrame *astiav.Frame
	rgbFrame *astiav.Frame

	info   StreamInfo
	closed bool
}

// Open opens the container at path, selects its best video stream and
// builds a decoder plus an RGB24 converter at the stream's native
// resolution. Fails with ErrNoVideoStream, ErrDecoderInit or ErrScalerInit
// wrapped with detail.
func Open(path string, o Options) (Decoder, error) {
	formatContext := astiav.AllocFormatContext()
	if formatContext == nil {
		return nil, fmt.Errorf("%w: allocating format context", ErrDecoderInit)
	}

	if err := formatContext.OpenInput(path, nil, nil); err != nil {
		formatContext.Free()
		return nil, fmt.Errorf("media: opening input %q: %w", path, err)
	}

	in := &input{formatContext: formatContext}
	if err := in.setup(o); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

func (in *input) setup(o Options) error {
	if err := in.formatContext.FindStreamInfo(nil); err != nil {
		return fmt.Errorf("media: finding stream info: %w", err)
	}

	for _, s := range in.formatContext.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			in.stream = s
			break
		}
	}
	if in.stream == nil {
		return ErrNoVideoStream
	}

	codec := astiav.FindDecoder(in.stream.CodecParameters().CodecID())
	if codec == nil {
		return fmt.Errorf("%w: no decoder for codec id %d", ErrDecoderInit, in.stream.CodecParameters().CodecID())
	}

	in.codecContext = astiav.AllocCodecContext(codec)
	if in.codecContext == nil {
		return fmt.Errorf("%w: allocating codec context", ErrDecoderInit)
	}
	if err := in.stream.CodecParameters().ToCodecContext(in.codecContext); err != nil {
		return fmt.Errorf("%w: applying stream parameters: %s", ErrDecoderInit, err)
	}

	// Parallel decode across CPU cores; thread type stays at FFmpeg's default.
	if o.ThreadCount > 0 {
		in.codecContext.SetThreadCount(o.ThreadCount)
	}

	if err := in.codecContext.Open(codec, nil); err != nil {
		return fmt.Errorf("%w: opening codec %s: %s", ErrDecoderInit, codec.Name(), err)
	}

	width := in.codecContext.Width()
	height := in.codecContext.Height()

	scaleContext, err := astiav.CreateSoftwareScaleContext(
		width, height, in.codecContext.PixelFormat(),
		width, height, astiav.PixelFormatRgb24,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagFastBilinear),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrScalerInit, err)
	}
	in.scaleContext = scaleContext

	in.packet = astiav.AllocPacket()
	in.srcFrame = astiav.AllocFrame()
	in.rgbFrame = astiav.AllocFrame()

	in.info = in.buildStreamInfo(width, height, codec.Name())

	slog.Debug("media: input opened",
		"codec", codec.Name(),
		"resolution", fmt.Sprintf("%dx%d", width, height),
		"total_frames", in.info.TotalFrames,
		"duration", in.info.Duration,
		"threads", o.ThreadCount,
	)
	return nil
}

func (in *input) buildStreamInfo(width, height int, codecName string) StreamInfo {
	timeBase := 0.0
	if tb := in.stream.TimeBase(); tb.Den() != 0 {
		timeBase = float64(tb.Num()) / float64(tb.Den())
	}

	totalFrames := in.stream.NbFrames()
	if totalFrames < 0 {
		totalFrames = 0
	}

	durationSeconds := float64(in.stream.Duration()) * timeBase
	if durationSeconds <= 0 {
		// Some containers omit the stream duration; estimate from the
		// average frame rate, or give up and claim one second.
		if fr := in.stream.AvgFrameRate(); fr.Num() > 0 && fr.Den() > 0 {
			durationSeconds = float64(totalFrames) / (float64(fr.Num()) / float64(fr.Den()))
		} else {
			durationSeconds = 1
		}
	}

	return StreamInfo{
		Width:       width,
		Height:      height,
		TotalFrames: uint64(totalFrames),
		Duration:    time.Duration(durationSeconds * float64(time.Second)),
		TimeBase:    timeBase,
		CodecName:   codecName,
	}
}

// Info implements Decoder.
func (in *input) Info() StreamInfo {
	return in.info
}

// NextUnit reads packets until one belongs to the selected video stream and
// feeds it to the decoder. Packets from other streams are discarded.
func (in *input) NextUnit() error {
	for {
		if err := in.formatContext.ReadFrame(in.packet); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				return io.EOF
			}
			return fmt.Errorf("media: reading packet: %w", err)
		}
		if in.packet.StreamIndex() != in.stream.Index() {
			in.packet.Unref()
			continue
		}

		err := in.codecContext.SendPacket(in.packet)
		in.packet.Unref()
		if err != nil {
			return fmt.Errorf("media: sending packet: %w", err)
		}
		return nil
	}
}

// SendEOF implements Decoder. A nil packet is FFmpeg's end marker.
func (in *input) SendEOF() error {
	if err := in.codecContext.SendPacket(nil); err != nil {
		return fmt.Errorf("media: sending end of stream: %w", err)
	}
	return nil
}

// ReceivePicture implements Decoder. The returned Picture aliases a buffer
// that is reused on the next call.
func (in *input) ReceivePicture() (Picture, error) {
	if err := in.codecContext.ReceiveFrame(in.srcFrame); err != nil {
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return Picture{}, ErrDrained
		}
		return Picture{}, fmt.Errorf("media: receiving frame: %w", err)
	}
	defer in.srcFrame.Unref()

	if err := in.scaleContext.ScaleFrame(in.srcFrame, in.rgbFrame); err != nil {
		return Picture{}, fmt.Errorf("media: converting to RGB: %w", err)
	}
	defer in.rgbFrame.Unref()

	width := in.rgbFrame.Width()
	height := in.rgbFrame.Height()

	// The copy-out is row-aligned to one byte, so the reported stride is
	// exactly width*3 here. The Picture contract still carries the stride
	// explicitly; other Decoder implementations may hand over padded rows.
	data, err := in.rgbFrame.Data().Bytes(1)
	if err != nil {
		return Picture{}, fmt.Errorf("media: reading RGB plane: %w", err)
	}

	pts := in.srcFrame.Pts()
	return Picture{
		Data:   data,
		Stride: width * 3,
		Width:  width,
		Height: height,
		PTS:    pts,
		HasPTS: pts != astiav.NoPtsValue,
	}, nil
}

// Close implements Decoder.
func (in *input) Close() {
	if in.closed {
		return
	}
	in.closed = true

	if in.rgbFrame != nil {
		in.rgbFrame.Free()
	}
	if in.srcFrame != nil {
		in.srcFrame.Free()
	}
	if in.packet != nil {
		in.packet.Free()
	}
	if in.scaleContext != nil {
		in.scaleContext.Free()
	}
	if in.codecContext != nil {
		in.codecContext.Free()
	}
	if in.formatContext != nil {
		in.formatContext.CloseInput()
		in.formatContext.Free()
	}
}
