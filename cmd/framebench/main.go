// Command framebench decodes a video file frame by frame, optionally paced
// against a target frame rate, and reports playback performance metrics on
// the terminal, over HTTP and as a JSON export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/visiona/framebench"
	"github.com/visiona/framebench/internal/platform/config"
	"github.com/visiona/framebench/internal/sysinfo"
	"github.com/visiona/framebench/internal/telemetry"
	"github.com/visiona/framebench/metrics"
)

const (
	shutdownTimeout = 5 * time.Second
	publishInterval = 500 * time.Millisecond
	progressEvery   = 100 // frames between progress lines
)

func main() {
	_ = config.Load()

	var (
		input     = flag.String("i", "", "path to the video file to play (required)")
		targetFPS = flag.Uint("fps", uint(config.GetEnvInt("FRAMEBENCH_TARGET_FPS", 0)), "target FPS (0 = maximum decode speed)")
		threads   = flag.Int("threads", config.GetEnvInt("FRAMEBENCH_DECODE_THREADS", 0), "decoder thread count (0 = one per CPU core)")
		benchmark = flag.Bool("benchmark", false, "ignore pacing and decode as fast as possible")
		export    = flag.String("export", "", "write the session report as JSON to this path")
		serveAddr = flag.String("serve", config.GetEnv("FRAMEBENCH_SERVE_ADDR", ""), "serve live telemetry on this address (e.g. :9090; empty = off)")
		logLevel  = flag.String("log-level", config.GetEnv("FRAMEBENCH_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	)
	flag.Parse()

	log := newLogger(*logLevel)
	slog.SetDefault(log)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: framebench -i path/to/video.mp4 [-fps N] [-benchmark] [-export report.json] [-serve :9090]")
		os.Exit(2)
	}

	if err := run(log, *input, uint32(*targetFPS), *threads, *benchmark, *export, *serveAddr); err != nil {
		log.Error("framebench failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
	}))
}

func run(log *slog.Logger, input string, targetFPS uint32, threads int, benchmark bool, export, serveAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := framebench.Open(input, framebench.Options{TargetFPS: targetFPS, DecodeThreads: threads})
	if err != nil {
		return err
	}
	defer src.Close()

	col := metrics.NewCollector(newSampler(log))

	var tel *telemetry.Server
	var srv *http.Server
	if serveAddr != "" {
		tel = telemetry.NewServer(log)
		srv = &http.Server{Addr: serveAddr, Handler: tel.Routes()}
		go func() {
			log.Info("telemetry server listening", "addr", serveAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("telemetry server error", "error", err)
			}
		}()
	}

	mode := "playback"
	if benchmark || targetFPS == 0 {
		mode = "benchmark"
	}
	log.Info("starting session",
		"mode", mode,
		"session_id", col.SessionID(),
		"target_fps", targetFPS,
	)

	err = playLoop(ctx, src, col, tel, benchmark)

	printSummary(col, src.Info())

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.Error("telemetry server shutdown", "error", serr)
		}
	}

	if export != "" {
		log.Info("exporting session report", "path", export)
		if eerr := col.Export(export); eerr != nil {
			if err == nil {
				err = eerr
			} else {
				log.Error("export failed", "error", eerr)
			}
		}
	}
	return err
}

// playLoop drives the frame source to exhaustion (or cancellation), feeding
// every produced frame into the collector and publishing telemetry
// snapshots along the way. It is the single owner of both the source and
// the collector.
func playLoop(ctx context.Context, src *framebench.FrameSource, col *metrics.Collector, tel *telemetry.Server, benchmark bool) error {
	var lastPublish time.Time

	for {
		select {
		case <-ctx.Done():
			slog.Info("stop requested, ending playback", "frames", col.TotalFrames())
			return nil
		default:
		}

		if !benchmark {
			src.Pacer().Maintain()
		}

		frame, err := src.Next()
		if err != nil {
			return err
		}
		if frame == nil {
			slog.Info("end of stream", "frames", col.TotalFrames())
			return nil
		}

		col.Record(frame.FrameNumber, frame.Timestamp.Seconds())

		if tel != nil && time.Since(lastPublish) >= publishInterval {
			tel.Publish(col.Live())
			lastPublish = time.Now()
		}

		if frame.FrameNumber%progressEvery == 0 {
			slog.Info("progress",
				"frame", frame.FrameNumber,
				"current_fps", fmt.Sprintf("%.2f", col.CurrentFPS()),
				"average_fps", fmt.Sprintf("%.2f", col.AverageFPS()),
			)
		}
	}
}

// newSampler prefers real process introspection and degrades to zeroed
// telemetry when it is unavailable.
func newSampler(log *slog.Logger) metrics.Sampler {
	provider, err := sysinfo.NewProvider()
	if err != nil {
		log.Warn("process introspection unavailable, system metrics will read zero", "error", err)
		return metrics.NopSampler{}
	}
	return provider
}

func printSummary(col *metrics.Collector, info framebench.PlaybackInfo) {
	report := col.Finalize()

	fmt.Println("\n=== Performance Metrics Summary ===")
	fmt.Printf("Session ID:       %s\n", report.SessionID)
	fmt.Printf("Video:            %dx%d, %d frames, %.2fs (%s)\n",
		info.Width, info.Height, info.TotalFrames, info.Duration.Seconds(), info.CodecName)
	fmt.Printf("Session Duration: %.2fs\n", report.Duration)
	fmt.Printf("Total Frames:     %d\n", report.TotalFrames)
	fmt.Printf("Average FPS:      %.2f\n", report.AverageFPS)
	fmt.Printf("Max FPS:          %.2f\n", report.MaxFPS)
	fmt.Printf("Min FPS:          %.2f\n", report.MinFPS)
	fmt.Printf("Peak Memory:      %.2f MB\n", report.PeakMemoryMB)
	fmt.Printf("Average Memory:   %.2f MB\n", report.AverageMemoryMB)
	fmt.Printf("Peak CPU:         %.1f%%\n", report.PeakCPUPercent)
	fmt.Printf("Average CPU:      %.1f%%\n", report.AverageCPUPercent)
	fmt.Printf("Dropped Frames:   %d\n", report.DroppedFrames)
}
