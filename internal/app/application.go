package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"modesrx/internal/adsb"
	"modesrx/internal/basestation"
	"modesrx/internal/logging"
	"modesrx/internal/phy"
	"modesrx/internal/source"
)

// Application wires a sample source into one receiver chain and streams
// decoded messages to the SBS log. It owns exactly one synchronizer and
// one CPR state; a second signal source needs a second Application.
type Application struct {
	config     Config
	logger     *logrus.Logger
	src        source.SampleSource
	receiver   *phy.Receiver
	parser     *adsb.Parser
	writer     *basestation.Writer
	logRotator *logging.LogRotator
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	// mu guards the counters below and the stage stats, which the
	// telemetry ticker reads while the frame loop advances them.
	mu        sync.Mutex
	radioTime float64 // seconds of signal consumed, advances per frame
	frames    uint64
	messages  uint64
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs the receiver session until the source ends or a shutdown
// signal arrives.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting Mode S receiver")

	if err := app.initializeComponents(); err != nil {
		app.cancel()
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := app.run()

	select {
	case <-sigChan:
		app.logger.Info("Received shutdown signal")
	case <-done:
		app.logger.Info("Sample source finished")
	}
	app.shutdown()
	return nil
}

// initializeComponents derives the receiver configuration and builds the
// pipeline. A configuration invariant violation aborts here, before any
// samples flow.
func (app *Application) initializeComponents() error {
	cfg, err := phy.NewReceiverConfig(app.config.SampleRate, app.config.FrameSamples, app.config.MaxPackets, app.config.SyncThreshold)
	if err != nil {
		return fmt.Errorf("invalid receiver configuration: %w", err)
	}
	app.logger.WithFields(logrus.Fields{
		"sample_rate":      cfg.SampleRate,
		"interp_factor":    cfg.InterpFactor,
		"samples_per_chip": cfg.SamplesPerChip,
		"frame_duration":   cfg.FrameDuration,
	}).Info("Receiver configuration derived")

	if app.config.InputFile != "" {
		app.src, err = source.NewIQFileReader(app.config.InputFile, app.config.FrameSamples, app.logger)
	} else {
		app.src, err = source.NewRTLSDRSource(app.config.DeviceIndex, app.config.Frequency,
			app.config.SampleRate, app.config.FrameSamples, app.config.Gain, app.logger)
	}
	if err != nil {
		return fmt.Errorf("failed to open sample source: %w", err)
	}

	app.receiver = phy.NewReceiver(cfg, app.logger)
	app.parser = adsb.NewParser(app.logger)

	app.logRotator, err = logging.NewLogRotator(app.config.LogDir, app.config.LogRotateUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}
	app.writer = basestation.NewWriter(app.logRotator, app.logger)

	return nil
}

// run starts the frame loop and supporting goroutines. The returned
// channel closes when the sample source is exhausted.
func (app *Application) run() <-chan struct{} {
	done := make(chan struct{})

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer close(done)
		app.frameLoop()
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.logRotator.Start(app.ctx)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics()
	}()

	return done
}

// frameLoop drives the pipeline: one receive cycle per source frame, in
// strict arrival order. Radio time advances by the frame duration, never
// by the wall clock.
func (app *Application) frameLoop() {
	cfg := app.receiver.Config()

	for {
		frame, err := app.src.ReadFrame(app.ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			return
		default:
			app.logger.WithError(err).Error("Sample source read failed")
			return
		}

		app.mu.Lock()
		packets, cnt := app.receiver.ProcessFrame(frame, app.radioTime)
		messages := app.parser.ProcessPackets(packets, cnt)
		app.frames++
		app.messages += uint64(len(messages))
		app.radioTime += cfg.FrameDuration
		app.mu.Unlock()

		for i := range messages {
			if err := app.writer.WriteMessage(&messages[i]); err != nil {
				app.logger.WithError(err).Debug("Failed to write SBS message")
			}
		}

		if cnt > 0 {
			app.logger.WithFields(logrus.Fields{
				"frame":    app.frames,
				"packets":  cnt,
				"messages": len(messages),
			}).Debug("Frame processed")
		}
	}
}

// LastPacket exposes the receiver's diagnostic window of the most
// recently validated packet, for offline analysis tooling.
func (app *Application) LastPacket() []float64 {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.receiver.LastPacket()
}

// reportStatistics logs packet-error-rate telemetry periodically.
func (app *Application) reportStatistics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.logStats()
		}
	}
}

func (app *Application) logStats() {
	app.mu.Lock()
	syncStats := app.receiver.SyncStats()
	bitStats := app.receiver.BitStats()
	parserStats := app.parser.Stats()
	frames := app.frames
	messages := app.messages
	app.mu.Unlock()

	total := bitStats.CRCPassed + bitStats.CRCFailed
	per := 0.0
	if total > 0 {
		per = float64(bitStats.CRCFailed) / float64(total)
	}

	app.logger.WithFields(logrus.Fields{
		"frames":            frames,
		"sync_peaks":        syncStats.Peaks,
		"sync_rejected":     syncStats.Rejected,
		"candidates":        syncStats.Candidates,
		"dropped":           syncStats.Dropped,
		"crc_passed":        bitStats.CRCPassed,
		"crc_failed":        bitStats.CRCFailed,
		"packet_error_rate": fmt.Sprintf("%.3f", per),
		"short_valid":       bitStats.ShortValid,
		"long_valid":        bitStats.LongValid,
		"messages":          messages,
		"position_fixes":    parserStats.PositionFixes,
	}).Info("Receiver statistics")
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Info("Shutting down")
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	app.logStats()

	if app.src != nil {
		app.src.Close()
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}
	app.logger.Info("Shutdown completed")
}
