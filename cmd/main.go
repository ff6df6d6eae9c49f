package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/richinsley/goshaderquad/gldevice"
	"github.com/richinsley/goshaderquad/glfwcontext"
	"github.com/richinsley/goshaderquad/graphics"
	"github.com/richinsley/goshaderquad/headless"
	"github.com/richinsley/goshaderquad/options"
	"github.com/richinsley/goshaderquad/renderer"
	"github.com/richinsley/goshaderquad/resource"
	"github.com/richinsley/goshaderquad/shader"
	"github.com/richinsley/goshaderquad/snapshot"
)

func init() {
	// GL contexts belong to the thread that made them current.
	runtime.LockOSThread()
}

func newLogger(format string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// openSurface acquires the drawable surface and returns the function that releases it.
func openSurface(opts *options.QuadOptions, logger *zap.Logger) (graphics.Surface, func(), error) {
	if *opts.Headless {
		h, err := headless.NewHeadless(*opts.Width, *opts.Height, logger)
		if err != nil {
			return nil, nil, err
		}
		return h, h.Shutdown, nil
	}

	if err := glfwcontext.InitGraphics(logger); err != nil {
		return nil, nil, err
	}
	win, err := glfwcontext.New(*opts.Width, *opts.Height, true)
	if err != nil {
		glfwcontext.TerminateGraphics(logger)
		return nil, nil, err
	}
	return win, func() {
		win.Shutdown()
		glfwcontext.TerminateGraphics(logger)
	}, nil
}

// holdWindow keeps a windowed surface open until it is closed or ctx is cancelled.
func holdWindow(ctx context.Context, surface graphics.Surface) {
	win, ok := surface.(*glfwcontext.Context)
	if !ok {
		return
	}
	go func() {
		<-ctx.Done()
		glfwcontext.Wake()
	}()
	for !win.ShouldClose() && ctx.Err() == nil {
		win.WaitEvents()
	}
}

func run(ctx context.Context, opts *options.QuadOptions, logger *zap.Logger) error {
	surface, release, err := openSurface(opts, logger)
	if err != nil {
		return err
	}
	defer release()

	surface.MakeCurrent()
	dev, err := gldevice.New(surface.IsGLES(), logger)
	if err != nil {
		return &graphics.SurfaceError{Step: "load gl", Err: err}
	}
	width, height := surface.GetFramebufferSize()
	dev.Viewport(width, height)

	schema, err := shader.SchemaByName(*opts.Schema)
	if err != nil {
		return err
	}
	fetcher, err := resource.NewFetcher(nil, *opts.Base, logger)
	if err != nil {
		return err
	}

	p, err := renderer.Run(ctx, dev, fetcher.Fetch, opts.Requests(), schema, logger)
	if err != nil {
		return err
	}

	if *opts.Snapshot != "" {
		pixels := dev.ReadPixels(width, height)
		if err := snapshot.Write(pixels, width, height, *opts.Snapshot, *opts.FFMPEGPath); err != nil {
			return err
		}
		logger.Info("snapshot written", zap.String("file", *opts.Snapshot))
	}
	surface.EndFrame()
	logger.Info("quad drawn", zap.Stringer("stage", p.Stage()), zap.Int("width", width), zap.Int("height", height))

	holdWindow(ctx, surface)
	return nil
}

func main() {
	opts, err := options.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *opts.Help {
		fmt.Println("Shader quad renderer")
		flag.PrintDefaults()
		return
	}

	logger, err := newLogger(*opts.LogFormat, *opts.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		var serr *graphics.SurfaceError
		if errors.As(err, &serr) {
			logger.Fatal("no drawable surface", zap.Error(err))
		}
		logger.Fatal("render failed", zap.Error(err))
	}
}
