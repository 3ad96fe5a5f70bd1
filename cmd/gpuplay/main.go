// Command gpuplay renders the frames of a session file and prints the
// diagnostics, timings and used items of the last frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuplay"
	"github.com/gogpu/gpuplay/asset"
	"github.com/gogpu/gpuplay/internal/fakegpu"
	"github.com/gogpu/gpuplay/internal/halgpu"
	"github.com/gogpu/gpuplay/message"
	"github.com/gogpu/gpuplay/render"
	"github.com/gogpu/gpuplay/session"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run renders the session named in args and returns the exit code. Errors
// return instead of exiting so deferred releases run.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("gpuplay", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		frames     = flags.Int("frames", 1, "number of frames to render")
		device     = flags.String("device", "vulkan", "device to render with: vulkan or fake")
		evaluation = flags.String("eval", "automatic", "evaluation of frames after the first: steady, automatic, manual or reset")
		iterations = flags.Int("max-iterations", render.DefaultMaxIterations, "maximum iterations of a group")
		noTimers   = flags.Bool("no-timers", false, "do not measure call durations")
		store      = flags.Bool("store", false, "write modified buffers and textures back to their files")
		verbose    = flags.Bool("v", false, "log frame details")
	)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: gpuplay [flags] session.hcl\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	gpuplay.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	logger := log.New(stderr, "", 0)

	eval, err := parseEvaluation(*evaluation)
	if err != nil {
		logger.Print(err)
		return 2
	}

	path := flags.Arg(0)
	model, err := session.LoadFile(path)
	if err != nil {
		logger.Printf("Failed to load session: %v", err)
		return 1
	}

	dev, release, err := openDevice(*device)
	if err != nil {
		logger.Printf("Failed to open device: %v", err)
		return 1
	}
	defer release()

	s := render.NewSession(dev,
		render.WithAssets(asset.New(filepath.Dir(path))),
		render.WithMaxIterations(*iterations),
		render.WithTimerQueries(!*noTimers))
	defer s.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s.Update(model, true, render.Reset)
	for i := 0; i < *frames; i++ {
		if i > 0 {
			s.Update(model, false, eval)
		}
		if err := s.Render(ctx); err != nil {
			logger.Printf("Frame %d: %v", i, err)
			return 1
		}
	}

	report(stdout, model, s.Messages(), s.UsedItems())

	if *store {
		if err := s.StoreModified(); err != nil {
			logger.Printf("Failed to store: %v", err)
			return 1
		}
		logger.Printf("Stored %d buffers and %d textures",
			len(s.ModifiedBuffers()), len(s.ModifiedTextures()))
	}
	return 0
}

func parseEvaluation(name string) (render.EvaluationType, error) {
	for _, t := range []render.EvaluationType{render.Steady, render.Automatic, render.Manual, render.Reset} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown evaluation %q", name)
}

func openDevice(name string) (render.Device, func(), error) {
	switch name {
	case "fake":
		return fakegpu.New(), func() {}, nil
	case "vulkan":
		dev, err := halgpu.Open(gputypes.BackendVulkan)
		if err != nil {
			return nil, nil, err
		}
		return dev, dev.Destroy, nil
	}
	return nil, nil, fmt.Errorf("unknown device %q", name)
}

func report(w io.Writer, model *session.Model, msgs []message.Message, used render.ItemSet) {
	for _, m := range msgs {
		if m.ItemID != 0 {
			if it := model.FindItem(m.ItemID); it != nil {
				fmt.Fprintf(w, "%s: %s\n", it.Path(), m)
				continue
			}
		}
		fmt.Fprintln(w, m)
	}

	var names []string
	for _, id := range used.Sorted() {
		if it := model.FindItem(id); it != nil {
			names = append(names, it.Path())
		}
	}
	fmt.Fprintf(w, "used: %s\n", strings.Join(names, ", "))
}
