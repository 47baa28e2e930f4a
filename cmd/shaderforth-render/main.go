// Command shaderforth-render is a reference harness exercising the
// shaderforth public API end to end: it compiles a source file and
// rasterizes it to PNG over a pixel grid, optionally sweeping t. It is
// a demonstration client of the engine, not a component the core
// engine depends on (SPEC_FULL.md §4.3). Flag/option/run/report
// skeleton, and the use of a logio.Logger for "ERROR: ..." reporting
// plus a non-zero ExitCode, follow the teacher's main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"time"

	"shaderforth"
	"shaderforth/internal/logio"
)

func main() {
	var (
		configPath string
		outPattern string
		trace      bool
		timeout    time.Duration
	)
	flag.StringVar(&configPath, "config", "", "path to a TOML render config")
	flag.StringVar(&outPattern, "out", "out.png", "output path; a %d verb is required when the config's [time] sweep has more than one step")
	flag.BoolVar(&trace, "trace", false, "attach the compiler's diagnostic sink to stderr (compilation writes no lines to it)")
	flag.DurationVar(&timeout, "timeout", 0, "abort the render after this long")
	flag.Parse()

	var log logio.Logger
	log.SetOutput(os.Stderr)

	if flag.NArg() != 1 {
		log.Errorf("usage: shaderforth-render [flags] <source-file>")
		os.Exit(log.ExitCode())
	}

	log.ErrorIf(run(&log, flag.Arg(0), configPath, outPattern, trace, timeout))
	os.Exit(log.ExitCode())
}

func run(log *logio.Logger, srcPath, configPath, outPattern string, trace bool, timeout time.Duration) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(srcPath) // #nosec G304 -- CLI-supplied source path
	if err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}

	var opts []shaderforth.Option
	if trace {
		opts = append(opts, shaderforth.WithLogf(log.Leveledf("TRACE")))
	}
	prog, err := shaderforth.New(src, opts...)
	if err != nil {
		return fmt.Errorf("compile %s: %w", srcPath, err)
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	steps := cfg.timeSteps()
	if len(steps) > 1 && !strings.Contains(outPattern, "%") {
		return fmt.Errorf("-out %q has no %%d verb but the config describes %d frames", outPattern, len(steps))
	}

	for i, t := range steps {
		img, err := renderFrame(ctx, prog, cfg, t)
		if err != nil {
			return fmt.Errorf("render frame %d (t=%v): %w", i, t, err)
		}

		path := outPattern
		if len(steps) > 1 {
			path = fmt.Sprintf(outPattern, i)
		}
		if err := writePNG(path, img); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path) // #nosec G304 -- CLI-supplied output path
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
