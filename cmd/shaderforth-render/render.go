// render.go fans a compiled program out across an image's rows with
// one *shaderforth.Program clone per worker, grounded on the teacher's
// scripts/gen_vm_expects.go errgroup-driven fan-out and spec.md §5's
// "multiple independent compiler states may be created and used on
// different threads without coordination".
package main

import (
	"context"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/sync/errgroup"

	"shaderforth"
)

// renderFrame evaluates prog once per pixel of an Image.Width x
// Image.Height grid at the given t, writing the residual D stack's top
// three values as B, G, R per spec.md §1's "typically as R, G, B color
// channels" convention (a program pushes r, then g, then b, leaving b
// on top).
func renderFrame(ctx context.Context, prog *shaderforth.Program, cfg *Config, t float64) (*image.RGBA, error) {
	w, h := cfg.Image.Width, cfg.Image.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	workers := runtime.GOMAXPROCS(0)
	if workers > h {
		workers = h
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	rows := make(chan int)
	g.Go(func() error {
		defer close(rows)
		for y := 0; y < h; y++ {
			select {
			case rows <- y:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		worker := prog.Clone()
		g.Go(func() error {
			vars := &shaderforth.Vars{}
			for y := range rows {
				for x := 0; x < w; x++ {
					*vars = shaderforth.Vars{X: float64(x), Y: float64(y), T: t, Dt: cfg.Time.Dt}
					for mi, v := range cfg.Memory {
						if mi >= shaderforth.MemoryCapacity {
							break
						}
						vars.Memory[mi] = v
					}
					if err := worker.Run(vars); err != nil {
						return err
					}
					img.SetRGBA(x, y, pixelColor(worker, vars))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

// pixelColor pops up to three residual D stack values and clamps them
// into a color.RGBA, treating a shorter stack as grayscale (one value)
// or black (empty) rather than failing the render.
func pixelColor(prog *shaderforth.Program, vars *shaderforth.Vars) color.RGBA {
	var r, g, b float64
	switch n := prog.DStackLen(vars); {
	case n >= 3:
		b = prog.DStackPop(vars)
		g = prog.DStackPop(vars)
		r = prog.DStackPop(vars)
	case n == 2:
		g = prog.DStackPop(vars)
		r = prog.DStackPop(vars)
	case n == 1:
		r = prog.DStackPop(vars)
		g, b = r, r
	}
	return color.RGBA{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: 255}
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v * 255)
	}
}
