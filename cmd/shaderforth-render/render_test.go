package main

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shaderforth"
)

func TestRenderFrame_ConstantColor(t *testing.T) {
	prog, err := shaderforth.New([]byte("1 .5 0"))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Image.Width = 4
	cfg.Image.Height = 3

	img, err := renderFrame(context.Background(), prog, cfg, 0)
	require.NoError(t, err)

	want := color.RGBA{R: 255, G: 127, B: 0, A: 255}
	for y := 0; y < cfg.Image.Height; y++ {
		for x := 0; x < cfg.Image.Width; x++ {
			assert.Equal(t, want, img.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestRenderFrame_UsesXYAsInputs(t *testing.T) {
	prog, err := shaderforth.New([]byte("x 2 / y 2 / 0"))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Image.Width = 2
	cfg.Image.Height = 2

	img, err := renderFrame(context.Background(), prog, cfg, 0)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 127, G: 127, B: 0, A: 255}, img.RGBAAt(1, 1))
}

func TestRenderFrame_SeedsConfiguredMemory(t *testing.T) {
	prog, err := shaderforth.New([]byte("0 @ 0 0"))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Image.Width = 1
	cfg.Image.Height = 1
	cfg.Memory = []float64{1}

	img, err := renderFrame(context.Background(), prog, cfg, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).R)
}

func TestPixelColor_ShortStackDegradesToGrayscale(t *testing.T) {
	prog, err := shaderforth.New([]byte(".5"))
	require.NoError(t, err)
	vars := &shaderforth.Vars{}
	require.NoError(t, prog.Run(vars))

	c := pixelColor(prog, vars)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestPixelColor_EmptyStackIsBlack(t *testing.T) {
	prog, err := shaderforth.New([]byte("1 1 +"))
	require.NoError(t, err)
	vars := &shaderforth.Vars{}
	require.NoError(t, prog.Run(vars))
	prog.DStackPop(vars)

	c := pixelColor(prog, vars)
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0, A: 255}, c)
}

func TestClampByte(t *testing.T) {
	assert.Equal(t, uint8(0), clampByte(-1))
	assert.Equal(t, uint8(0), clampByte(0))
	assert.Equal(t, uint8(255), clampByte(1))
	assert.Equal(t, uint8(255), clampByte(2))
	assert.Equal(t, uint8(127), clampByte(0.5))
}
