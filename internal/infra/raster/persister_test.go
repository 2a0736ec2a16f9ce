package raster

import (
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns a frame whose pixel (x, y) in buffer order encodes its coordinates.
func gradient(w, h int) model.Frame {
	pix := make([]byte, w*h*4)
	for y := range h {
		for x := range w {
			i := (y*w + x) * 4
			pix[i] = byte(x * 40)
			pix[i+1] = byte(y * 40)
			pix[i+2] = byte(x + y)
			pix[i+3] = 255
		}
	}
	return model.Frame{Width: w, Height: h, Pixels: pix}
}

func TestPersistRoundTripFlipsVertically(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p, err := NewPersister(fs, "/out/viz")
	require.NoError(t, err)

	frame := gradient(5, 3)
	path, err := p.Persist(frame, "uniform")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out/viz", "uniform.png"), path)

	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	b := img.Bounds()
	require.Equal(t, 5, b.Dx())
	require.Equal(t, 3, b.Dy())
	for y := range 3 {
		for x := range 5 {
			src := ((3-1-y)*5 + x) * 4
			want := color.NRGBA{
				R: frame.Pixels[src],
				G: frame.Pixels[src+1],
				B: frame.Pixels[src+2],
				A: frame.Pixels[src+3],
			}
			got := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			assert.Equal(t, want, got, "pixel %d,%d", x, y)
		}
	}
}

func TestPersistOverwrites(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p, err := NewPersister(fs, "out")
	require.NoError(t, err)

	_, err = p.Persist(gradient(2, 2), "shock")
	require.NoError(t, err)
	path, err := p.Persist(gradient(4, 1), "shock")
	require.NoError(t, err)

	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 1, cfg.Height)
}

func TestPersistRejects(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p, err := NewPersister(fs, "out")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		frame  model.Frame
		output string
	}{
		{name: "short buffer", frame: model.Frame{Width: 2, Height: 2, Pixels: make([]byte, 15)}, output: "decay"},
		{name: "empty name", frame: gradient(1, 1), output: ""},
		{name: "path traversal", frame: gradient(1, 1), output: "../decay"},
		{name: "nested", frame: gradient(1, 1), output: "a/b"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.Persist(tc.frame, tc.output)
			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrExtract)
		})
	}

	files, err := afero.ReadDir(fs, "out")
	require.NoError(t, err)
	assert.Empty(t, files)
}
