// Package raster turns frames read back from a graphics context into image files.
package raster

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

const Ext = ".png"

type Persister struct {
	fs  afero.Fs
	dir string
}

// NewPersister creates dir on fs when it does not exist yet.
func NewPersister(fs afero.Fs, dir string) (*Persister, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &Persister{fs: fs, dir: dir}, nil
}

func (p *Persister) Dir() string {
	return p.dir
}

// Image flips frame vertically: graphics contexts deliver the bottom row first.
func Image(frame model.Frame) (*image.NRGBA, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	src := &image.NRGBA{
		Pix:    frame.Pixels,
		Stride: frame.Width * model.BytesPerPixel,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
	return imaging.FlipV(src), nil
}

// Persist writes frame to <dir>/<name>.png, overwriting any previous file.
func (p *Persister) Persist(frame model.Frame, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", fmt.Errorf("%w: invalid output name %q", entity.ErrExtract, name)
	}
	img, err := Image(frame)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrExtract, err)
	}

	path := filepath.Join(p.dir, name+Ext)
	f, err := p.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", entity.ErrExtract, path, err)
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: encode %s: %w", entity.ErrExtract, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", entity.ErrExtract, path, err)
	}
	return path, nil
}
