package model

import "fmt"

const BytesPerPixel = 4

// Frame is a raw RGBA8 raster read back from a graphics context. Rows are in
// the order the context delivered them, bottom row first.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if want := f.Width * f.Height * BytesPerPixel; len(f.Pixels) != want {
		return fmt.Errorf("frame %dx%d has %d bytes, want %d", f.Width, f.Height, len(f.Pixels), want)
	}
	return nil
}
