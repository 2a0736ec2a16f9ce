package capture

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/LouYuanbo1/vizcapture/internal/domain/entity"
	"github.com/LouYuanbo1/vizcapture/internal/domain/model"
	"github.com/LouYuanbo1/vizcapture/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// Extractor reads the secondary view's raster back from the page. The page
// callable renders into an offscreen target sized to the drawing buffer and
// finishes the GL pipeline before reading pixels.
type Extractor struct {
	session    chrome.Session
	canvasData string
	log        logrus.FieldLogger
}

func NewExtractor(session chrome.Session, canvasData string, log logrus.FieldLogger) *Extractor {
	return &Extractor{session: session, canvasData: canvasData, log: log}
}

func (e *Extractor) Capture(ctx context.Context) (model.Frame, error) {
	var raw struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Length int    `json:"length"`
		Data   string `json:"data"`
	}
	if err := e.session.Evaluate(ctx, canvasExpr(e.canvasData), &raw); err != nil {
		return model.Frame{}, fmt.Errorf("%w: read canvas: %w", entity.ErrExtract, err)
	}
	e.log.Infof("scraper: width: %d, height: %d", raw.Width, raw.Height)

	pixels, err := base64.StdEncoding.DecodeString(raw.Data)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: decode canvas data: %w", entity.ErrExtract, err)
	}
	if len(pixels) != raw.Length {
		return model.Frame{}, fmt.Errorf("%w: received %d of %d bytes", entity.ErrExtract, len(pixels), raw.Length)
	}
	e.log.Infof("scraper: length: %d", len(pixels))

	frame := model.Frame{Width: raw.Width, Height: raw.Height, Pixels: pixels}
	if err := frame.Validate(); err != nil {
		return model.Frame{}, fmt.Errorf("%w: %w", entity.ErrExtract, err)
	}
	return frame, nil
}
