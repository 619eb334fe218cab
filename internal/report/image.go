package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"golang.org/x/sync/singleflight"

	"dbudget/internal/log"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrCaptureFailed  = errors.New("capture failed")
)

// Region is something on screen that can be rasterised.
type Region interface {
	Capture() (image.Image, error)
}

// Surface resolves region names.
type Surface interface {
	Region(name string) (Region, bool)
}

// ImageExporter captures named regions of a Surface as PNG.
type ImageExporter struct {
	surface Surface
	logger  *log.Logger
	now     func() time.Time
	group   singleflight.Group
}

func NewImageExporter(surface Surface, logger *log.Logger) *ImageExporter {
	if logger == nil {
		logger = log.Nop()
	}
	return &ImageExporter{
		surface: surface,
		logger:  logger.WithComponent(log.ComponentReport),
		now:     time.Now,
	}
}

// Export captures region name. The capture runs in the background; when ctx
// ends first Export returns ctx.Err() and the result is dropped. Callers
// asking for a region that is already being captured share that capture.
func (x *ImageExporter) Export(ctx context.Context, name string) (Artifact, error) {
	region, ok := x.surface.Region(name)
	if !ok {
		x.logger.WarnContext(ctx, "Export of unknown region",
			log.FieldOperation, log.OpCapture, log.FieldRegion, name)
		return Artifact{}, fmt.Errorf("%w: %s", ErrRegionNotFound, name)
	}

	ch := x.group.DoChan(name, func() (any, error) {
		return capturePNG(region)
	})

	select {
	case <-ctx.Done():
		x.logger.DebugContext(ctx, "Capture abandoned",
			log.FieldOperation, log.OpCapture, log.FieldRegion, name)
		return Artifact{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			x.logger.ErrorContext(ctx, "Capture failed",
				log.FieldOperation, log.OpCapture, log.FieldRegion, name, log.FieldError, res.Err)
			return Artifact{}, res.Err
		}
		data := bytes.Clone(res.Val.([]byte))
		x.logger.InfoContext(ctx, "Region captured",
			log.FieldOperation, log.OpCapture, log.FieldRegion, name, log.FieldBytes, len(data))
		return Artifact{
			Name:        imageName(name, x.now()),
			ContentType: ContentTypePNG,
			Data:        data,
		}, nil
	}
}

func capturePNG(region Region) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrCaptureFailed, r)
		}
	}()
	img, err := region.Capture()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: empty image", ErrCaptureFailed)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrCaptureFailed, err)
	}
	return buf.Bytes(), nil
}
