// Package imageproc downsizes reference images before transmission and
// post-processes generated images. Both operations work on raw encoded bytes
// so the rest of the pipeline never touches pixel data.
package imageproc

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"backdrop/internal/domain"
)

const (
	// DefaultMaxEdge is the safe long-edge size for model reference inputs.
	DefaultMaxEdge = 1536
	// DefaultQuality is the JPEG quality used when re-encoding references.
	DefaultQuality = 85
	// DefaultTimeout bounds a single decode/scale pass so one malformed
	// image cannot stall a whole generation.
	DefaultTimeout = 5 * time.Second

	optimizeConcurrency = 3
)

// Optimizer shrinks oversized reference images. It never fails: any decode
// error or timeout falls back to the untouched original.
type Optimizer struct {
	maxEdge int
	quality int
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOptimizer builds an optimizer. Zero values select the defaults.
func NewOptimizer(maxEdge int, logger zerolog.Logger) *Optimizer {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	return &Optimizer{
		maxEdge: maxEdge,
		quality: DefaultQuality,
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// WithTimeout overrides the per-image processing bound. Used by tests.
func (o *Optimizer) WithTimeout(d time.Duration) *Optimizer {
	clone := *o
	clone.timeout = d
	return &clone
}

// Optimize returns a copy of ref scaled so its longer edge is at most the
// configured maximum, re-encoded as JPEG. Images already within bounds are
// returned unchanged, and so is the original on any failure.
func (o *Optimizer) Optimize(ctx context.Context, ref domain.ReferenceImage) domain.ReferenceImage {
	type result struct {
		data []byte
		ok   bool
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		data, changed, err := shrink(ref.Data, o.maxEdge, o.quality)
		if err != nil {
			o.logger.Warn().Err(err).Msg("imageproc: reference optimization failed, using original")
			done <- result{ok: false}
			return
		}
		done <- result{data: data, ok: changed}
	}()

	select {
	case <-ctx.Done():
		o.logger.Warn().Msg("imageproc: reference optimization timed out, using original")
		return ref
	case res := <-done:
		if !res.ok {
			return ref
		}
		return domain.ReferenceImage{
			Data:        res.data,
			MIMEType:    "image/jpeg",
			Description: ref.Description,
		}
	}
}

// OptimizeAll optimizes a batch concurrently, preserving order. Like
// Optimize it cannot fail; it only ever substitutes originals.
func (o *Optimizer) OptimizeAll(ctx context.Context, refs []domain.ReferenceImage) []domain.ReferenceImage {
	if len(refs) == 0 {
		return nil
	}
	out := make([]domain.ReferenceImage, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(optimizeConcurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			out[i] = o.Optimize(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// shrink reports changed=false when the image already fits within maxEdge.
func shrink(data []byte, maxEdge, quality int) ([]byte, bool, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	if cfg.Width <= maxEdge && cfg.Height <= maxEdge {
		return nil, false, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}

	w, h := scaleToFit(cfg.Width, cfg.Height, maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

// scaleToFit shrinks (w, h) proportionally so the longer edge equals maxEdge.
func scaleToFit(w, h, maxEdge int) (int, int) {
	if w >= h {
		return maxEdge, maxInt(1, int(float64(h)*float64(maxEdge)/float64(w)+0.5))
	}
	return maxInt(1, int(float64(w)*float64(maxEdge)/float64(h)+0.5)), maxEdge
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// DecodeDimensions returns the pixel size of an encoded image, or (0, 0)
// when it cannot be decoded.
func DecodeDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
