package web

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	"github.com/teslashibe/go-fiducial/pkg/debug"
)

// EncodePreview downscales src to at most width pixels wide, keeping the
// aspect ratio, and encodes it as JPEG. Images already narrow enough are
// not resized.
func EncodePreview(src image.Image, width, quality int) ([]byte, error) {
	b := src.Bounds()
	if width > 0 && b.Dx() > width {
		height := b.Dy() * width / b.Dx()
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// PublishFrame encodes frame and sends it to preview clients. Frames are
// skipped when nobody is watching or the last one went out less than
// PreviewInterval ago. It reports whether a frame was sent.
func (s *Server) PublishFrame(frame gocv.Mat) bool {
	if frame.Empty() || s.frameHub.ClientCount() == 0 {
		return false
	}

	s.previewMu.Lock()
	now := time.Now()
	if now.Sub(s.lastPreview) < s.config.PreviewInterval {
		s.previewMu.Unlock()
		return false
	}
	s.lastPreview = now
	s.previewMu.Unlock()

	img, err := frame.ToImage()
	if err != nil {
		debug.Log("⚠️  preview conversion failed: %v\n", err)
		return false
	}

	data, err := EncodePreview(img, s.config.PreviewWidth, s.config.PreviewQuality)
	if err != nil {
		debug.Log("⚠️  %v\n", err)
		return false
	}

	s.PublishJPEG(data)
	return true
}
