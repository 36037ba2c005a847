package imaging

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	appErrors "github.com/yenja7/onboarding-api/pkg/errors"
)

// Options bounds the stored image payload. Files at or below Threshold are
// kept byte-for-byte; larger ones are downscaled and re-encoded as JPEG.
type Options struct {
	Threshold    int64
	MaxDimension int
	JPEGQuality  int
}

// Result is the payload to persist after processing.
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
	Compressed  bool
}

// Process validates that the payload is an image and compresses it when it
// exceeds the size threshold.
func Process(data []byte, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty image payload")
	}

	mtype := mimetype.Detect(data)
	if !isImage(mtype) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is not an image: "+mtype.String())
	}

	if opts.Threshold <= 0 {
		opts.Threshold = 300 * 1024
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 1600
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 80
	}

	if int64(len(data)) <= opts.Threshold {
		return &Result{Data: data, ContentType: mtype.String(), Extension: mtype.Extension()}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unreadable image payload")
	}

	img = shrink(img, opts.MaxDimension)

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: opts.JPEGQuality}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode compressed image")
	}

	// Re-encoding a small but high-entropy original can grow it; keep
	// whichever payload is smaller.
	if buf.Len() >= len(data) {
		return &Result{Data: data, ContentType: mtype.String(), Extension: mtype.Extension()}, nil
	}

	return &Result{Data: buf.Bytes(), ContentType: "image/jpeg", Extension: ".jpg", Compressed: true}, nil
}

func isImage(mtype *mimetype.MIME) bool {
	for _, allowed := range []string{"image/jpeg", "image/png", "image/gif", "image/webp"} {
		if mtype.Is(allowed) {
			return true
		}
	}
	return false
}

// shrink scales the image down so neither side exceeds max, preserving the
// aspect ratio. Images already within bounds pass through untouched.
func shrink(img image.Image, max int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= max && h <= max {
		return img
	}

	var newW, newH int
	if w >= h {
		newW = max
		newH = h * max / w
	} else {
		newH = max
		newW = w * max / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
