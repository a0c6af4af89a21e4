package attachment

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/starford/zhishi/internal/apperr"
)

// Options control image re-encoding.
type Options struct {
	MaxEdge         int // longest edge after scaling, in pixels
	TargetBytes     int // re-encode at FallbackQuality when the first pass exceeds this
	Quality         int
	FallbackQuality int
}

// DefaultOptions returns the stock limits: 1600px edge, 700 KiB, q85 then q70.
func DefaultOptions() Options {
	return Options{MaxEdge: 1600, TargetBytes: 700 << 10, Quality: 85, FallbackQuality: 70}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxEdge <= 0 {
		o.MaxEdge = d.MaxEdge
	}
	if o.TargetBytes <= 0 {
		o.TargetBytes = d.TargetBytes
	}
	if o.Quality <= 0 {
		o.Quality = d.Quality
	}
	if o.FallbackQuality <= 0 {
		o.FallbackQuality = d.FallbackQuality
	}
	return o
}

// Encoded is the outcome of Encode.
type Encoded struct {
	DataURI   string `json:"-"`
	MIME      string `json:"mime"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Quality   int    `json:"quality,omitempty"`
	Size      int    `json:"size"`
	Reencoded bool   `json:"reencoded"`
}

// Encode downsizes and re-encodes an image as JPEG. The longest edge is
// scaled to at most MaxEdge keeping the aspect ratio. Input that cannot be
// decoded is embedded unchanged as long as it sniffs as an image.
func Encode(data []byte, opts Options) (Encoded, error) {
	if len(data) == 0 {
		return Encoded{}, fmt.Errorf("attachment: empty image: %w", apperr.ErrUnsupportedMedia)
	}
	opts = opts.withDefaults()

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		mime := SniffMIME(data)
		if !isImageMIME(mime) {
			return Encoded{}, fmt.Errorf("attachment: %s: %w", mime, apperr.ErrUnsupportedMedia)
		}
		return Encoded{DataURI: DataURI(mime, data), MIME: mime, Size: len(data)}, nil
	}

	b := src.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), opts.MaxEdge)

	// JPEG has no alpha; transparent pixels land on white.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	quality := opts.Quality
	out, err := encodeJPEG(dst, quality)
	if err != nil {
		return Encoded{}, err
	}
	if len(out) > opts.TargetBytes {
		quality = opts.FallbackQuality
		if out, err = encodeJPEG(dst, quality); err != nil {
			return Encoded{}, err
		}
	}
	return Encoded{
		DataURI:   DataURI("image/jpeg", out),
		MIME:      "image/jpeg",
		Width:     w,
		Height:    h,
		Quality:   quality,
		Size:      len(out),
		Reencoded: true,
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("attachment: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func scaledSize(w, h, maxEdge int) (int, int) {
	longest := max(w, h)
	if longest <= maxEdge || longest == 0 {
		return w, h
	}
	scale := float64(maxEdge) / float64(longest)
	sw := max(1, int(float64(w)*scale+0.5))
	sh := max(1, int(float64(h)*scale+0.5))
	return sw, sh
}
