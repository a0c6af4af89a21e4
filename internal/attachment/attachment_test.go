package attachment

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/zhishi/internal/apperr"
)

func TestResolve(t *testing.T) {
	atts := map[string]string{"att-1": "data:image/png;base64,AAAA"}
	content := "before ![cat](attachment:att-1) mid ![dog](attachment:att-missing) end"

	got := Resolve(content, atts)
	assert.Equal(t, "before ![cat](data:image/png;base64,AAAA) mid ![dog](attachment:att-missing) end", got)
	assert.Equal(t, content, Resolve(content, nil), "no attachments leaves content untouched")
}

func TestResolve_KeepsOrdinaryImages(t *testing.T) {
	content := "![x](https://example.com/x.png)"
	assert.Equal(t, content, Resolve(content, map[string]string{"x": "data:"}))
}

func TestRefs(t *testing.T) {
	refs := Refs("![](attachment:a) text ![b c](attachment:b)")
	require.Len(t, refs, 2)
	assert.Equal(t, Ref{Alt: "", ID: "a"}, refs[0])
	assert.Equal(t, Ref{Alt: "b c", ID: "b"}, refs[1])
}

func TestNewID_FormatAndUniqueness(t *testing.T) {
	re := regexp.MustCompile(`^att-[0-9a-z]+-[0-9a-f]{8}$`)
	seen := map[string]bool{}
	now := time.UnixMilli(1_700_000_000_000)
	for range 200 {
		id := newID(now)
		require.Regexp(t, re, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.True(t, strings.HasPrefix(NewID(), "att-"))
}

func TestReferenceAndAltText(t *testing.T) {
	assert.Equal(t, "![diagram](attachment:att-x)", Reference("diagram", "att-x"))

	assert.Equal(t, "caption", AltText("  caption \n", "photo.png"))
	assert.Equal(t, "photo", AltText("", "photo.png"))
	assert.Equal(t, "archive.tar", AltText("", "archive.tar.gz"))
	assert.Equal(t, "image", AltText("", ".png"))
	assert.Equal(t, "image", AltText("   ", ""))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncode_DownscalesLargeImage(t *testing.T) {
	res, err := Encode(pngBytes(t, 2000, 2000), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", res.MIME)
	assert.Equal(t, 1600, res.Width)
	assert.Equal(t, 1600, res.Height)
	assert.True(t, res.Reencoded)
	assert.Contains(t, []int{85, 70}, res.Quality)

	data, mime, err := DecodeDataURI(res.DataURI)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 1600, cfg.Height)
}

func TestEncode_KeepsAspectRatio(t *testing.T) {
	res, err := Encode(pngBytes(t, 400, 100), Options{MaxEdge: 200})
	require.NoError(t, err)
	assert.Equal(t, 200, res.Width)
	assert.Equal(t, 50, res.Height)
}

func TestEncode_SmallImageKeepsDimensions(t *testing.T) {
	res, err := Encode(pngBytes(t, 32, 16), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 32, res.Width)
	assert.Equal(t, 16, res.Height)
	assert.Equal(t, 85, res.Quality)
}

func TestEncode_FallsBackToLowerQuality(t *testing.T) {
	res, err := Encode(pngBytes(t, 256, 256), Options{TargetBytes: 1})
	require.NoError(t, err)
	assert.Equal(t, 70, res.Quality)
}

func TestEncode_UndecodableImageKeptVerbatim(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	res, err := Encode(svg, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, res.Reencoded)
	assert.Equal(t, "image/svg+xml", res.MIME)

	data, _, err := DecodeDataURI(res.DataURI)
	require.NoError(t, err)
	assert.Equal(t, svg, data)
}

func TestEncode_RejectsNonImages(t *testing.T) {
	_, err := Encode([]byte("just some text"), DefaultOptions())
	assert.ErrorIs(t, err, apperr.ErrUnsupportedMedia)

	_, err = Encode(nil, DefaultOptions())
	assert.ErrorIs(t, err, apperr.ErrUnsupportedMedia)
}

func TestDecodeDataURI_Errors(t *testing.T) {
	_, _, err := DecodeDataURI("https://example.com/a.png")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedMedia)

	_, _, err = DecodeDataURI("data:image/png;base64")
	assert.Error(t, err)

	_, _, err = DecodeDataURI("data:text/plain,hello")
	assert.Error(t, err)

	data, mime, err := DecodeDataURI("data:image/png;base64,aGk")
	require.NoError(t, err, "unpadded base64 is accepted")
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("hi"), data)
}

func TestSniffExtension(t *testing.T) {
	assert.Equal(t, ".png", SniffExtension(pngBytes(t, 2, 2)))
	assert.Equal(t, ".svg", SniffExtension([]byte("<svg></svg>")))
	assert.Equal(t, "", SniffExtension([]byte("plain")))
}
