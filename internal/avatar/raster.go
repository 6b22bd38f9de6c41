package avatar

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/iamvkosarev/ai-baby-bot/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	MimePNG     = "image/png"
	initialSize = 100
)

// initialFont covers Latin, Greek and Cyrillic so accented and non-ASCII names keep their initial.
var initialFont = sync.OnceValues(
	func() (*truetype.Font, error) {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TTF: %w", err)
		}
		return f, nil
	},
)

// PNG draws the same portrait as SVG for transports that only show raster images.
func PNG(name string, gender model.Gender) ([]byte, error) {
	f, err := initialFont()
	if err != nil {
		return nil, err
	}
	p := paletteFor(gender)
	dc := gg.NewContext(Size, Size)

	dc.DrawCircle(Size/2, Size/2, Size/2)
	dc.Clip()
	dc.SetColor(p.background)
	dc.DrawRectangle(0, 0, Size, Size)
	dc.Fill()

	dc.SetColor(p.skin)
	dc.DrawCircle(256, 240, 150)
	dc.Fill()

	dc.SetColor(p.ink)
	dc.SetLineWidth(10)
	dc.SetLineCapRound()
	dc.DrawArc(256, 96, 30, gg.Radians(180), gg.Radians(360))
	dc.Stroke()
	dc.DrawCircle(200, 225, 16)
	dc.DrawCircle(312, 225, 16)
	dc.Fill()

	dc.SetRGBA(float64(p.cheeks.R)/255, float64(p.cheeks.G)/255, float64(p.cheeks.B)/255, 0.7)
	dc.DrawCircle(170, 280, 22)
	dc.DrawCircle(342, 280, 22)
	dc.Fill()

	dc.SetColor(p.ink)
	dc.DrawArc(256, 290, 40, gg.Radians(20), gg.Radians(160))
	dc.Stroke()

	face := truetype.NewFace(
		f, &truetype.Options{
			Size:    initialSize,
			DPI:     72,
			Hinting: font.HintingNone,
		},
	)
	defer face.Close()
	dc.SetFontFace(face)
	dc.DrawStringAnchored(initial(name), 256, 480, 0.5, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Raster returns a displayable raster image for any stored avatar, drawing the
// fallback portrait when the avatar is missing or vector. Remote avatars are not
// fetched here; callers hand the RemoteURL to their client and use Raster when that fails.
func Raster(avatarImage, name string, gender model.Gender) (string, []byte, error) {
	if avatarImage != "" {
		mimeType, data, err := ParseDataURI(avatarImage)
		if err == nil && mimeType != MimeSVG {
			return mimeType, data, nil
		}
	}
	data, err := PNG(name, gender)
	if err != nil {
		return "", nil, err
	}
	return MimePNG, data, nil
}
