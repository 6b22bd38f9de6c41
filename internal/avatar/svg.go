package avatar

import (
	"encoding/base64"
	"fmt"
	"html"
	"image/color"
	"strings"

	"github.com/iamvkosarev/ai-baby-bot/internal/model"
)

const MimeSVG = "image/svg+xml"

// SVG renders the vector fallback portrait.
func SVG(name string, gender model.Gender) string {
	p := paletteFor(gender)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`, Size, Size, Size, Size)
	fmt.Fprintf(&b, `<title>%s</title>`, html.EscapeString(name))
	fmt.Fprintf(&b, `<circle cx="256" cy="256" r="256" fill="%s"/>`, hex(p.background))
	fmt.Fprintf(&b, `<circle cx="256" cy="240" r="150" fill="%s"/>`, hex(p.skin))
	fmt.Fprintf(&b, `<path d="M226 96 q30 -40 60 0" stroke="%s" stroke-width="10" fill="none" stroke-linecap="round"/>`, hex(p.ink))
	fmt.Fprintf(&b, `<circle cx="200" cy="225" r="16" fill="%s"/>`, hex(p.ink))
	fmt.Fprintf(&b, `<circle cx="312" cy="225" r="16" fill="%s"/>`, hex(p.ink))
	fmt.Fprintf(&b, `<circle cx="170" cy="280" r="22" fill="%s" opacity="0.7"/>`, hex(p.cheeks))
	fmt.Fprintf(&b, `<circle cx="342" cy="280" r="22" fill="%s" opacity="0.7"/>`, hex(p.cheeks))
	fmt.Fprintf(&b, `<path d="M216 300 q40 40 80 0" stroke="%s" stroke-width="10" fill="none" stroke-linecap="round"/>`, hex(p.ink))
	fmt.Fprintf(
		&b,
		`<text x="256" y="470" font-family="sans-serif" font-size="72" font-weight="bold" text-anchor="middle" fill="%s">%s</text>`,
		hex(p.ink), html.EscapeString(initial(name)),
	)
	b.WriteString(`</svg>`)
	return b.String()
}

// SVGDataURI is the form stored on the pet record.
func SVGDataURI(name string, gender model.Gender) string {
	return DataURI(MimeSVG, []byte(SVG(name, gender)))
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func DataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
