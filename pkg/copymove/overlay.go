package copymove

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	overlayTargetWidth = 800
	overlaySummaryH    = 40
	overlayPointRadius = 4
)

var segmentColor = color.RGBA{0, 255, 255, 255}

// RenderOverlay draws the detection result over img and writes it as a JPEG
// file: side-1 points coloured by cluster and a segment to each paired
// side-2 point.
func RenderOverlay(img image.Image, result *DetectorResult, outputPath string) error {
	out, err := renderOverlayImage(img, result)
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create overlay file: %w", err)
	}
	defer f.Close()

	return jpeg.Encode(f, out, &jpeg.Options{Quality: 90})
}

// RenderOverlayBytes is RenderOverlay returning the JPEG bytes.
func RenderOverlayBytes(img image.Image, result *DetectorResult) ([]byte, error) {
	out, err := renderOverlayImage(img, result)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderOverlayImage(img image.Image, result *DetectorResult) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("no background image")
	}
	if result == nil {
		return nil, fmt.Errorf("no detection result")
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("empty background image")
	}

	// Render at reduced resolution (800px wide, proportional height)
	scale := float64(overlayTargetWidth) / float64(bounds.Dx())
	scaled := resize.Resize(overlayTargetWidth, 0, img, resize.Bilinear)
	imgW := scaled.Bounds().Dx()
	imgH := scaled.Bounds().Dy()

	out := image.NewRGBA(image.Rect(0, 0, imgW, imgH+overlaySummaryH))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, imgW, imgH), scaled, scaled.Bounds().Min, draw.Src)

	toPixel := func(p Point2d) (int, int) {
		return int((p.X - float64(bounds.Min.X)) * scale), int((p.Y - float64(bounds.Min.Y)) * scale)
	}

	for i := range result.Points1 {
		x1, y1 := toPixel(result.Points1[i])
		x2, y2 := toPixel(result.Points2[i])
		drawLine(out, x1, y1, x2, y2, segmentColor)
	}

	palette := clusterPalette(result.SideLabels())
	for i, label := range result.SideLabels() {
		x, y := toPixel(result.Points1[i])
		fillCircle(out, x, y, overlayPointRadius, palette[label])
	}

	face := basicfont.Face7x13
	summaryColor := color.RGBA{220, 220, 220, 255}
	summary := "No tampering was found"
	if result.Tampered {
		summary = fmt.Sprintf("Tampering detected: %d pairs, %d regions", len(result.Points1), len(result.Regions))
	}
	drawText(out, face, summary, 10, imgH+25, summaryColor)

	return out, nil
}

// clusterPalette assigns evenly spaced hues to the distinct labels.
func clusterPalette(labels []int) map[int]color.RGBA {
	distinct := distinctLabels(labels)
	palette := make(map[int]color.RGBA, len(distinct))
	for i, l := range distinct {
		hue := 360.0 * float64(i) / float64(len(distinct))
		r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
		palette[l] = color.RGBA{r, g, b, 255}
	}
	return palette
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// fillCircle draws a filled disc.
func fillCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
