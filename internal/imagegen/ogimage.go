package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lox/runsafetonight/internal/conditions"
)

var (
	fontHeadline font.Face
	fontBody     font.Face
	fontSmall    font.Face
	fontOnce     sync.Once
	fontErr      error
)

func loadFonts() {
	fontOnce.Do(func() {
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse Go Bold: %w", err)
			return
		}
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse Go Regular: %w", err)
			return
		}

		if fontHeadline, err = newFace(bold, 72); err != nil {
			fontErr = fmt.Errorf("create headline face: %w", err)
			return
		}
		if fontBody, err = newFace(regular, 40); err != nil {
			fontErr = fmt.Errorf("create body face: %w", err)
			return
		}
		if fontSmall, err = newFace(regular, 28); err != nil {
			fontErr = fmt.Errorf("create small face: %w", err)
			return
		}
	})
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// CardData is what the share card shows.
type CardData struct {
	Verdict      string
	Score        int // 1-9
	TemperatureF int
	WindMph      int
	Moon         string
	Visibility   string
	Location     string
}

// CardDataFromReport picks the card fields out of a conditions report.
func CardDataFromReport(r conditions.Report) CardData {
	return CardData{
		Verdict:      r.Verdict,
		Score:        r.VerdictScore,
		TemperatureF: r.TemperatureF,
		WindMph:      r.WindMph,
		Moon:         r.Moon.String(),
		Visibility:   r.Visibility.String(),
		Location:     r.Location,
	}
}

// Key identifies the rendered output, so a card is reused only while the
// data it shows is unchanged.
func (d CardData) Key() string {
	return fmt.Sprintf("%d|%d|%d|%s|%s|%s|%s", d.Score, d.TemperatureF, d.WindMph, d.Moon, d.Visibility, d.Location, d.Verdict)
}

// CardCache holds the last rendered card for a short period.
type CardCache struct {
	mu        sync.RWMutex
	key       string
	data      []byte
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewCardCache(ttl time.Duration) *CardCache {
	return &CardCache{ttl: ttl, now: time.Now}
}

// Get returns the cached card if it was rendered for key and has not expired.
func (c *CardCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || c.key != key || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *CardCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = key
	c.data = data
	c.expiresAt = c.now().Add(c.ttl)
}

// Open Graph image dimensions.
const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	nightTop    = color.RGBA{12, 16, 38, 255}
	nightBottom = color.RGBA{28, 24, 64, 255}
	white       = color.RGBA{255, 255, 255, 255}
	moonlight   = color.RGBA{200, 205, 225, 255}
	barTrack    = color.RGBA{255, 255, 255, 40}
)

// scoreColor runs from rose at 1 to green at 9.
func scoreColor(score int) color.RGBA {
	switch {
	case score >= 8:
		return color.RGBA{72, 199, 142, 255}
	case score >= 6:
		return color.RGBA{92, 160, 240, 255}
	case score >= 4:
		return color.RGBA{240, 190, 80, 255}
	default:
		return color.RGBA{235, 100, 130, 255}
	}
}

// RenderCard draws the card as a PNG.
func RenderCard(data CardData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	drawNightGradient(img)
	drawScoreBar(img, data.Score)
	drawCardText(img, data)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode share card: %w", err)
	}
	return buf.Bytes(), nil
}

func drawNightGradient(img *image.RGBA) {
	for y := 0; y < CardHeight; y++ {
		progress := float64(y) / float64(CardHeight)
		c := color.RGBA{
			R: lerp(nightTop.R, nightBottom.R, progress),
			G: lerp(nightTop.G, nightBottom.G, progress),
			B: lerp(nightTop.B, nightBottom.B, progress),
			A: 255,
		}
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawScoreBar draws a track with nine segments, filled up to score.
func drawScoreBar(img *image.RGBA, score int) {
	const (
		left    = 60
		top     = 230
		segW    = 110
		gap     = 10
		height  = 18
		maxSegs = 9
	)
	fill := scoreColor(score)
	for i := 0; i < maxSegs; i++ {
		c := barTrack
		if i < score {
			c = fill
		}
		x0 := left + i*(segW+gap)
		for y := top; y < top+height; y++ {
			for x := x0; x < x0+segW; x++ {
				blend(img, x, y, c)
			}
		}
	}
}

func blend(img *image.RGBA, x, y int, c color.RGBA) {
	alpha := float64(c.A) / 255
	orig := img.RGBAAt(x, y)
	orig.R = uint8(float64(orig.R)*(1-alpha) + float64(c.R)*alpha)
	orig.G = uint8(float64(orig.G)*(1-alpha) + float64(c.G)*alpha)
	orig.B = uint8(float64(orig.B)*(1-alpha) + float64(c.B)*alpha)
	img.SetRGBA(x, y, orig)
}

func drawCardText(img *image.RGBA, data CardData) {
	drawText(img, "Tonight's Run Conditions", 60, 90, moonlight, fontBody)
	drawText(img, Headline(data), 60, 190, white, fontHeadline)
	drawText(img, firstSentence(data.Verdict), 60, 330, white, fontBody)

	details := fmt.Sprintf("%d°F  ·  %d mph wind  ·  %s  ·  %s visibility", data.TemperatureF, data.WindMph, data.Moon, data.Visibility)
	drawText(img, details, 60, 420, moonlight, fontSmall)

	if data.Location != "" {
		drawText(img, data.Location, 60, 470, moonlight, fontSmall)
	}
	drawText(img, "runsafetonight.com", 60, CardHeight-50, moonlight, fontSmall)
}

// Headline is the verdict's leading word with the score, e.g. "Great · 7/9".
func Headline(data CardData) string {
	word, _, _ := strings.Cut(data.Verdict, " ")
	if word == "" {
		word = "Tonight"
	}
	return fmt.Sprintf("%s · %d/9", word, data.Score)
}

func firstSentence(s string) string {
	sentence, _, found := strings.Cut(s, ". ")
	if found {
		return sentence + "."
	}
	return s
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
