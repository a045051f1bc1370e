package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/vladimiradmaev/food-lens/internal/domain"
)

const validResponse = `{
  "food_name": "Margherita Pizza",
  "nutrition": {
    "calories": "450 kcal",
    "protein": "18 g",
    "carbs": "52 g",
    "fat": "17 g",
    "fiber": "3 g",
    "vitamins": "A, C",
    "minerals": "calcium"
  },
  "healthiness": "unhealthy",
  "reasoning": "Refined flour and cheese.",
  "recommendations": [
    {"name": "Veggie flatbread", "calories": "320 kcal", "description": "Less cheese"}
  ]
}`

// stubModel replays scripted replies, one per call. The last reply repeats.
type stubModel struct {
	mu      sync.Mutex
	replies []stubReply
	calls   int
}

type stubReply struct {
	text string
	err  error
	// block makes the call wait for ctx to end
	block bool
}

func (m *stubModel) GenerateFromImage(ctx context.Context, img *domain.DecodedImage, prompt string) (string, error) {
	m.mu.Lock()
	i := m.calls
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	reply := m.replies[i]
	m.calls++
	m.mu.Unlock()

	if reply.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply.text, reply.err
}

func (m *stubModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func replying(text string) *stubModel {
	return &stubModel{replies: []stubReply{{text: text}}}
}

func failing(err error) *stubModel {
	return &stubModel{replies: []stubReply{{err: err}}}
}

var errModelDown = errors.New("model down")

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func testGIF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// testWebP is a 1x1 lossless WebP; the standard library has no WebP encoder
func testWebP(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString("UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA==")
	if err != nil {
		t.Fatalf("failed to decode webp fixture: %v", err)
	}
	return data
}

func testDecoded(t *testing.T) *domain.DecodedImage {
	t.Helper()
	img, err := DecodeImage(&domain.UploadedImage{Filename: "meal.png", Data: testPNG(t)})
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	return img
}
