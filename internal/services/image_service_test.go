package services

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"
	"testing"

	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
)

func TestDecodeImage(t *testing.T) {
	pngData := testPNG(t)

	tests := []struct {
		name       string
		upload     *domain.UploadedImage
		wantCode   string
		wantFormat string
		wantWidth  int
	}{
		{name: "nil upload", upload: nil, wantCode: apperrors.CodeNoFile},
		{name: "empty upload", upload: &domain.UploadedImage{}, wantCode: apperrors.CodeNoFile},
		{name: "empty filename", upload: &domain.UploadedImage{Data: pngData}, wantCode: apperrors.CodeNoFileSelected},
		{name: "no bytes", upload: &domain.UploadedImage{Filename: "meal.png"}, wantCode: apperrors.CodeEmptyImage},
		{name: "not an image", upload: &domain.UploadedImage{Filename: "meal.png", Data: []byte("hello")}, wantCode: apperrors.CodeDecodeFailed},
		{name: "truncated png", upload: &domain.UploadedImage{Filename: "meal.png", Data: pngData[:20]}, wantCode: apperrors.CodeDecodeFailed},
		{name: "png", upload: &domain.UploadedImage{Filename: "meal.png", Data: pngData}, wantFormat: "png", wantWidth: 4},
		{name: "jpeg", upload: &domain.UploadedImage{Filename: "meal.jpg", Data: testJPEG(t)}, wantFormat: "jpeg", wantWidth: 4},
		{name: "gif", upload: &domain.UploadedImage{Filename: "meal.gif", Data: testGIF(t)}, wantFormat: "gif", wantWidth: 4},
		{name: "webp", upload: &domain.UploadedImage{Filename: "meal.webp", Data: testWebP(t)}, wantFormat: "webp", wantWidth: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImage(tt.upload)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("DecodeImage() error = %v, want code %s", err, tt.wantCode)
				}
				if img != nil {
					t.Error("expected nil image on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeImage() unexpected error = %v", err)
			}
			if img.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", img.Format, tt.wantFormat)
			}
			if img.MIMEType() != "image/"+tt.wantFormat {
				t.Errorf("MIMEType() = %q", img.MIMEType())
			}
			if img.Image.Bounds().Dx() != tt.wantWidth {
				t.Errorf("width = %d, want %d", img.Image.Bounds().Dx(), tt.wantWidth)
			}
		})
	}
}

func TestModelImage(t *testing.T) {
	for _, tt := range []struct {
		name       string
		data       []byte
		wantFormat string
	}{
		{name: "png is sent as is", data: testPNG(t), wantFormat: "png"},
		{name: "jpeg is sent as is", data: testJPEG(t), wantFormat: "jpeg"},
		{name: "gif becomes png", data: testGIF(t), wantFormat: "png"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImage(&domain.UploadedImage{Filename: "meal", Data: tt.data})
			if err != nil {
				t.Fatalf("DecodeImage() error = %v", err)
			}
			format, data, err := ModelImage(img)
			if err != nil {
				t.Fatalf("ModelImage() error = %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("format = %q, want %q", format, tt.wantFormat)
			}
			if format == img.Format && !bytes.Equal(data, img.Raw) {
				t.Error("supported formats must be sent unchanged")
			}
			decoded, detected, err := image.Decode(bytes.NewReader(data))
			if err != nil || detected != tt.wantFormat {
				t.Fatalf("model bytes decode as %q, err = %v", detected, err)
			}
			if decoded.Bounds().Dx() != 4 {
				t.Errorf("width = %d, want 4", decoded.Bounds().Dx())
			}
		})
	}
}

func TestDecodeImageIgnoresExtension(t *testing.T) {
	img, err := DecodeImage(&domain.UploadedImage{Filename: "meal.jpg", Data: testPNG(t)})
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if img.MIMEType() != "image/png" {
		t.Errorf("MIMEType() = %q, want image/png", img.MIMEType())
	}
}

func TestEncodeForDisplayRoundTrip(t *testing.T) {
	img := testDecoded(t)

	decoded, err := base64.StdEncoding.DecodeString(EncodeForDisplay(img))
	if err != nil {
		t.Fatalf("not valid base64: %v", err)
	}
	if string(decoded) != string(img.Raw) {
		t.Error("base64 round trip changed the image bytes")
	}

	url, err := modelDataURL(img)
	if err != nil {
		t.Fatalf("modelDataURL() error = %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("modelDataURL() = %q", url[:30])
	}
}
