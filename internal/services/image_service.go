package services

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/vladimiradmaev/food-lens/internal/domain"
	apperrors "github.com/vladimiradmaev/food-lens/internal/errors"
	_ "golang.org/x/image/webp"
)

// DecodeImage validates an upload and decodes it. The format is detected from
// the content; the client-supplied filename is never used for that.
func DecodeImage(upload *domain.UploadedImage) (*domain.DecodedImage, error) {
	if upload == nil || (upload.Filename == "" && len(upload.Data) == 0) {
		return nil, apperrors.NewValidationError(apperrors.CodeNoFile, "No file uploaded")
	}
	if upload.Filename == "" {
		return nil, apperrors.NewValidationError(apperrors.CodeNoFileSelected, "No file selected")
	}
	if len(upload.Data) == 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeEmptyImage, "Uploaded file is empty").
			WithContext("filename", upload.Filename)
	}

	img, format, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return nil, apperrors.NewDecodeError(err).
			WithContext("filename", upload.Filename).
			WithContext("size", len(upload.Data))
	}

	return &domain.DecodedImage{
		Image:    img,
		Format:   format,
		Raw:      upload.Data,
		Filename: upload.Filename,
	}, nil
}

// EncodeForDisplay returns the original bytes as base64 for inline embedding
func EncodeForDisplay(img *domain.DecodedImage) string {
	return base64.StdEncoding.EncodeToString(img.Raw)
}

// ModelImage returns the format and bytes to send to a vision model. The model
// APIs take JPEG, PNG and WebP but not GIF, so a GIF is sent as its first
// frame re-encoded as PNG.
func ModelImage(img *domain.DecodedImage) (string, []byte, error) {
	if img.Format != "gif" {
		return img.Format, img.Raw, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image); err != nil {
		return "", nil, apperrors.NewInternalError(err).WithContext("filename", img.Filename)
	}
	return "png", buf.Bytes(), nil
}

func modelDataURL(img *domain.DecodedImage) (string, error) {
	format, data, err := ModelImage(img)
	if err != nil {
		return "", err
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
