package util

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/webp"

	"go-live-chatroom/internal/model"
)

type ImageFormat struct {
	MIME      string
	Extension string
	decode    func([]byte) (image.Config, error)
}

var imageFormats = []ImageFormat{
	{MIME: "image/png", Extension: ".png", decode: configOf(png.DecodeConfig)},
	{MIME: "image/jpeg", Extension: ".jpg", decode: configOf(jpeg.DecodeConfig)},
	{MIME: "image/gif", Extension: ".gif", decode: configOf(gif.DecodeConfig)},
	{MIME: "image/webp", Extension: ".webp", decode: configOf(webp.DecodeConfig)},
}

func configOf(decode func(io.Reader) (image.Config, error)) func([]byte) (image.Config, error) {
	return func(data []byte) (image.Config, error) {
		return decode(bytes.NewReader(data))
	}
}

// DecodeBase64Image accepts raw base64 or a data URL
// ("data:image/png;base64,...") and returns the decoded bytes.
func DecodeBase64Image(encoded string) ([]byte, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, model.ErrUnsupportedImage
		}
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil || len(data) == 0 {
		return nil, model.ErrUnsupportedImage
	}

	return data, nil
}

// DetectImage sniffs the content type and then parses the image header, so a
// file that only starts with the right magic bytes is still rejected.
func DetectImage(data []byte) (ImageFormat, error) {
	sniffed := http.DetectContentType(data)

	for _, format := range imageFormats {
		if format.MIME != sniffed {
			continue
		}
		cfg, err := format.decode(data)
		if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
			return ImageFormat{}, model.ErrUnsupportedImage
		}
		return format, nil
	}

	return ImageFormat{}, model.ErrUnsupportedImage
}
