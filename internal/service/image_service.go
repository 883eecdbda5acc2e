package service

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/util"
	"go-live-chatroom/pkg/apierror"
)

type BlobStore interface {
	WriteFile(name string, data []byte) error
	Remove(name string) error
}

// ImageService stores base64 encoded avatars and attachments and hands back
// their public URL.
type ImageService struct {
	blobs     BlobStore
	publicURL string
	maxBytes  int64
}

func NewImageService(blobs BlobStore, publicURL string, maxBytes int64) *ImageService {
	return &ImageService{
		blobs:     blobs,
		publicURL: strings.TrimRight(publicURL, "/") + "/images/",
		maxBytes:  maxBytes,
	}
}

func (s *ImageService) Save(encoded string) (string, error) {
	// Four base64 characters carry three bytes; reject before decoding.
	if int64(len(encoded)) > s.maxBytes/3*4+256 {
		return "", imageError(model.ErrImageTooLarge)
	}

	data, err := util.DecodeBase64Image(encoded)
	if err != nil {
		return "", imageError(err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", imageError(model.ErrImageTooLarge)
	}

	format, err := util.DetectImage(data)
	if err != nil {
		return "", imageError(err)
	}

	name := uuid.NewString() + format.Extension
	if err := s.blobs.WriteFile(name, data); err != nil {
		return "", err
	}

	slog.Debug("image stored", "name", name, "mime", format.MIME, "bytes", len(data))
	return s.publicURL + name, nil
}

// Discard removes an image previously returned by Save. URLs this service
// did not mint are ignored.
func (s *ImageService) Discard(url string) {
	name, ok := strings.CutPrefix(url, s.publicURL)
	if !ok || name == "" {
		return
	}

	if err := s.blobs.Remove(name); err != nil {
		slog.Warn("failed to discard image", "name", name, "error", err)
	}
}

func imageError(err error) error {
	if errors.Is(err, model.ErrImageTooLarge) {
		return apierror.InvalidInput("image too large", err.Error())
	}
	return apierror.InvalidInput("unsupported attachment type", "expected png, jpeg, gif or webp")
}
