package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/random"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed avatar MIME types. Validation is content-based, not
// extension-based: the sniffed type decides.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// MediaService stores avatar uploads for users and courses.
type MediaService struct {
	cfg *config.Config
	rng random.Source
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, rng random.Source) *MediaService {
	return &MediaService{cfg: cfg, rng: rng}
}

// SaveAvatar validates and stores an uploaded avatar under a random hex
// filename. Returns the relative URL path to the saved file.
func (s *MediaService) SaveAvatar(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	// Sniff the real content type from the first bytes; the declared
	// Content-Type header is attacker-controlled.
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: image/png, image/jpeg)", ErrUnsupportedFileType, contentType)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := s.rng.Hex(20) + ext
	destPath := filepath.Join(s.cfg.UploadDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return "/uploads/" + filename, nil
}
