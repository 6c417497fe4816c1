package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/random"
)

// memFile adapts an in-memory buffer to multipart.File.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// pngHeader is the 8-byte PNG signature followed by filler, enough for
// content sniffing to classify it as image/png.
var pngHeader = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)

func newMediaFixture(t *testing.T) *MediaService {
	t.Helper()
	cfg := &config.Config{
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1024,
	}
	return NewMediaService(cfg, random.NewSeeded(1))
}

func upload(t *testing.T, svc *MediaService, data []byte) (string, error) {
	t.Helper()
	return svc.SaveAvatar(
		memFile{bytes.NewReader(data)},
		&multipart.FileHeader{Filename: "avatar.png", Size: int64(len(data))},
	)
}

func TestSaveAvatarStoresPNG(t *testing.T) {
	svc := newMediaFixture(t)

	url, err := upload(t, svc, pngHeader)
	if err != nil {
		t.Fatalf("SaveAvatar: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want /uploads/<hex>.png", url)
	}

	saved, err := os.ReadFile(filepath.Join(svc.cfg.UploadDir, filepath.Base(url)))
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if !bytes.Equal(saved, pngHeader) {
		t.Error("saved bytes differ from upload")
	}
}

func TestSaveAvatarRejectsNonImage(t *testing.T) {
	svc := newMediaFixture(t)

	_, err := upload(t, svc, []byte("<html><body>not an image</body></html>"))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
}

func TestSaveAvatarRejectsOversize(t *testing.T) {
	svc := newMediaFixture(t)

	_, err := upload(t, svc, make([]byte, 2048))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}
