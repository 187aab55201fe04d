// AngelaMos | 2026
// local.go

// Package storage persists uploaded images on the local filesystem and
// serves them back through a public URL prefix.
package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotImage     = errors.New("file is not an image")
	ErrFileTooLarge = errors.New("file too large")
	ErrOutsideStore = errors.New("path is outside the upload directory")
)

const randAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// allowedTypes maps sniffed content types to the extension files are
// stored with. SVG is excluded.
var allowedTypes = map[string]string{
	"image/jpeg":   ".jpg",
	"image/png":    ".png",
	"image/gif":    ".gif",
	"image/webp":   ".webp",
	"image/bmp":    ".bmp",
	"image/x-icon": ".ico",
}

type Local struct {
	dir      string
	prefix   string
	maxBytes int64
	now      func() time.Time
}

func NewLocal(dir, publicPrefix string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}

	return &Local{
		dir:      dir,
		prefix:   "/" + strings.Trim(publicPrefix, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) PublicPrefix() string {
	return l.prefix
}

// SaveImage stores fh under a generated <unix-ms>-<rand6><ext> name and
// returns its public path.
func (l *Local) SaveImage(fh *multipart.FileHeader) (string, error) {
	name, err := l.generatedName(fh)
	if err != nil {
		return "", err
	}
	return l.save(fh, name)
}

// SaveLogo stores fh as logo-<unix-ms><ext>.
func (l *Local) SaveLogo(fh *multipart.FileHeader) (string, error) {
	ext, err := l.extension(fh)
	if err != nil {
		return "", err
	}
	return l.save(fh, fmt.Sprintf("logo-%d%s", l.now().UnixMilli(), ext))
}

// SaveImages stores all files or none. Files written before a failure are
// removed.
func (l *Local) SaveImages(files []*multipart.FileHeader) ([]string, error) {
	saved := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := l.SaveImage(fh)
		if err != nil {
			l.DeleteAll(saved)
			return nil, err
		}
		saved = append(saved, p)
	}
	return saved, nil
}

// Delete removes the file behind a public path. Missing files and paths
// that do not belong to this store are ignored.
func (l *Local) Delete(publicPath string) error {
	full, err := l.resolve(publicPath)
	if err != nil {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (l *Local) DeleteAll(publicPaths []string) {
	for _, p := range publicPaths {
		_ = l.Delete(p)
	}
}

func (l *Local) save(fh *multipart.FileHeader, name string) (string, error) {
	if l.maxBytes > 0 && fh.Size > l.maxBytes {
		return "", ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	full := filepath.Join(l.dir, name)
	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("close upload: %w", err)
	}

	return path.Join(l.prefix, name), nil
}

func (l *Local) generatedName(fh *multipart.FileHeader) (string, error) {
	ext, err := l.extension(fh)
	if err != nil {
		return "", err
	}
	suffix, err := randomSuffix(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s%s", l.now().UnixMilli(), suffix, ext), nil
}

// extension sniffs the stored bytes. The declared Content-Type and the
// client filename are ignored.
func (l *Local) extension(fh *multipart.FileHeader) (string, error) {
	detected := strings.ToLower(strings.TrimSpace(strings.SplitN(sniff(fh), ";", 2)[0]))

	ext, ok := allowedTypes[detected]
	if !ok {
		return "", ErrNotImage
	}
	return ext, nil
}

func (l *Local) resolve(publicPath string) (string, error) {
	if !strings.HasPrefix(publicPath, l.prefix+"/") {
		return "", ErrOutsideStore
	}
	name := strings.TrimPrefix(publicPath, l.prefix+"/")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrOutsideStore
	}
	return filepath.Join(l.dir, name), nil
}

func sniff(fh *multipart.FileHeader) string {
	f, err := fh.Open()
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, _ := io.ReadFull(f, buf)
	return http.DetectContentType(buf[:n])
}

func randomSuffix(n int) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(randAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("random suffix: %w", err)
		}
		out[i] = randAlphabet[idx.Int64()]
	}
	return string(out), nil
}
