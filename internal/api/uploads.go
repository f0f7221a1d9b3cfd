package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zafiri/cms-core/internal/content"
)

// storeUploads writes staged multipart files under the uploads directory and
// returns served URLs keyed by field name. Files live at
// {uploads.Dir}/{collection}/{random}{ext} and are served at /media/....
func (s *Server) storeUploads(col content.Collection, uploads map[string]*multipart.FileHeader) (map[string]string, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	dir := filepath.Join(s.uploads.Dir, col.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	urls := make(map[string]string, len(uploads))
	for field, header := range uploads {
		name := uuid.NewString()[:12] + sanitizeExt(header.Filename)
		if err := writeUpload(header, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
		urls[field] = "/media/" + col.Name + "/" + name
	}

	return urls, nil
}

func writeUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close() //nolint:errcheck // read-only handle

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating upload file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("writing upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing upload file: %w", err)
	}
	return nil
}

// sanitizeExt returns a safe lowercase file extension, or empty when the
// original name carries none. Uploaded names are untrusted input.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, c := range ext[1:] {
		if !isAlnum(c) {
			return ""
		}
	}
	return ext
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
