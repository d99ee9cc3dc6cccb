// Package uploads writes raw user files to cloud object storage. An upload
// only places bytes in the bucket; the backend processing functions pick the
// object up out of band and the resulting document record arrives through
// the snapshot stream, never through the upload response.
package uploads

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/pcubed/gradeboard/internal/models"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// MaxFileSize caps a single upload at 20MB.
const MaxFileSize = 20 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Store writes uploads into a single bucket, keyed by owner and type.
type Store struct {
	client *storage.Client
	bucket string
	log    logger.Logger
}

func NewStore(client *storage.Client, bucket string, log logger.Logger) *Store {
	return &Store{client: client, bucket: bucket, log: log}
}

// Validate rejects files the processing functions cannot handle before any
// bytes move.
func Validate(filename string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("file exceeds maximum size of %d bytes", int64(MaxFileSize))
	}
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file type %q", ext)
	}
	return nil
}

// copyLimited copies at most limit bytes and errors when src holds more. A
// multipart header size is caller-supplied, so the stream itself is the
// authority on length.
func copyLimited(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, fmt.Errorf("file exceeds maximum size of %d bytes", limit)
	}
	return n, nil
}

// Put streams one file to users/{userID}/uploads/{documentType}/{filename}
// and returns the object name. The owner id lives in the object path, same
// as in the document store.
func (s *Store) Put(ctx context.Context, userID string, docType models.DocumentType, filename string, r io.Reader) (string, error) {
	object := fmt.Sprintf("users/%s/uploads/%s/%s", userID, docType, path.Base(filename))

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if _, err := copyLimited(w, r, MaxFileSize); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", object, err)
	}

	s.log.Info("file uploaded",
		logger.String("object", object),
		logger.String("documentType", string(docType)),
	)
	return object, nil
}
