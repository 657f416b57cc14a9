package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/madr-project/apiserver/internal/storage"
)

// ErrNoCoverStorage is returned when no object-storage backend is
// configured for cover images.
var ErrNoCoverStorage = errors.New("cover storage not configured")

// CoverService stores book cover images in the configured object store,
// one object per book.
type CoverService struct {
	storage *storage.Storage
}

func NewCoverService(store *storage.Storage) *CoverService {
	return &CoverService{storage: store}
}

// Upload stores the cover image for a book, replacing any previous one.
func (s *CoverService) Upload(ctx context.Context, bookID int, r io.Reader, size int64, contentType string) error {
	if s.storage == nil {
		return ErrNoCoverStorage
	}
	return s.storage.Put(ctx, coverKey(bookID), r, size, contentType)
}

// Download opens a reader for a book's cover image.
func (s *CoverService) Download(ctx context.Context, bookID int) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrNoCoverStorage
	}
	return s.storage.Get(ctx, coverKey(bookID))
}

// Remove deletes a book's cover image. Missing storage or a missing
// object is not an error: deleting a book must succeed with or without a
// cover.
func (s *CoverService) Remove(ctx context.Context, bookID int) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Delete(ctx, coverKey(bookID))
}

func coverKey(bookID int) string {
	return fmt.Sprintf("covers/%d", bookID)
}
