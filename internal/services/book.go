package services

import (
	"context"

	"github.com/madr-project/apiserver/internal/mq"
	"github.com/madr-project/apiserver/internal/sanitize"
	"github.com/madr-project/apiserver/internal/store"
	"github.com/madr-project/apiserver/types"
)

// BookRepository defines persistence operations for books.
type BookRepository interface {
	List(ctx context.Context, filter store.BookFilter, offset, limit int) ([]types.Book, int, error)
	Get(ctx context.Context, id int) (types.Book, error)
	Create(ctx context.Context, book types.Book) (types.Book, error)
	Update(ctx context.Context, book types.Book) (types.Book, error)
	Delete(ctx context.Context, id int) error
}

// BookPatch carries a partial book update; nil fields are left unchanged.
type BookPatch struct {
	Title      *string
	Year       *int
	NovelistID *int
}

// BookService encapsulates book use-cases.
type BookService struct {
	repo      BookRepository
	novelists NovelistRepository
	events    *mq.Bus
}

func NewBookService(repo BookRepository, novelists NovelistRepository, events *mq.Bus) *BookService {
	return &BookService{repo: repo, novelists: novelists, events: events}
}

func (s *BookService) List(ctx context.Context, filter store.BookFilter, offset, limit int) ([]types.Book, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	filter.Title = sanitize.String(filter.Title)
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *BookService) Get(ctx context.Context, id int) (types.Book, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a book under an existing novelist. The referenced novelist
// must exist; a missing one surfaces as store.ErrNotFound before the
// insert is attempted.
func (s *BookService) Create(ctx context.Context, title string, year, novelistID int) (types.Book, error) {
	if _, err := s.novelists.Get(ctx, novelistID); err != nil {
		return types.Book{}, err
	}

	book, err := s.repo.Create(ctx, types.Book{
		Title:      sanitize.String(title),
		Year:       year,
		NovelistID: novelistID,
	})
	if err != nil {
		return types.Book{}, err
	}
	publishEvent(ctx, s.events, "book.created", "book", book.ID)
	return book, nil
}

// Update applies a partial patch to a book.
func (s *BookService) Update(ctx context.Context, id int, patch BookPatch) (types.Book, error) {
	book, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Book{}, err
	}

	if patch.Title != nil {
		book.Title = sanitize.String(*patch.Title)
	}
	if patch.Year != nil {
		book.Year = *patch.Year
	}
	if patch.NovelistID != nil {
		if _, err := s.novelists.Get(ctx, *patch.NovelistID); err != nil {
			return types.Book{}, err
		}
		book.NovelistID = *patch.NovelistID
	}

	updated, err := s.repo.Update(ctx, book)
	if err != nil {
		return types.Book{}, err
	}
	publishEvent(ctx, s.events, "book.updated", "book", updated.ID)
	return updated, nil
}

func (s *BookService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, s.events, "book.deleted", "book", id)
	return nil
}
