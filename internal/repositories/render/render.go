package render

import (
	"context"
	"errors"
	"time"

	"github.com/reelcraft/newsreel/internal/domain"
)

type Render struct {
	ID         int
	Slug       string
	Headline   string
	SourceURL  string
	OutputPath string
	Width      int
	Height     int
	SlideCount int
	CreatedAt  time.Time
}

var ErrNotFound = errors.New("render not found")
var ErrCannotCreate = errors.New("error create render")
var ErrAlreadyExists = errors.New("render already exists")

//go:generate go run go.uber.org/mock/mockgen -source=render.go -destination=mocks/mock.go

type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Render, error)
	Create(ctx context.Context, render domain.Render) error
	List(ctx context.Context, limit int) ([]*domain.Render, error)
	CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error)
}
