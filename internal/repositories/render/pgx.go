package render

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reelcraft/newsreel/internal/domain"
	"github.com/reelcraft/newsreel/internal/repositories"
)

const uniqueViolationCode = "23505"

func NewPgx(pg *pgxpool.Pool) *Pgx {
	return &Pgx{
		pg: pg,
	}
}

var _ Repository = (*Pgx)(nil)

type Pgx struct {
	pg *pgxpool.Pool
}

func (p *Pgx) GetBySlug(ctx context.Context, slug string) (*domain.Render, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "slug", "headline", "source_url", "output_path", "width", "height", "slide_count", "created_at").
		From("renders").
		Where(
			sq.Eq{"slug": slug},
		).ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	render := Render{}
	err = p.pg.QueryRow(ctx, query, args...).Scan(
		&render.ID,
		&render.Slug,
		&render.Headline,
		&render.SourceURL,
		&render.OutputPath,
		&render.Width,
		&render.Height,
		&render.SlideCount,
		&render.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &domain.Render{
		ID:         render.ID,
		Slug:       render.Slug,
		Headline:   render.Headline,
		SourceURL:  render.SourceURL,
		OutputPath: render.OutputPath,
		Width:      render.Width,
		Height:     render.Height,
		SlideCount: render.SlideCount,
		CreatedAt:  render.CreatedAt,
	}, nil
}

func (p *Pgx) Create(ctx context.Context, render domain.Render) error {
	query, args, err := repositories.SqBuilder.
		Insert("renders").
		Columns(
			"slug",
			"headline",
			"source_url",
			"output_path",
			"width",
			"height",
			"slide_count",
			"created_at",
		).Values(
		render.Slug,
		render.Headline,
		render.SourceURL,
		render.OutputPath,
		render.Width,
		render.Height,
		render.SlideCount,
		render.CreatedAt,
	).ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrAlreadyExists
		}
		return errors.Join(err, ErrCannotCreate)
	}

	return nil
}

func (p *Pgx) List(ctx context.Context, limit int) ([]*domain.Render, error) {
	builder := repositories.SqBuilder.
		Select("id", "slug", "headline", "source_url", "output_path", "width", "height", "slide_count", "created_at").
		From("renders").
		OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renders []*domain.Render
	for rows.Next() {
		render := Render{}
		err := rows.Scan(
			&render.ID,
			&render.Slug,
			&render.Headline,
			&render.SourceURL,
			&render.OutputPath,
			&render.Width,
			&render.Height,
			&render.SlideCount,
			&render.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		renders = append(renders, &domain.Render{
			ID:         render.ID,
			Slug:       render.Slug,
			Headline:   render.Headline,
			SourceURL:  render.SourceURL,
			OutputPath: render.OutputPath,
			Width:      render.Width,
			Height:     render.Height,
			SlideCount: render.SlideCount,
			CreatedAt:  render.CreatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return renders, nil
}

func (p *Pgx) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Delete("renders").
		Where(
			sq.Lt{"created_at": time.Now().Add(-olderThan)},
		).ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	tag, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
