package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/wildgarden/internal/domain/notice"
)

const noticeColumns = `id::text, message, enabled, start_at, end_at, created_at, updated_at`

const (
	listNoticesSQL = `SELECT ` + noticeColumns + ` FROM notices ORDER BY created_at DESC LIMIT $1`

	getNoticeSQL = `SELECT ` + noticeColumns + ` FROM notices WHERE id = $1::uuid`

	createNoticeSQL = `INSERT INTO notices (id, message, enabled, start_at, end_at, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)`

	updateNoticeSQL = `UPDATE notices SET message = $2, enabled = $3, start_at = $4, end_at = $5, updated_at = $6
		WHERE id = $1::uuid`

	deleteNoticeSQL = `DELETE FROM notices WHERE id = $1::uuid`
)

var _ notice.Repository = (*NoticeRepository)(nil)

// NoticeRepository implements notice.Repository backed by PostgreSQL.
type NoticeRepository struct {
	pool *pgxpool.Pool
}

func NewNoticeRepository(pool *pgxpool.Pool) *NoticeRepository {
	return &NoticeRepository{pool: pool}
}

func (r *NoticeRepository) List(ctx context.Context, limit int) ([]notice.Notice, error) {
	rows, err := r.pool.Query(ctx, listNoticesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notices: %w", err)
	}
	return pgx.CollectRows(rows, scanNotice)
}

func (r *NoticeRepository) Get(ctx context.Context, id string) (*notice.Notice, error) {
	if !isUUID(id) {
		return nil, notice.ErrNotFound
	}
	rows, err := r.pool.Query(ctx, getNoticeSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting notice %q: %w", id, err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanNotice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notice.ErrNotFound
		}
		return nil, fmt.Errorf("getting notice %q: %w", id, err)
	}
	return &n, nil
}

func (r *NoticeRepository) Create(ctx context.Context, n *notice.Notice) error {
	_, err := r.pool.Exec(ctx, createNoticeSQL,
		n.ID, n.Message, n.Enabled, n.Window.Start, n.Window.End, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating notice: %w", err)
	}
	return nil
}

func (r *NoticeRepository) Update(ctx context.Context, n *notice.Notice) error {
	tag, err := r.pool.Exec(ctx, updateNoticeSQL,
		n.ID, n.Message, n.Enabled, n.Window.Start, n.Window.End, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating notice %q: %w", n.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return notice.ErrNotFound
	}
	return nil
}

func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return notice.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, deleteNoticeSQL, id)
	if err != nil {
		return fmt.Errorf("deleting notice %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notice.ErrNotFound
	}
	return nil
}

func scanNotice(row pgx.CollectableRow) (notice.Notice, error) {
	var n notice.Notice
	err := row.Scan(&n.ID, &n.Message, &n.Enabled, &n.Window.Start, &n.Window.End, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}
