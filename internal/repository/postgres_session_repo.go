package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用した読書セッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create は読書セッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.ReadingSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reading_sessions (id, book_id, pages_read, minutes_spent, date)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.BookID, session.PagesRead, session.MinutesSpent, session.Date,
	)
	if err != nil {
		return fmt.Errorf("読書セッションの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByBookID は指定蔵書の読書セッション一覧を記録日時の昇順で返す。
func (r *PostgresSessionRepo) ListByBookID(ctx context.Context, bookID string) ([]*model.ReadingSession, error) {
	return r.list(ctx,
		`SELECT id, book_id, pages_read, minutes_spent, date
		 FROM reading_sessions WHERE book_id = $1 ORDER BY date ASC`, bookID)
}

// ListByDateRange は指定期間内に記録された読書セッション一覧を返す。
func (r *PostgresSessionRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.ReadingSession, error) {
	return r.list(ctx,
		`SELECT id, book_id, pages_read, minutes_spent, date
		 FROM reading_sessions WHERE date >= $1 AND date <= $2 ORDER BY date ASC`,
		start, end)
}

// list は読書セッション一覧クエリを実行する共通処理。
func (r *PostgresSessionRepo) list(ctx context.Context, query string, args ...any) ([]*model.ReadingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("読書セッション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sessions []*model.ReadingSession
	for rows.Next() {
		session := &model.ReadingSession{}
		if err := rows.Scan(
			&session.ID, &session.BookID, &session.PagesRead,
			&session.MinutesSpent, &session.Date,
		); err != nil {
			return nil, fmt.Errorf("読書セッションレコードの読み取りに失敗しました: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("読書セッション一覧の走査に失敗しました: %w", err)
	}

	return sessions, nil
}

// DeleteByBookID は指定蔵書の全読書セッションを削除する。
func (r *PostgresSessionRepo) DeleteByBookID(ctx context.Context, bookID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reading_sessions WHERE book_id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("蔵書に紐づく読書セッションの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
