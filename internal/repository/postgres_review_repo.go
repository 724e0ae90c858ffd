package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// scanReview は1行分のレビューレコードを読み取る。
func scanReview(row rowScanner) (*model.Review, error) {
	review := &model.Review{}
	var rating sql.NullFloat64
	var content sql.NullString
	var tags pq.StringArray

	err := row.Scan(
		&review.ID, &review.BookID, &rating, &content, &tags, &review.DateReviewed,
	)
	if err != nil {
		return nil, err
	}

	review.Content = nullStringValue(content)
	review.Tags = tags
	if rating.Valid {
		v := rating.Float64
		review.Rating = &v
	}

	return review, nil
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, book_id, rating, content, tags, date_reviewed
		 FROM reviews WHERE id = $1`, id)

	review, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}

	return review, nil
}

// ListAll は全レビューを返す。
func (r *PostgresReviewRepo) ListAll(ctx context.Context) ([]*model.Review, error) {
	return r.list(ctx,
		`SELECT id, book_id, rating, content, tags, date_reviewed
		 FROM reviews ORDER BY date_reviewed DESC`)
}

// ListByBookID は指定蔵書のレビュー一覧を返す。
func (r *PostgresReviewRepo) ListByBookID(ctx context.Context, bookID string) ([]*model.Review, error) {
	return r.list(ctx,
		`SELECT id, book_id, rating, content, tags, date_reviewed
		 FROM reviews WHERE book_id = $1 ORDER BY date_reviewed DESC`, bookID)
}

// list はレビュー一覧クエリを実行する共通処理。
func (r *PostgresReviewRepo) list(ctx context.Context, query string, args ...any) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("レビューレコードの読み取りに失敗しました: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レビュー一覧の走査に失敗しました: %w", err)
	}

	return reviews, nil
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, book_id, rating, content, tags, date_reviewed)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		review.ID, review.BookID, nullFloat(review.Rating),
		nullString(review.Content), pq.Array(review.Tags), review.DateReviewed,
	)
	if err != nil {
		return fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はレビューを上書き更新する。
func (r *PostgresReviewRepo) Update(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET rating = $2, content = $3, tags = $4 WHERE id = $1`,
		review.ID, nullFloat(review.Rating), nullString(review.Content), pq.Array(review.Tags),
	)
	if err != nil {
		return fmt.Errorf("レビューの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのレビューを削除する。削除対象が存在した場合はtrueを返す。
func (r *PostgresReviewRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// DeleteByBookID は指定蔵書の全レビューを削除する。
func (r *PostgresReviewRepo) DeleteByBookID(ctx context.Context, bookID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE book_id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("蔵書に紐づくレビューの削除に失敗しました: %w", err)
	}
	return nil
}

// nullFloat は*float64をsql.NullFloat64に変換する。
func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
