package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した蔵書リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// bookColumns はbooksテーブルのSELECT対象カラム。
const bookColumns = `id, title, author, genre, cover_url, cover_data, cover_mime,
	       pages, status, progress, description, is_wishlist, tags,
	       date_added, date_started, date_finished`

// rowScanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBook は1行分の蔵書レコードを読み取る。
func scanBook(row rowScanner) (*model.Book, error) {
	book := &model.Book{}
	var coverURL, coverMime, description sql.NullString
	var pages, progress sql.NullInt64
	var tags pq.StringArray
	var dateStarted, dateFinished sql.NullTime

	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.Genre,
		&coverURL, &book.CoverData, &coverMime,
		&pages, &book.Status, &progress,
		&description, &book.IsWishlist, &tags,
		&book.DateAdded, &dateStarted, &dateFinished,
	)
	if err != nil {
		return nil, err
	}

	book.CoverURL = nullStringValue(coverURL)
	book.CoverMime = nullStringValue(coverMime)
	book.Description = nullStringValue(description)
	book.Tags = tags
	if pages.Valid {
		p := int(pages.Int64)
		book.Pages = &p
	}
	if progress.Valid {
		p := int(progress.Int64)
		book.Progress = &p
	}
	if dateStarted.Valid {
		t := dateStarted.Time
		book.DateStarted = &t
	}
	if dateFinished.Valid {
		t := dateFinished.Time
		book.DateFinished = &t
	}

	return book, nil
}

// FindByID は指定IDの蔵書を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id string) (*model.Book, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}

	return book, nil
}

// ListAll は全蔵書を登録日時の昇順で返す。
func (r *PostgresBookRepo) ListAll(ctx context.Context) ([]*model.Book, error) {
	return r.listWhere(ctx, "", nil)
}

// ListByStatus は指定ステータスの蔵書一覧を返す。
func (r *PostgresBookRepo) ListByStatus(ctx context.Context, status model.Status) ([]*model.Book, error) {
	return r.listWhere(ctx, "WHERE status = $1", []any{string(status)})
}

// ListWishlist はウィッシュリストに登録された蔵書一覧を返す。
func (r *PostgresBookRepo) ListWishlist(ctx context.Context) ([]*model.Book, error) {
	return r.listWhere(ctx, "WHERE is_wishlist = TRUE", nil)
}

// ListByTag は指定タグを含む蔵書一覧を返す。
func (r *PostgresBookRepo) ListByTag(ctx context.Context, tag string) ([]*model.Book, error) {
	return r.listWhere(ctx, "WHERE $1 = ANY(tags)", []any{tag})
}

// listWhere は条件付きの蔵書一覧クエリを実行する共通処理。
func (r *PostgresBookRepo) listWhere(ctx context.Context, where string, args []any) ([]*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ` + where + ` ORDER BY date_added ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("蔵書レコードの読み取りに失敗しました: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("蔵書一覧の走査に失敗しました: %w", err)
	}

	return books, nil
}

// Create は蔵書を作成する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, title, author, genre, cover_url, cover_data, cover_mime,
		                    pages, status, progress, description, is_wishlist, tags,
		                    date_added, date_started, date_finished)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		book.ID, book.Title, book.Author, book.Genre,
		nullString(book.CoverURL), book.CoverData, nullString(book.CoverMime),
		nullInt(book.Pages), string(book.Status), nullInt(book.Progress),
		nullString(book.Description), book.IsWishlist, pq.Array(book.Tags),
		book.DateAdded, nullTime(book.DateStarted), nullTime(book.DateFinished),
	)
	if err != nil {
		return fmt.Errorf("蔵書の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は蔵書の全フィールドを上書き更新する。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE books SET
		    title = $2, author = $3, genre = $4, cover_url = $5,
		    pages = $6, status = $7, progress = $8, description = $9,
		    is_wishlist = $10, tags = $11, date_started = $12, date_finished = $13
		 WHERE id = $1`,
		book.ID, book.Title, book.Author, book.Genre, nullString(book.CoverURL),
		nullInt(book.Pages), string(book.Status), nullInt(book.Progress),
		nullString(book.Description), book.IsWishlist, pq.Array(book.Tags),
		nullTime(book.DateStarted), nullTime(book.DateFinished),
	)
	if err != nil {
		return fmt.Errorf("蔵書の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateCover は蔵書のカバー画像キャッシュを更新する。
func (r *PostgresBookRepo) UpdateCover(ctx context.Context, bookID string, coverData []byte, coverMime string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE books SET cover_data = $2, cover_mime = $3 WHERE id = $1`,
		bookID, coverData, nullString(coverMime),
	)
	if err != nil {
		return fmt.Errorf("カバー画像の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの蔵書を削除する。削除対象が存在した場合はtrueを返す。
func (r *PostgresBookRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("蔵書の削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullInt は*intをsql.NullInt64に変換する。
func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// nullTime は*time.TimeをNULL許容の値に変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
