// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// BookRepository は蔵書データの永続化インターフェース。
type BookRepository interface {
	// FindByID は指定IDの蔵書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Book, error)

	// ListAll は全蔵書を登録日時の昇順で返す。
	ListAll(ctx context.Context) ([]*model.Book, error)

	// ListByStatus は指定ステータスの蔵書一覧を返す。
	ListByStatus(ctx context.Context, status model.Status) ([]*model.Book, error)

	// ListWishlist はウィッシュリストに登録された蔵書一覧を返す。
	ListWishlist(ctx context.Context) ([]*model.Book, error)

	// ListByTag は指定タグを含む蔵書一覧を返す。
	ListByTag(ctx context.Context, tag string) ([]*model.Book, error)

	// Create は蔵書を作成する。
	Create(ctx context.Context, book *model.Book) error

	// Update は蔵書の全フィールドを上書き更新する。
	// 部分更新はサービス層で読み取り・変更・書き込みとして構成する。
	Update(ctx context.Context, book *model.Book) error

	// UpdateCover は蔵書のカバー画像キャッシュを更新する。
	UpdateCover(ctx context.Context, bookID string, coverData []byte, coverMime string) error

	// DeleteByID は指定IDの蔵書を削除する。
	// 関連するreviews、reading_sessionsはCASCADE削除される。
	// 削除対象が存在した場合はtrueを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Review, error)

	// ListAll は全レビューを返す。
	ListAll(ctx context.Context) ([]*model.Review, error)

	// ListByBookID は指定蔵書のレビュー一覧を返す。
	ListByBookID(ctx context.Context, bookID string) ([]*model.Review, error)

	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// Update はレビューを上書き更新する。
	Update(ctx context.Context, review *model.Review) error

	// DeleteByID は指定IDのレビューを削除する。削除対象が存在した場合はtrueを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteByBookID は指定蔵書の全レビューを削除する。
	DeleteByBookID(ctx context.Context, bookID string) error
}

// SessionRepository は読書セッションデータの永続化インターフェース。
// セッションは不変のため更新操作は提供しない。
type SessionRepository interface {
	// Create は読書セッションを作成する。
	Create(ctx context.Context, session *model.ReadingSession) error

	// ListByBookID は指定蔵書の読書セッション一覧を記録日時の昇順で返す。
	ListByBookID(ctx context.Context, bookID string) ([]*model.ReadingSession, error)

	// ListByDateRange は指定期間内に記録された読書セッション一覧を返す。
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.ReadingSession, error)

	// DeleteByBookID は指定蔵書の全読書セッションを削除する。
	// 蔵書削除のカスケードとしてのみ使用する。
	DeleteByBookID(ctx context.Context, bookID string) error
}

// GoalRepository は読書目標データの永続化インターフェース。
type GoalRepository interface {
	// FindByYear は指定年の読書目標を取得する。見つからない場合はnilを返す。
	FindByYear(ctx context.Context, year int) (*model.ReadingGoal, error)

	// Create は読書目標を作成する。年の一意性はDB制約で保証される。
	Create(ctx context.Context, goal *model.ReadingGoal) error

	// Update は読書目標を上書き更新する。
	Update(ctx context.Context, goal *model.ReadingGoal) error
}
