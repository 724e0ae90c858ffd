// Package book は蔵書管理のドメインロジックを提供する。
package book

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// completedProgress は読了時に設定される進捗率。
const completedProgress = 100

// BookService は蔵書のCRUDとライフサイクル管理のサービス層。
// ステータス遷移時の日付スタンプ、ウィッシュリスト、カスケード削除を統括する。
type BookService struct {
	bookRepo     repository.BookRepository
	reviewRepo   repository.ReviewRepository
	sessionRepo  repository.SessionRepository
	coverFetcher CoverFetcherService
}

// NewBookService はBookServiceの新しいインスタンスを生成する。
// coverFetcherはnil許容で、nilの場合はカバー画像取得をスキップする。
func NewBookService(
	bookRepo repository.BookRepository,
	reviewRepo repository.ReviewRepository,
	sessionRepo repository.SessionRepository,
	coverFetcher CoverFetcherService,
) *BookService {
	return &BookService{
		bookRepo:     bookRepo,
		reviewRepo:   reviewRepo,
		sessionRepo:  sessionRepo,
		coverFetcher: coverFetcher,
	}
}

// CreateBookParams は蔵書作成の入力パラメータ。
type CreateBookParams struct {
	Title       string
	Author      string
	Genre       string
	CoverURL    string
	Pages       *int
	Status      string // 空の場合はwant_to_read
	Description string
	IsWishlist  bool
	Tags        []string
}

// UpdateBookParams は蔵書の部分更新パラメータ。
// nilのフィールドは変更されない。
type UpdateBookParams struct {
	Title       *string
	Author      *string
	Genre       *string
	CoverURL    *string
	Pages       *int
	Status      *string
	Progress    *int
	Description *string
	IsWishlist  *bool
	Tags        []string // nilの場合は変更しない
}

// CreateBook は蔵書を作成する。
// 登録日時をスタンプし、作成時ステータスがreadingなら読書開始日、
// completedなら読了日と進捗100%を合わせて設定する。
// カバー画像URLが指定されていれば取得を試みる（ベストエフォート）。
func (s *BookService) CreateBook(ctx context.Context, params CreateBookParams) (*model.Book, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, model.NewInvalidBookError("タイトルは必須です")
	}
	if strings.TrimSpace(params.Author) == "" {
		return nil, model.NewInvalidBookError("著者は必須です")
	}
	if strings.TrimSpace(params.Genre) == "" {
		return nil, model.NewInvalidBookError("ジャンルは必須です")
	}
	if params.Pages != nil && *params.Pages <= 0 {
		return nil, model.NewInvalidBookError("総ページ数は正の整数を指定してください")
	}

	status := params.Status
	if status == "" {
		status = string(model.StatusWantToRead)
	}
	if !model.IsValidStatus(status) {
		return nil, model.NewInvalidStatusError(status)
	}

	now := time.Now()
	book := &model.Book{
		ID:          uuid.New().String(),
		Title:       params.Title,
		Author:      params.Author,
		Genre:       params.Genre,
		CoverURL:    params.CoverURL,
		Pages:       params.Pages,
		Status:      model.Status(status),
		Description: params.Description,
		IsWishlist:  params.IsWishlist,
		Tags:        params.Tags,
		DateAdded:   now,
	}

	// ステータスに応じた日付スタンプ
	switch book.Status {
	case model.StatusReading:
		book.DateStarted = &now
	case model.StatusCompleted:
		book.DateFinished = &now
		progress := completedProgress
		book.Progress = &progress
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("蔵書の保存に失敗しました: %w", err)
	}

	// カバー画像取得（同期で実行。取得失敗時はキャッシュなしのまま）
	s.fetchAndSaveCover(ctx, book)

	return book, nil
}

// GetBook は指定IDの蔵書を取得する。
func (s *BookService) GetBook(ctx context.Context, bookID string) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}
	return book, nil
}

// ListBooks は全蔵書を返す。
func (s *BookService) ListBooks(ctx context.Context) ([]*model.Book, error) {
	books, err := s.bookRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}
	return books, nil
}

// ListBooksByStatus は指定ステータスの蔵書一覧を返す。
func (s *BookService) ListBooksByStatus(ctx context.Context, status string) ([]*model.Book, error) {
	if !model.IsValidStatus(status) {
		return nil, model.NewInvalidStatusError(status)
	}
	books, err := s.bookRepo.ListByStatus(ctx, model.Status(status))
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}
	return books, nil
}

// ListWishlist はウィッシュリストの蔵書一覧を返す。
func (s *BookService) ListWishlist(ctx context.Context) ([]*model.Book, error) {
	books, err := s.bookRepo.ListWishlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("ウィッシュリストの取得に失敗しました: %w", err)
	}
	return books, nil
}

// ListBooksByTag は指定タグを含む蔵書一覧を返す。
func (s *BookService) ListBooksByTag(ctx context.Context, tag string) ([]*model.Book, error) {
	books, err := s.bookRepo.ListByTag(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("蔵書一覧の取得に失敗しました: %w", err)
	}
	return books, nil
}

// UpdateBook は蔵書を部分更新する。
// ステータスがreadingに遷移し読書開始日が未設定なら開始日をスタンプする。
// completedに遷移した場合は読了日をスタンプし進捗を100%にする。
// 進捗の直接編集はセッション由来の導出値より優先される。
func (s *BookService) UpdateBook(ctx context.Context, bookID string, params UpdateBookParams) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	if params.Title != nil {
		if strings.TrimSpace(*params.Title) == "" {
			return nil, model.NewInvalidBookError("タイトルは必須です")
		}
		book.Title = *params.Title
	}
	if params.Author != nil {
		if strings.TrimSpace(*params.Author) == "" {
			return nil, model.NewInvalidBookError("著者は必須です")
		}
		book.Author = *params.Author
	}
	if params.Genre != nil {
		if strings.TrimSpace(*params.Genre) == "" {
			return nil, model.NewInvalidBookError("ジャンルは必須です")
		}
		book.Genre = *params.Genre
	}
	if params.Pages != nil {
		if *params.Pages <= 0 {
			return nil, model.NewInvalidBookError("総ページ数は正の整数を指定してください")
		}
		book.Pages = params.Pages
	}
	if params.Progress != nil {
		if *params.Progress < 0 || *params.Progress > 100 {
			return nil, model.NewInvalidBookError("進捗は0〜100の範囲で指定してください")
		}
		book.Progress = params.Progress
	}
	if params.Description != nil {
		book.Description = *params.Description
	}
	if params.IsWishlist != nil {
		book.IsWishlist = *params.IsWishlist
	}
	if params.Tags != nil {
		book.Tags = params.Tags
	}

	coverChanged := false
	if params.CoverURL != nil && *params.CoverURL != book.CoverURL {
		book.CoverURL = *params.CoverURL
		coverChanged = true
	}

	if params.Status != nil {
		if !model.IsValidStatus(*params.Status) {
			return nil, model.NewInvalidStatusError(*params.Status)
		}
		newStatus := model.Status(*params.Status)
		if newStatus != book.Status {
			now := time.Now()
			switch newStatus {
			case model.StatusReading:
				if book.DateStarted == nil {
					book.DateStarted = &now
				}
			case model.StatusCompleted:
				if book.DateFinished == nil {
					book.DateFinished = &now
				}
				progress := completedProgress
				book.Progress = &progress
			}
			book.Status = newStatus
		}
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("蔵書の更新に失敗しました: %w", err)
	}

	// カバーURLが変わった場合は再取得（ベストエフォート）
	if coverChanged {
		s.fetchAndSaveCover(ctx, book)
	}

	return book, nil
}

// DeleteBook は蔵書と関連データ（レビュー・読書セッション）を削除する。
// DB側のFK CASCADEと二重になるが、リポジトリ実装に依存しないようサービス層でも削除する。
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return model.NewBookNotFoundError(bookID)
	}

	if err := s.reviewRepo.DeleteByBookID(ctx, bookID); err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}
	if err := s.sessionRepo.DeleteByBookID(ctx, bookID); err != nil {
		return fmt.Errorf("読書セッションの削除に失敗しました: %w", err)
	}
	if _, err := s.bookRepo.DeleteByID(ctx, bookID); err != nil {
		return fmt.Errorf("蔵書の削除に失敗しました: %w", err)
	}

	return nil
}

// SetWishlist は蔵書のウィッシュリストフラグを設定する。
func (s *BookService) SetWishlist(ctx context.Context, bookID string, flagged bool) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	book.IsWishlist = flagged
	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("蔵書の更新に失敗しました: %w", err)
	}

	return book, nil
}

// GetCover は蔵書のカバー画像を返す。
// キャッシュ未取得かつカバーURLが設定されている場合は取得を試みる。
// 画像が存在しない場合はnilデータと空MIMEを返す。
func (s *BookService) GetCover(ctx context.Context, bookID string) ([]byte, string, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, "", fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, "", model.NewBookNotFoundError(bookID)
	}

	if book.CoverData == nil && book.CoverURL != "" {
		s.fetchAndSaveCover(ctx, book)
	}

	return book.CoverData, book.CoverMime, nil
}

// fetchAndSaveCover は蔵書のカバー画像を取得して保存する。
// 取得失敗時はログ出力のみで、エラーを返さない。
func (s *BookService) fetchAndSaveCover(ctx context.Context, book *model.Book) {
	if s.coverFetcher == nil || book.CoverURL == "" {
		return
	}

	data, mimeType, err := s.coverFetcher.FetchCover(ctx, book.CoverURL)
	if err != nil {
		slog.Warn("カバー画像取得エラー", "bookID", book.ID, "coverURL", book.CoverURL, "error", err)
		return
	}

	if data == nil {
		slog.Info("カバー画像未取得（キャッシュなしのまま）", "bookID", book.ID, "coverURL", book.CoverURL)
		return
	}

	// カバー画像をDB保存
	if err := s.bookRepo.UpdateCover(ctx, book.ID, data, mimeType); err != nil {
		slog.Warn("カバー画像保存エラー", "bookID", book.ID, "error", err)
		return
	}

	book.CoverData = data
	book.CoverMime = mimeType
	slog.Info("カバー画像保存完了", "bookID", book.ID, "mimeType", mimeType, "size", len(data))
}
