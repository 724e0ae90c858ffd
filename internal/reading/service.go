// Package reading は読書セッション記録と進捗導出のドメインロジックを提供する。
//
// セッション記録 → 進捗再計算 → 読了判定 → 目標更新のフローを統括する。
// 進捗は全セッションのページ数合計から導出され、既存値より大きい場合のみ
// 適用される（単調増加）。進捗がちょうど100%に達した時点で蔵書は読了となり、
// その年の読書目標が更新される。
package reading

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// GoalTracker は読了時の目標更新のインターフェース。
// internal/goalのGoalServiceを抽象化する。
type GoalTracker interface {
	// OnBookCompleted は指定年の読書目標の読了冊数を加算する。
	// 目標が未設定の場合は何もしない。
	OnBookCompleted(ctx context.Context, year int) error
}

// ReadingService は読書セッション記録のサービス層。
// 蔵書ごとのミューテックスで記録〜目標更新のフローを直列化する。
type ReadingService struct {
	bookRepo    repository.BookRepository
	sessionRepo repository.SessionRepository
	goalTracker GoalTracker
	collector   metrics.MetricsCollector

	// locksは蔵書IDごとのミューテックス。muはlocksマップ自体を保護する。
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReadingService はReadingServiceの新しいインスタンスを生成する。
// goalTrackerとcollectorはnil許容。
func NewReadingService(
	bookRepo repository.BookRepository,
	sessionRepo repository.SessionRepository,
	goalTracker GoalTracker,
	collector metrics.MetricsCollector,
) *ReadingService {
	return &ReadingService{
		bookRepo:    bookRepo,
		sessionRepo: sessionRepo,
		goalTracker: goalTracker,
		locks:       make(map[string]*sync.Mutex),
		collector:   collector,
	}
}

// RecordSession は読書セッションを記録し、進捗を同期的に再計算する。
// フロー: 入力検証 → 蔵書確認 → セッション保存 → 進捗再計算 → 読了判定 → 目標更新
//
// 入力検証はいかなる書き込みよりも先に行われる。同一蔵書への並行記録は
// 蔵書ごとのミューテックスで直列化され、進捗の導出が取りこぼしなく行われる。
func (s *ReadingService) RecordSession(ctx context.Context, bookID string, pagesRead, minutesSpent int) (*model.ReadingSession, *model.Book, error) {
	// 1. 入力検証（書き込み前に拒否）
	if pagesRead <= 0 {
		return nil, nil, model.NewInvalidSessionError(fmt.Sprintf("ページ数は1以上を指定してください（指定値: %d）", pagesRead))
	}
	if minutesSpent < 0 {
		return nil, nil, model.NewInvalidSessionError(fmt.Sprintf("読書時間は0以上を指定してください（指定値: %d）", minutesSpent))
	}

	// 2. 蔵書単位の排他制御
	lock := s.lockFor(bookID)
	lock.Lock()
	defer lock.Unlock()

	// 3. 蔵書の存在確認
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, nil, model.NewBookNotFoundError(bookID)
	}

	start := time.Now()

	// 4. セッション保存（セッションは不変レコード）
	session := &model.ReadingSession{
		ID:           uuid.New().String(),
		BookID:       bookID,
		PagesRead:    pagesRead,
		MinutesSpent: minutesSpent,
		Date:         start,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("読書セッションの保存に失敗しました: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordSessionRecorded(bookID)
	}

	// 5. 進捗の同期再計算
	if err := s.recomputeProgress(ctx, book); err != nil {
		return nil, nil, err
	}

	if s.collector != nil {
		s.collector.RecordSessionLatency(time.Since(start))
	}

	return session, book, nil
}

// ListSessionsByBook は指定蔵書の読書セッション一覧を返す。
func (s *ReadingService) ListSessionsByBook(ctx context.Context, bookID string) ([]*model.ReadingSession, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("蔵書の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	sessions, err := s.sessionRepo.ListByBookID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("読書セッションの取得に失敗しました: %w", err)
	}
	return sessions, nil
}

// ListSessionsByDateRange は指定期間内の読書セッション一覧を返す。
func (s *ReadingService) ListSessionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*model.ReadingSession, error) {
	sessions, err := s.sessionRepo.ListByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("読書セッションの取得に失敗しました: %w", err)
	}
	return sessions, nil
}

// recomputeProgress は全セッションのページ数合計から進捗を再導出する。
//
// 導出規則:
//   - 総ページ数が不明（nil）の場合は進捗を変更しない
//   - progress = min(合計ページ数 * 100 / 総ページ数, 100) の整数切り捨て
//   - 既存進捗がnil、または新しい値が既存値より真に大きい場合のみ適用（単調増加）
//   - 導出値がちょうど100かつ未読了の場合: 読了遷移（ステータス・読了日・目標更新）。
//     読了判定は単調増加の適用とは独立に行う。直接編集で進捗が既に100の蔵書も、
//     セッションで全ページ読了に達すれば読了となる
func (s *ReadingService) recomputeProgress(ctx context.Context, book *model.Book) error {
	sessions, err := s.sessionRepo.ListByBookID(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("読書セッションの集計に失敗しました: %w", err)
	}

	totalPages := 0
	for _, sess := range sessions {
		totalPages += sess.PagesRead
	}

	// 総ページ数が不明なら進捗は導出できない
	if book.Pages == nil || *book.Pages <= 0 {
		return nil
	}

	progress := totalPages * 100 / *book.Pages
	if progress > 100 {
		progress = 100
	}

	// 単調増加: 既存値より大きい場合のみ適用
	changed := false
	if book.Progress == nil || progress > *book.Progress {
		book.Progress = &progress
		changed = true
	}

	completed := false
	if progress == 100 && book.Status != model.StatusCompleted {
		now := time.Now()
		book.Status = model.StatusCompleted
		book.DateFinished = &now
		completed = true
		changed = true
	}

	if !changed {
		return nil
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return fmt.Errorf("進捗の更新に失敗しました: %w", err)
	}

	if completed {
		if s.collector != nil {
			s.collector.RecordBookCompleted(book.ID)
		}
		s.trackGoal(ctx, book.DateFinished.Year())
	}

	return nil
}

// trackGoal は読了年の読書目標を更新する。
// 目標更新の失敗はセッション記録の成功を覆さず、ログ出力のみとする。
func (s *ReadingService) trackGoal(ctx context.Context, year int) {
	if s.goalTracker == nil {
		return
	}
	if err := s.goalTracker.OnBookCompleted(ctx, year); err != nil {
		slog.Warn("読書目標の更新エラー", "year", year, "error", err)
	}
}

// lockFor は蔵書IDに対応するミューテックスを返す。
func (s *ReadingService) lockFor(bookID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[bookID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[bookID] = lock
	}
	return lock
}
