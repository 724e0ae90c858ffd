package reading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// --- ReadingService テスト用モック ---

// mockBookRepo はテスト用のBookRepositoryモック。
type mockBookRepo struct {
	mu          sync.Mutex
	books       map[string]*model.Book
	updateCalls int
}

func newMockBookRepo() *mockBookRepo {
	return &mockBookRepo{books: make(map[string]*model.Book)}
}

func (m *mockBookRepo) FindByID(_ context.Context, id string) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (m *mockBookRepo) ListAll(_ context.Context) ([]*model.Book, error) { return nil, nil }

func (m *mockBookRepo) ListByStatus(_ context.Context, _ model.Status) ([]*model.Book, error) {
	return nil, nil
}

func (m *mockBookRepo) ListWishlist(_ context.Context) ([]*model.Book, error) { return nil, nil }

func (m *mockBookRepo) ListByTag(_ context.Context, _ string) ([]*model.Book, error) {
	return nil, nil
}

func (m *mockBookRepo) Create(_ context.Context, book *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = book
	return nil
}

func (m *mockBookRepo) Update(_ context.Context, book *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.books[book.ID] = book
	return nil
}

func (m *mockBookRepo) UpdateCover(_ context.Context, _ string, _ []byte, _ string) error {
	return nil
}

func (m *mockBookRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.books[id]
	delete(m.books, id)
	return ok, nil
}

// mockSessionRepo はテスト用のSessionRepositoryモック。
type mockSessionRepo struct {
	mu        sync.Mutex
	sessions  []*model.ReadingSession
	createErr error
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.ReadingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *mockSessionRepo) ListByBookID(_ context.Context, bookID string) ([]*model.ReadingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ReadingSession
	for _, s := range m.sessions {
		if s.BookID == bookID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListByDateRange(_ context.Context, start, end time.Time) ([]*model.ReadingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ReadingSession
	for _, s := range m.sessions {
		if !s.Date.Before(start) && !s.Date.After(end) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) DeleteByBookID(_ context.Context, bookID string) error {
	return nil
}

func (m *mockSessionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// mockGoalTracker はテスト用のGoalTrackerモック。
type mockGoalTracker struct {
	mu    sync.Mutex
	years []int
	err   error
}

func (m *mockGoalTracker) OnBookCompleted(_ context.Context, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.years = append(m.years, year)
	return nil
}

func (m *mockGoalTracker) calledYears() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.years...)
}

// intPtr はテスト用のintポインタヘルパー。
func intPtr(v int) *int { return &v }

func newTestService(books ...*model.Book) (*ReadingService, *mockBookRepo, *mockSessionRepo, *mockGoalTracker) {
	bookRepo := newMockBookRepo()
	for _, b := range books {
		bookRepo.books[b.ID] = b
	}
	sessionRepo := &mockSessionRepo{}
	tracker := &mockGoalTracker{}
	svc := NewReadingService(bookRepo, sessionRepo, tracker, nil)
	return svc, bookRepo, sessionRepo, tracker
}

// --- セッション記録 ---

// 正常なセッションが記録日時付きで保存されることを検証
func TestRecordSession_PersistsSession(t *testing.T) {
	svc, _, sessionRepo, _ := newTestService(&model.Book{
		ID: "b1", Title: "t", Author: "a", Genre: "g",
		Status: model.StatusReading, Pages: intPtr(200),
	})

	before := time.Now()
	session, _, err := svc.RecordSession(context.Background(), "b1", 30, 45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.ID == "" {
		t.Error("session ID should be generated")
	}
	if session.BookID != "b1" {
		t.Errorf("BookID = %s, want b1", session.BookID)
	}
	if session.PagesRead != 30 || session.MinutesSpent != 45 {
		t.Errorf("session = %+v, want pages 30 minutes 45", session)
	}
	if session.Date.Before(before) {
		t.Error("Date should be stamped at record time")
	}
	if sessionRepo.count() != 1 {
		t.Errorf("persisted sessions = %d, want 1", sessionRepo.count())
	}
}

// 読書時間0分のセッションは有効であることを検証
func TestRecordSession_ZeroMinutesIsValid(t *testing.T) {
	svc, _, _, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(200),
	})

	_, _, err := svc.RecordSession(context.Background(), "b1", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ページ数0以下のセッションが書き込み前に拒否されることを検証
func TestRecordSession_RejectsNonPositivePages(t *testing.T) {
	svc, _, sessionRepo, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(200),
	})

	for _, pages := range []int{0, -5} {
		_, _, err := svc.RecordSession(context.Background(), "b1", pages, 10)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidSession {
			t.Errorf("pages %d: error = %v, want INVALID_SESSION", pages, err)
		}
	}
	if sessionRepo.count() != 0 {
		t.Errorf("sessions = %d, want 0 (no write on validation failure)", sessionRepo.count())
	}
}

// 負の読書時間のセッションが書き込み前に拒否されることを検証
func TestRecordSession_RejectsNegativeMinutes(t *testing.T) {
	svc, _, sessionRepo, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(200),
	})

	_, _, err := svc.RecordSession(context.Background(), "b1", 10, -1)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidSession {
		t.Errorf("error = %v, want INVALID_SESSION", err)
	}
	if sessionRepo.count() != 0 {
		t.Errorf("sessions = %d, want 0", sessionRepo.count())
	}
}

// 存在しない蔵書への記録でBOOK_NOT_FOUNDが返りセッションが保存されないことを検証
func TestRecordSession_UnknownBook(t *testing.T) {
	svc, _, sessionRepo, _ := newTestService()

	_, _, err := svc.RecordSession(context.Background(), "missing", 10, 10)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookNotFound {
		t.Errorf("error = %v, want BOOK_NOT_FOUND", err)
	}
	if sessionRepo.count() != 0 {
		t.Errorf("sessions = %d, want 0", sessionRepo.count())
	}
}

// --- 進捗導出 ---

// 全セッション合計からの進捗導出（整数切り捨て）を検証
func TestRecordSession_DerivesProgress(t *testing.T) {
	svc, repo, _, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(300),
	})

	// 100/300 = 33.33… → 33
	_, book, err := svc.RecordSession(context.Background(), "b1", 100, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Progress == nil || *book.Progress != 33 {
		t.Errorf("progress = %v, want 33", book.Progress)
	}

	// 追加の50ページ: 150/300 = 50
	_, book, err = svc.RecordSession(context.Background(), "b1", 50, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Progress == nil || *book.Progress != 50 {
		t.Errorf("progress = %v, want 50", book.Progress)
	}
	if repo.updateCalls != 2 {
		t.Errorf("updateCalls = %d, want 2", repo.updateCalls)
	}
}

// 総ページ数不明の蔵書では進捗が変更されないことを検証
func TestRecordSession_UnknownPagesLeavesProgress(t *testing.T) {
	svc, repo, sessionRepo, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: nil,
	})

	_, book, err := svc.RecordSession(context.Background(), "b1", 50, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Progress != nil {
		t.Errorf("progress = %v, want nil (unknown pages)", book.Progress)
	}
	if sessionRepo.count() != 1 {
		t.Error("session should still be persisted")
	}
	if repo.updateCalls != 0 {
		t.Errorf("updateCalls = %d, want 0", repo.updateCalls)
	}
}

// 合計が総ページ数を超えても進捗が100でクランプされることを検証
func TestRecordSession_ClampsProgressAt100(t *testing.T) {
	svc, _, _, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(100),
	})

	_, book, err := svc.RecordSession(context.Background(), "b1", 250, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Progress == nil || *book.Progress != 100 {
		t.Errorf("progress = %v, want 100", book.Progress)
	}
}

// 導出値が既存進捗以下の場合は適用されないことを検証（単調増加）
func TestRecordSession_MonotonicProgress(t *testing.T) {
	// 直接編集で進捗80%に設定済みの蔵書
	svc, repo, _, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(1000), Progress: intPtr(80),
	})

	// 10/1000 = 1% < 80% → 適用されない
	_, book, err := svc.RecordSession(context.Background(), "b1", 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Progress == nil || *book.Progress != 80 {
		t.Errorf("progress = %v, want unchanged 80", book.Progress)
	}
	if repo.updateCalls != 0 {
		t.Errorf("updateCalls = %d, want 0 (no regression write)", repo.updateCalls)
	}
}

// 既存進捗nilの場合は導出値がそのまま適用されることを検証
func TestRecordSession_NilProgressAlwaysApplies(t *testing.T) {
	svc, _, _, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(1000), Progress: nil,
	})

	_, book, err := svc.RecordSession(context.Background(), "b1", 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Progress == nil || *book.Progress != 1 {
		t.Errorf("progress = %v, want 1", book.Progress)
	}
}

// --- 読了遷移と目標更新 ---

// 進捗100%到達で読了遷移し目標が更新されることを検証
func TestRecordSession_CompletionTransition(t *testing.T) {
	svc, _, _, tracker := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(100),
	})

	_, book, err := svc.RecordSession(context.Background(), "b1", 100, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed", book.Status)
	}
	if book.Progress == nil || *book.Progress != 100 {
		t.Errorf("progress = %v, want 100", book.Progress)
	}
	if book.DateFinished == nil {
		t.Fatal("DateFinished should be stamped on completion")
	}

	years := tracker.calledYears()
	if len(years) != 1 || years[0] != book.DateFinished.Year() {
		t.Errorf("goal tracker calls = %v, want [%d]", years, book.DateFinished.Year())
	}
}

// 読了済み蔵書への追加記録で目標が二重更新されないことを検証
func TestRecordSession_CompletionFiresOnce(t *testing.T) {
	svc, _, _, tracker := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(100),
	})

	if _, _, err := svc.RecordSession(context.Background(), "b1", 100, 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.RecordSession(context.Background(), "b1", 20, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracker.calledYears()) != 1 {
		t.Errorf("goal tracker calls = %d, want 1", len(tracker.calledYears()))
	}
}

// 直接編集で進捗が既に100の未読了蔵書でも、全ページ読了の導出で
// 読了遷移と目標更新が行われることを検証
func TestRecordSession_CompletesWhenStoredProgressAlready100(t *testing.T) {
	svc, repo, _, tracker := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(100), Progress: intPtr(100),
	})

	// 導出値100は既存進捗100以下だが、読了遷移は独立に判定される
	_, book, err := svc.RecordSession(context.Background(), "b1", 100, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed", book.Status)
	}
	if book.DateFinished == nil {
		t.Fatal("DateFinished should be stamped on completion")
	}
	if book.Progress == nil || *book.Progress != 100 {
		t.Errorf("progress = %v, want 100", book.Progress)
	}
	if repo.updateCalls != 1 {
		t.Errorf("updateCalls = %d, want 1", repo.updateCalls)
	}
	if len(tracker.calledYears()) != 1 {
		t.Errorf("goal tracker calls = %d, want 1", len(tracker.calledYears()))
	}
}

// 目標更新の失敗がセッション記録の成功を覆さないことを検証
func TestRecordSession_GoalFailureDoesNotPropagate(t *testing.T) {
	bookRepo := newMockBookRepo()
	bookRepo.books["b1"] = &model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(100),
	}
	sessionRepo := &mockSessionRepo{}
	tracker := &mockGoalTracker{err: errors.New("db down")}
	svc := NewReadingService(bookRepo, sessionRepo, tracker, nil)

	_, book, err := svc.RecordSession(context.Background(), "b1", 100, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed despite goal failure", book.Status)
	}
	if sessionRepo.count() != 1 {
		t.Error("session should be persisted despite goal failure")
	}
}

// --- 並行記録 ---

// 同一蔵書への並行記録が直列化され進捗が正しく収束することを検証
func TestRecordSession_ConcurrentRecording(t *testing.T) {
	svc, repo, sessionRepo, tracker := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(100),
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.RecordSession(context.Background(), "b1", 10, 5); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if sessionRepo.count() != 10 {
		t.Errorf("sessions = %d, want 10", sessionRepo.count())
	}

	book, _ := repo.FindByID(context.Background(), "b1")
	if book.Progress == nil || *book.Progress != 100 {
		t.Errorf("final progress = %v, want 100", book.Progress)
	}
	if book.Status != model.StatusCompleted {
		t.Errorf("final status = %s, want completed", book.Status)
	}
	// 読了遷移は1回だけ
	if len(tracker.calledYears()) != 1 {
		t.Errorf("goal tracker calls = %d, want exactly 1", len(tracker.calledYears()))
	}
}

// --- セッション照会 ---

// 存在しない蔵書のセッション一覧でBOOK_NOT_FOUNDが返ることを検証
func TestListSessionsByBook_UnknownBook(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.ListSessionsByBook(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookNotFound {
		t.Errorf("error = %v, want BOOK_NOT_FOUND", err)
	}
}

// 期間指定のセッション照会を検証
func TestListSessionsByDateRange_Filters(t *testing.T) {
	svc, _, sessionRepo, _ := newTestService(&model.Book{
		ID: "b1", Status: model.StatusReading, Pages: intPtr(500),
	})

	sessionRepo.sessions = []*model.ReadingSession{
		{ID: "s1", BookID: "b1", PagesRead: 10, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "s2", BookID: "b1", PagesRead: 20, Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "s3", BookID: "b1", PagesRead: 30, Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	sessions, err := svc.ListSessionsByDateRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sessions) != 2 {
		t.Errorf("got %d sessions, want 2 within 2025", len(sessions))
	}
}
