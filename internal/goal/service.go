// Package goal は年間読書目標のドメインロジックを提供する。
package goal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/reading"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// GoalService は読書目標のサービス層。
// 目標の作成・再設定・読了時の加算を統括する。
type GoalService struct {
	goalRepo  repository.GoalRepository
	collector metrics.MetricsCollector
}

// NewGoalService はGoalServiceの新しいインスタンスを生成する。
// collectorはnil許容。
func NewGoalService(goalRepo repository.GoalRepository, collector metrics.MetricsCollector) *GoalService {
	return &GoalService{
		goalRepo:  goalRepo,
		collector: collector,
	}
}

// SetGoal は指定年の読書目標を作成または再設定する。
// 既存の目標がある場合は目標冊数のみを更新し、読了冊数は維持したまま
// 達成フラグを再導出する（目標を下げた結果その場で達成になることもある）。
func (s *GoalService) SetGoal(ctx context.Context, year, targetBooks int) (*model.ReadingGoal, error) {
	if targetBooks <= 0 {
		return nil, model.NewInvalidGoalError(fmt.Sprintf("目標冊数は1以上を指定してください（指定値: %d）", targetBooks))
	}

	existing, err := s.goalRepo.FindByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("読書目標の検索に失敗しました: %w", err)
	}

	if existing != nil {
		existing.TargetBooks = targetBooks
		existing.Completed = existing.BooksRead >= targetBooks
		if err := s.goalRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("読書目標の更新に失敗しました: %w", err)
		}
		return existing, nil
	}

	goal := &model.ReadingGoal{
		ID:          uuid.New().String(),
		Year:        year,
		TargetBooks: targetBooks,
		BooksRead:   0,
		Completed:   false,
	}
	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("読書目標の作成に失敗しました: %w", err)
	}

	return goal, nil
}

// GetGoal は指定年の読書目標を取得する。
func (s *GoalService) GetGoal(ctx context.Context, year int) (*model.ReadingGoal, error) {
	goal, err := s.goalRepo.FindByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("読書目標の取得に失敗しました: %w", err)
	}
	if goal == nil {
		return nil, model.NewGoalNotFoundError(year)
	}
	return goal, nil
}

// FindGoal は指定年の読書目標を返す。未設定の場合はnilを返す（エラーにしない）。
// 統計集計など目標の有無が正常系の分岐である呼び出し元向け。
func (s *GoalService) FindGoal(ctx context.Context, year int) (*model.ReadingGoal, error) {
	goal, err := s.goalRepo.FindByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("読書目標の取得に失敗しました: %w", err)
	}
	return goal, nil
}

// OnBookCompleted は読了冊数を加算し、達成フラグを再導出する。
// 指定年の目標が未設定の場合は何もしない。
func (s *GoalService) OnBookCompleted(ctx context.Context, year int) error {
	goal, err := s.goalRepo.FindByYear(ctx, year)
	if err != nil {
		return fmt.Errorf("読書目標の検索に失敗しました: %w", err)
	}
	if goal == nil {
		// 目標未設定の年は追跡しない
		return nil
	}

	goal.BooksRead++
	newlyAchieved := !goal.Completed && goal.BooksRead >= goal.TargetBooks
	goal.Completed = goal.BooksRead >= goal.TargetBooks

	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return fmt.Errorf("読書目標の更新に失敗しました: %w", err)
	}

	if newlyAchieved && s.collector != nil {
		s.collector.RecordGoalAchieved(year)
	}

	return nil
}

// compile-time interface check
var _ reading.GoalTracker = (*GoalService)(nil)
