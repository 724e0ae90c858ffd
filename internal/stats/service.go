// Package stats は読書統計の集計ロジックを提供する。
//
// 集計は読み取り専用で、呼び出し時点の蔵書・セッション・レビュー・目標から
// 毎回導出される。集計値は一切永続化しない。
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/repository"
)

// GoalFinder は統計に添付する読書目標の照会インターフェース。
// internal/goalのGoalServiceを抽象化する。目標未設定はnilで表す。
type GoalFinder interface {
	FindGoal(ctx context.Context, year int) (*model.ReadingGoal, error)
}

// GenreCount はジャンル別の読了冊数と構成比を表す。
type GenreCount struct {
	Genre      string
	Count      int
	Percentage float64
}

// Statistics は1回の集計結果を表す。
type Statistics struct {
	Year               int
	BooksRead          int // 読了済み蔵書の総数（全期間）
	PagesRead          int // 読了済み蔵書の総ページ数（ページ数不明は0として扱う）
	ReadingTimeMinutes int // 指定年に記録されたセッションの合計読書時間
	AverageRating      float64
	GenreDistribution  []GenreCount
	MonthlyBooks       [12]int // 指定年の月別読了冊数（1月=添字0）
	Goal               *model.ReadingGoal
}

// StatsService は読書統計のサービス層。
type StatsService struct {
	bookRepo    repository.BookRepository
	sessionRepo repository.SessionRepository
	reviewRepo  repository.ReviewRepository
	goalFinder  GoalFinder
}

// NewStatsService はStatsServiceの新しいインスタンスを生成する。
// goalFinderはnil許容で、nilの場合は目標なしとして集計する。
func NewStatsService(
	bookRepo repository.BookRepository,
	sessionRepo repository.SessionRepository,
	reviewRepo repository.ReviewRepository,
	goalFinder GoalFinder,
) *StatsService {
	return &StatsService{
		bookRepo:    bookRepo,
		sessionRepo: sessionRepo,
		reviewRepo:  reviewRepo,
		goalFinder:  goalFinder,
	}
}

// Compute は指定年の読書統計を集計する。
//
// 読了冊数・総ページ数・ジャンル分布は全期間の読了済み蔵書から、
// 読書時間は指定年内に記録されたセッションから、平均評価は全レビューから、
// 月別読了数は読了日が指定年に属する蔵書から導出する。
func (s *StatsService) Compute(ctx context.Context, year int) (*Statistics, error) {
	completed, err := s.bookRepo.ListByStatus(ctx, model.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("読了蔵書の取得に失敗しました: %w", err)
	}

	result := &Statistics{
		Year:      year,
		BooksRead: len(completed),
	}

	genreCounts := make(map[string]int)
	for _, book := range completed {
		if book.Pages != nil {
			result.PagesRead += *book.Pages
		}
		genreCounts[book.Genre]++

		if book.DateFinished != nil && book.DateFinished.Year() == year {
			result.MonthlyBooks[int(book.DateFinished.Month())-1]++
		}
	}
	result.GenreDistribution = buildGenreDistribution(genreCounts, len(completed))

	// 指定年内のセッションから読書時間を集計
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.Local)
	sessions, err := s.sessionRepo.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("読書セッションの集計に失敗しました: %w", err)
	}
	for _, sess := range sessions {
		result.ReadingTimeMinutes += sess.MinutesSpent
	}

	// 全レビューから平均評価を算出。
	// 評価なしレビューも母数に含め、評価0として扱う。
	reviews, err := s.reviewRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("レビューの集計に失敗しました: %w", err)
	}
	ratingSum := 0.0
	for _, review := range reviews {
		if review.Rating != nil {
			ratingSum += *review.Rating
		}
	}
	if len(reviews) > 0 {
		result.AverageRating = ratingSum / float64(len(reviews))
	}

	// 指定年の目標を添付（未設定はnil）
	if s.goalFinder != nil {
		goal, err := s.goalFinder.FindGoal(ctx, year)
		if err != nil {
			return nil, err
		}
		result.Goal = goal
	}

	return result, nil
}

// buildGenreDistribution はジャンル別冊数から構成比付きの分布を構築する。
// 冊数の降順、同数はジャンル名の昇順で整列する。
func buildGenreDistribution(genreCounts map[string]int, total int) []GenreCount {
	if total == 0 {
		return nil
	}

	distribution := make([]GenreCount, 0, len(genreCounts))
	for genre, count := range genreCounts {
		distribution = append(distribution, GenreCount{
			Genre:      genre,
			Count:      count,
			Percentage: float64(count) / float64(total) * 100,
		})
	}

	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count != distribution[j].Count {
			return distribution[i].Count > distribution[j].Count
		}
		return distribution[i].Genre < distribution[j].Genre
	})

	return distribution
}
