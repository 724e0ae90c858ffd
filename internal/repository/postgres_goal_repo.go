package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresGoalRepo はPostgreSQLを使用した読書目標リポジトリ。
type PostgresGoalRepo struct {
	db *sql.DB
}

// NewPostgresGoalRepo はPostgresGoalRepoを生成する。
func NewPostgresGoalRepo(db *sql.DB) *PostgresGoalRepo {
	return &PostgresGoalRepo{db: db}
}

// FindByYear は指定年の読書目標を取得する。見つからない場合はnilを返す。
func (r *PostgresGoalRepo) FindByYear(ctx context.Context, year int) (*model.ReadingGoal, error) {
	goal := &model.ReadingGoal{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, year, target_books, books_read, completed
		 FROM reading_goals WHERE year = $1`,
		year,
	).Scan(&goal.ID, &goal.Year, &goal.TargetBooks, &goal.BooksRead, &goal.Completed)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("読書目標の取得に失敗しました: %w", err)
	}

	return goal, nil
}

// Create は読書目標を作成する。
func (r *PostgresGoalRepo) Create(ctx context.Context, goal *model.ReadingGoal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reading_goals (id, year, target_books, books_read, completed)
		 VALUES ($1, $2, $3, $4, $5)`,
		goal.ID, goal.Year, goal.TargetBooks, goal.BooksRead, goal.Completed,
	)
	if err != nil {
		return fmt.Errorf("読書目標の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は読書目標を上書き更新する。
func (r *PostgresGoalRepo) Update(ctx context.Context, goal *model.ReadingGoal) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reading_goals SET target_books = $2, books_read = $3, completed = $4
		 WHERE year = $1`,
		goal.Year, goal.TargetBooks, goal.BooksRead, goal.Completed,
	)
	if err != nil {
		return fmt.Errorf("読書目標の更新に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ GoalRepository = (*PostgresGoalRepo)(nil)
