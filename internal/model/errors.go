// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: book, review, goal, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBookNotFound   = "BOOK_NOT_FOUND"
	ErrCodeReviewNotFound = "REVIEW_NOT_FOUND"
	ErrCodeGoalNotFound   = "GOAL_NOT_FOUND"
	ErrCodeInvalidSession = "INVALID_SESSION"
	ErrCodeInvalidRating  = "INVALID_RATING"
	ErrCodeInvalidStatus  = "INVALID_STATUS"
	ErrCodeInvalidGoal    = "INVALID_GOAL"
	ErrCodeInvalidBook    = "INVALID_BOOK"
)

// NewBookNotFoundError は蔵書未検出エラーを生成する。
func NewBookNotFoundError(bookID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("指定された蔵書が見つかりません: %s", bookID),
		Category: "book",
		Action:   "蔵書IDを確認してください。",
	}
}

// NewReviewNotFoundError はレビュー未検出エラーを生成する。
func NewReviewNotFoundError(reviewID string) *APIError {
	return &APIError{
		Code:     ErrCodeReviewNotFound,
		Message:  fmt.Sprintf("指定されたレビューが見つかりません: %s", reviewID),
		Category: "review",
		Action:   "レビューIDを確認してください。",
	}
}

// NewGoalNotFoundError は読書目標未検出エラーを生成する。
func NewGoalNotFoundError(year int) *APIError {
	return &APIError{
		Code:     ErrCodeGoalNotFound,
		Message:  fmt.Sprintf("%d年の読書目標が設定されていません。", year),
		Category: "goal",
		Action:   "先に読書目標を作成してください。",
	}
}

// NewInvalidSessionError は読書セッション入力の検証エラーを生成する。
// ページ数が0以下、または読書時間が負の場合に使用する。
func NewInvalidSessionError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSession,
		Message:  fmt.Sprintf("無効な読書セッションです: %s", reason),
		Category: "validation",
		Action:   "ページ数は正の整数、読書時間は0以上の整数を指定してください。",
	}
}

// NewInvalidRatingError は評価値の検証エラーを生成する。
func NewInvalidRatingError(rating float64) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %g", rating),
		Category: "validation",
		Action:   "評価は0.5〜5.0の範囲で0.5刻みで指定してください。",
	}
}

// NewInvalidStatusError は無効なステータスエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには want_to_read、reading、completed のいずれかを指定してください。",
	}
}

// NewInvalidGoalError は読書目標入力の検証エラーを生成する。
func NewInvalidGoalError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidGoal,
		Message:  fmt.Sprintf("無効な読書目標です: %s", reason),
		Category: "validation",
		Action:   "目標冊数は正の整数を指定してください。",
	}
}

// NewInvalidBookError は蔵書入力の検証エラーを生成する。
func NewInvalidBookError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBook,
		Message:  fmt.Sprintf("無効な蔵書データです: %s", reason),
		Category: "validation",
		Action:   "タイトル・著者・ジャンルは必須です。",
	}
}
