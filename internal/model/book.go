// Package model はドメインモデルを定義する。
package model

import "time"

// Book は蔵書1冊を表す。
// Pages・Progressはnil許容で、「総ページ数不明」「進捗未導出」を区別する。
type Book struct {
	ID           string
	Title        string
	Author       string
	Genre        string
	CoverURL     string
	CoverData    []byte // キャッシュ済みカバー画像
	CoverMime    string
	Pages        *int // 総ページ数。不明の場合はnil
	Status       Status
	Progress     *int // 読了率（0〜100）。未導出の場合はnil
	Description  string
	IsWishlist   bool
	Tags         []string
	DateAdded    time.Time
	DateStarted  *time.Time // readingへの遷移時に設定
	DateFinished *time.Time // completedへの遷移時に設定
}

// Status は蔵書のライフサイクル状態を表す。
type Status string

const (
	// StatusWantToRead は読みたい本の状態。
	StatusWantToRead Status = "want_to_read"
	// StatusReading は読書中の状態。
	StatusReading Status = "reading"
	// StatusCompleted は読了済みの状態。
	StatusCompleted Status = "completed"
)

// IsValidStatus はステータス文字列が定義済みの値かを判定する。
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusWantToRead, StatusReading, StatusCompleted:
		return true
	default:
		return false
	}
}
