// Package model はドメインモデルを定義する。
package model

import "time"

// ReadingSession は1回の読書記録を表す。
// 作成後は不変で、更新・削除操作は提供されない。
// 削除されるのは所属する蔵書の削除に伴うカスケードのみ。
type ReadingSession struct {
	ID           string
	BookID       string
	PagesRead    int // このセッションで読んだページ数（正の整数）
	MinutesSpent int // 読書時間（分）
	Date         time.Time
}
