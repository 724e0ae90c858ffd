// Package model はドメインモデルを定義する。
package model

import "time"

// Review は蔵書へのレビューを表す。
// Ratingは0.5〜5.0の0.5刻み。未評価の場合はnil。
type Review struct {
	ID           string
	BookID       string
	Rating       *float64
	Content      string // サニタイズ済みHTML
	Tags         []string
	DateReviewed time.Time
}

// IsValidRating は評価値が0.5〜5.0の0.5刻みかを判定する。
func IsValidRating(rating float64) bool {
	if rating < 0.5 || rating > 5.0 {
		return false
	}
	doubled := rating * 2
	return doubled == float64(int(doubled))
}
