// Package model はドメインモデルを定義する。
package model

// ReadingGoal は年間の読書目標を表す。年ごとに1つだけ存在する。
// Completedは BooksRead >= TargetBooks の導出値であり、
// 目標の更新・読了数の加算のたびに再計算される。
type ReadingGoal struct {
	ID          string
	Year        int
	TargetBooks int
	BooksRead   int
	Completed   bool
}
