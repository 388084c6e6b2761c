package transform

// AdaptState は変換の適応状態を表す
type AdaptState int

const (
	// NotAdapted は変換が未適応の状態
	NotAdapted AdaptState = iota
	// Adapted は変換が適応済みの状態
	Adapted
)

// BaseTransform は全ての変換の基底となる構造体
type BaseTransform struct {
	state AdaptState
}

// IsAdapted は変換が適応済みかどうかを返す
func (t *BaseTransform) IsAdapted() bool {
	return t.state == Adapted
}

// SetAdapted は変換を適応済み状態に設定する
func (t *BaseTransform) SetAdapted() {
	t.state = Adapted
}

// Reset は変換を初期状態にリセットする
func (t *BaseTransform) Reset() {
	t.state = NotAdapted
}
