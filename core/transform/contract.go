package transform

// Applier は適応済み状態を使ってバッチを変換するインターフェース
type Applier interface {
	// Transform は学習済みの状態を使ってバッチを変換する
	// 未適応の場合は NotAdaptedError を返す
	Transform(b *Batch) (*Batch, error)
}

// AdaptableTransform は適応可能な前処理変換のインターフェース
// Kerasの前処理レイヤーの adapt()/apply ライフサイクルと互換性を持つ
type AdaptableTransform interface {
	Applier

	// Name は変換の名前を返す（ログ・エラーメッセージで使用）
	Name() string

	// Adapt はデータセットから状態（統計・語彙・境界など）を学習する
	// 再度呼び出すと以前の状態は破棄され、新しいデータのみから再計算される
	Adapt(b *Batch) error

	// AdaptTransform はAdaptとTransformを同時に実行する
	AdaptTransform(b *Batch) (*Batch, error)

	// IsAdapted は適応済みかどうかを返す
	IsAdapted() bool
}

// StreamingAdapter は適応をチャンク単位で実行できる変換のインターフェース
// 全データがメモリに載らない場合に reset/update/finalize の3段階で適応する
type StreamingAdapter interface {
	AdaptableTransform

	// ResetState は蓄積された統計と適応済み状態を破棄する
	ResetState()

	// UpdateState は1チャンク分のデータを統計に取り込む
	UpdateState(b *Batch) error

	// FinalizeState は蓄積された統計から適応済み状態を確定する
	// 一度もUpdateStateされていない場合は ErrEmptySample を返す
	FinalizeState() error
}
