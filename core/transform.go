package core

import "gonum.org/v1/gonum/mat"

// MatrixAdapter は数値行列から直接統計を学習できる変換のインターフェース
type MatrixAdapter interface {
	// AdaptMatrix は行列データから状態を学習する
	AdaptMatrix(X mat.Matrix) error
}

// MatrixApplier は数値行列を直接変換できる変換のインターフェース
type MatrixApplier interface {
	// TransformMatrix は行列データを変換する
	TransformMatrix(X mat.Matrix) (mat.Matrix, error)
}

// MatrixTransform は数値行列に対する適応と変換をまとめたインターフェース
// gonumの行列を直接扱う利用者向けの簡易API
type MatrixTransform interface {
	MatrixAdapter
	MatrixApplier

	// AdaptTransformMatrix は適応と変換を同時に実行する
	AdaptTransformMatrix(X mat.Matrix) (mat.Matrix, error)
}

// MatrixInverter は行列変換を逆方向に適用できるインターフェース
type MatrixInverter interface {
	// InverseTransformMatrix は変換されたデータを元のスケールに戻す
	InverseTransformMatrix(X mat.Matrix) (mat.Matrix, error)
}
