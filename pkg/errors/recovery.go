package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError は回復されたパニックを表すエラーです。
// パニック発生時のゴルーチンスタックと、どの操作中に発生したかを保持します。
type PanicError struct {
	Op    string      // パニックを回復した操作（例: "Pipeline.Adapt"）
	Value interface{} // panic() に渡された値
	Stack string      // 回復時点のスタックトレース
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("adaptgo: panic in %s: %v", e.Op, e.Value)
}

// Unwrap はパニック値がエラーだった場合にそのエラーを返します。
// panic(err) で中断された処理に対しても errors.Is / errors.As が機能します。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("panic_value", fmt.Sprintf("%v", e.Value)).
		Str("type", "PanicError")
}

// NewPanicError は現在のゴルーチンスタックを記録したPanicErrorを作成します。
func NewPanicError(op string, value interface{}) *PanicError {
	return &PanicError{Op: op, Value: value, Stack: string(debug.Stack())}
}

// Recover はdeferから呼び出し、パニックをエラーに変換して *err に割り当てます。
//
// 使用例:
//
//	func (p *Pipeline) Adapt(batch *transform.Batch) (err error) {
//	    defer errors.Recover(&err, "Pipeline.Adapt")
//	    // ...
//	}
//
// パニック発生時点で *err が既に設定されていた場合は、元のエラーを
// パニック情報でラップします。errors.Is による元エラーの判定は維持されます。
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", op, r)
		return
	}
	*err = errors.WithStack(NewPanicError(op, r))
}

// SafeExecute はfnを実行し、パニックが発生した場合はPanicErrorとして返します。
// fnが通常のエラーを返した場合は、そのエラーを加工せずそのまま返します。
func SafeExecute(op string, fn func() error) (err error) {
	defer Recover(&err, op)
	return fn()
}
