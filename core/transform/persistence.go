package transform

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SaveTransform は変換の適応済み状態をファイルに保存する
//
// パラメータ:
//   - t: 保存する変換（BaseTransformを埋め込んだ構造体）
//   - filename: 保存先のファイルパス
//
// 戻り値:
//   - error: 保存に失敗した場合のエラー
//
// 使用例:
//
//	var norm preprocessing.Normalization
//	// ... 変換の適応 ...
//	err := transform.SaveTransform(&norm, "norm.gob")
func SaveTransform(t interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(t); err != nil {
		return fmt.Errorf("failed to encode transform: %w", err)
	}

	return nil
}

// LoadTransform はファイルから変換の適応済み状態を読み込む
//
// パラメータ:
//   - t: 読み込み先の変換（BaseTransformを埋め込んだ構造体のポインタ）
//   - filename: 読み込み元のファイルパス
//
// 戻り値:
//   - error: 読み込みに失敗した場合のエラー
//
// 使用例:
//
//	var norm preprocessing.Normalization
//	err := transform.LoadTransform(&norm, "norm.gob")
func LoadTransform(t interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(t); err != nil {
		return fmt.Errorf("failed to decode transform: %w", err)
	}

	return nil
}

// SaveTransformToWriter は変換をio.Writerに保存する
//
// パラメータ:
//   - t: 保存する変換
//   - w: 保存先のWriter
//
// 戻り値:
//   - error: 保存に失敗した場合のエラー
func SaveTransformToWriter(t interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(t); err != nil {
		return fmt.Errorf("failed to encode transform: %w", err)
	}
	return nil
}

// LoadTransformFromReader はio.Readerから変換を読み込む
//
// パラメータ:
//   - t: 読み込み先の変換（ポインタ）
//   - r: 読み込み元のReader
//
// 戻り値:
//   - error: 読み込みに失敗した場合のエラー
func LoadTransformFromReader(t interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(t); err != nil {
		return fmt.Errorf("failed to decode transform: %w", err)
	}
	return nil
}
