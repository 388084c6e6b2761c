package transform

import (
	"encoding/json"
	"fmt"
)

// StateEnvelope は変換の適応済み状態を表す構造体（シリアライゼーション用）
// 学習済み状態を言語やプロセスをまたいで持ち運ぶための封筒形式
type StateEnvelope struct {
	// TransformType は変換の種類（Normalization, StringLookup等）
	TransformType string `json:"transform_type"`

	// Version は状態フォーマットのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Config は変換の構成パラメータ
	Config map[string]interface{} `json:"config"`

	// State は学習済み状態のJSONペイロード
	State json.RawMessage `json:"state,omitempty"`

	// Metadata は追加のメタデータ（適応時の統計等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsAdapted は変換が適応済みかどうか
	IsAdapted bool `json:"is_adapted"`
}

// ToJSON はStateEnvelopeをJSON形式にシリアライズ
func (se *StateEnvelope) ToJSON() ([]byte, error) {
	return json.MarshalIndent(se, "", "  ")
}

// FromJSON はJSON形式からStateEnvelopeをデシリアライズ
func (se *StateEnvelope) FromJSON(data []byte) error {
	return json.Unmarshal(data, se)
}

// Validate はStateEnvelopeの妥当性を検証
func (se *StateEnvelope) Validate() error {
	if se.TransformType == "" {
		return fmt.Errorf("transform_type is required")
	}

	if se.Version == "" {
		return fmt.Errorf("version is required")
	}

	if !se.IsAdapted && len(se.State) > 0 {
		return fmt.Errorf("unadapted transform should not have state payload")
	}

	if se.IsAdapted && len(se.State) == 0 {
		return fmt.Errorf("adapted transform must have state payload")
	}

	return nil
}

// Clone はStateEnvelopeのディープコピーを作成
func (se *StateEnvelope) Clone() *StateEnvelope {
	clone := &StateEnvelope{
		TransformType: se.TransformType,
		Version:       se.Version,
		IsAdapted:     se.IsAdapted,
		State:         make(json.RawMessage, len(se.State)),
		Config:        make(map[string]interface{}),
		Metadata:      make(map[string]interface{}),
	}

	copy(clone.State, se.State)

	for k, v := range se.Config {
		clone.Config[k] = v
	}

	for k, v := range se.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}

// SetState は任意の学習済み状態をJSONとして格納する
func (se *StateEnvelope) SetState(state interface{}) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	se.State = data
	se.IsAdapted = true
	return nil
}

// DecodeState は格納された状態ペイロードをデコードする
func (se *StateEnvelope) DecodeState(out interface{}) error {
	if len(se.State) == 0 {
		return fmt.Errorf("envelope has no state payload")
	}
	return json.Unmarshal(se.State, out)
}
