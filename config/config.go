// Package config はYAMLで記述したパイプライン仕様の読み込みと組み立てを
// 提供する。変換の種類とパラメータ、および事前計算済みの語彙・境界・IDF重み
// （インラインまたはファイル参照）を宣言的に記述できる。
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/adaptgo/core/transform"
	"github.com/YuminosukeSato/adaptgo/encode"
	"github.com/YuminosukeSato/adaptgo/pkg/errors"
	"github.com/YuminosukeSato/adaptgo/preprocessing"
	"github.com/YuminosukeSato/adaptgo/text"
	"github.com/YuminosukeSato/adaptgo/vocab"
)

// PipelineSpec はパイプライン全体の構成
type PipelineSpec struct {
	// Name はパイプラインの名前（ストアへの保存時の既定名）
	Name string `yaml:"name"`

	// Steps は適用順に並べた変換の構成
	Steps []StepSpec `yaml:"steps"`
}

// StepSpec は1変換の構成
// Kindに応じて使用されるフィールドが決まり、関係のないフィールドは無視される
type StepSpec struct {
	// Kind は変換の種類（normalization, discretization, string_lookup,
	// integer_lookup, hashing, text_vectorizer）
	Kind string `yaml:"kind"`

	// Epsilon はnormalizationの分散に加算する微小値（0なら既定値）
	Epsilon float64 `yaml:"epsilon,omitempty"`

	// NumBuckets はdiscretizationのバケット数（0なら既定値）
	NumBuckets int `yaml:"num_buckets,omitempty"`

	// Boundaries はdiscretizationの事前計算済み境界（列ごと）
	// 指定すると適応済みとして構築される
	Boundaries [][]float64 `yaml:"boundaries,omitempty"`

	// MaxTokens は語彙の最大サイズ（予約スロット2個を含む、0は無制限）
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// MinFrequency は語彙に採用する最小出現回数（0なら1）
	MinFrequency int64 `yaml:"min_frequency,omitempty"`

	// Vocabulary は事前計算済みの語彙（string_lookup / text_vectorizer）
	Vocabulary []string `yaml:"vocabulary,omitempty"`

	// VocabularyFile は語彙ファイルへのパス（1行1トークン）
	VocabularyFile string `yaml:"vocabulary_file,omitempty"`

	// Values はinteger_lookupの事前計算済みの語彙
	Values []int64 `yaml:"values,omitempty"`

	// NumBins はhashingのバケット数
	NumBins int `yaml:"num_bins,omitempty"`

	// Salt はhashingのソルト
	Salt int64 `yaml:"salt,omitempty"`

	// OutputMode はtext_vectorizerの出力形式（int, count, multi_hot, tf_idf）
	OutputMode string `yaml:"output_mode,omitempty"`

	// Standardize はtext_vectorizerの正規化方法
	// （lower_and_strip_punctuation, lower, strip_punctuation, none）
	Standardize string `yaml:"standardize,omitempty"`

	// Ngrams は展開するn-gramの次数
	Ngrams int `yaml:"ngrams,omitempty"`

	// NgramMode はn-gramの出力範囲（all_orders, ngrams_only）
	NgramMode string `yaml:"ngram_mode,omitempty"`

	// OutputSequenceLength はintモードの固定出力長
	OutputSequenceLength int `yaml:"output_sequence_length,omitempty"`

	// IdfWeights は実トークンごとの事前計算済みIDF重み
	// Vocabularyと同じ並びで、tf_idfモードを指定する
	IdfWeights []float64 `yaml:"idf_weights,omitempty"`
}

// Load はYAMLファイルからパイプライン仕様を読み込む
//
// パラメータ:
//   - path: YAMLファイルへのパス
//
// 戻り値:
//   - *PipelineSpec: 検証済みの仕様
//   - error: 読み込みまたは検証に失敗した場合
//
// 使用例:
//
//	spec, err := config.Load("pipeline.yaml")
//	pipe, err := spec.Build()
//	err = pipe.Adapt(batch)
func Load(path string) (*PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config.Load")
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config.Load: %s", path)
	}
	return spec, nil
}

// Parse はYAMLバイト列からパイプライン仕様を読み込む
func Parse(data []byte) (*PipelineSpec, error) {
	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.Wrap(err, "config.Parse")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate は仕様の構造を検証する
// 個々のパラメータ値の検証は各変換のコンストラクタが行う
func (s *PipelineSpec) Validate() error {
	if len(s.Steps) == 0 {
		return errors.NewValidationError("steps", "pipeline spec requires at least one step", len(s.Steps))
	}
	for i, step := range s.Steps {
		switch step.Kind {
		case "normalization", "discretization", "string_lookup",
			"integer_lookup", "hashing", "text_vectorizer":
		case "":
			return errors.NewValidationError("kind",
				"step requires a transform kind", i)
		default:
			return errors.NewValidationError("kind", "unknown transform kind", step.Kind)
		}
	}
	return nil
}

// Build は仕様からパイプラインを組み立てる
// 語彙・境界・IDF重みが与えられたステップは適応済みとして構築され、
// それ以外のステップはAdaptで学習する
func (s *PipelineSpec) Build() (*preprocessing.Pipeline, error) {
	steps := make([]transform.AdaptableTransform, len(s.Steps))
	for i := range s.Steps {
		t, err := s.Steps[i].build()
		if err != nil {
			return nil, errors.Wrapf(err, "config.Build: step %d (%s)", i, s.Steps[i].Kind)
		}
		steps[i] = t
	}
	return preprocessing.NewPipeline(steps...)
}

func (st *StepSpec) build() (transform.AdaptableTransform, error) {
	switch st.Kind {
	case "normalization":
		if st.Epsilon == 0 {
			return preprocessing.NewNormalizationDefault(), nil
		}
		return preprocessing.NewNormalization(st.Epsilon)

	case "discretization":
		if len(st.Boundaries) > 0 {
			return preprocessing.NewDiscretizationFromBoundaries(st.Boundaries)
		}
		if st.NumBuckets == 0 {
			return preprocessing.NewDiscretizationDefault(), nil
		}
		return preprocessing.NewDiscretization(st.NumBuckets)

	case "string_lookup":
		if len(st.Vocabulary) > 0 && st.VocabularyFile != "" {
			return nil, errors.NewValidationError("vocabulary",
				"inline vocabulary and vocabulary_file are mutually exclusive", st.VocabularyFile)
		}
		if len(st.Vocabulary) > 0 {
			return preprocessing.NewStringLookupFromTokens(st.Vocabulary)
		}
		if st.VocabularyFile != "" {
			return preprocessing.NewStringLookupFromFile(st.VocabularyFile)
		}
		return preprocessing.NewStringLookup(st.MaxTokens, st.minFrequencyOrDefault())

	case "integer_lookup":
		if len(st.Values) > 0 {
			return preprocessing.NewIntegerLookupFromValues(st.Values)
		}
		return preprocessing.NewIntegerLookup(st.MaxTokens, st.minFrequencyOrDefault())

	case "hashing":
		return preprocessing.NewHashing(st.NumBins, st.Salt)

	case "text_vectorizer":
		return st.buildVectorizer()
	}
	return nil, errors.NewValidationError("kind", "unknown transform kind", st.Kind)
}

func (st *StepSpec) minFrequencyOrDefault() int64 {
	if st.MinFrequency <= 0 {
		return 1
	}
	return st.MinFrequency
}

func (st *StepSpec) buildVectorizer() (transform.AdaptableTransform, error) {
	var opts []preprocessing.VectorizerOption
	if st.Standardize != "" {
		std, err := text.ParseStandardize(st.Standardize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, preprocessing.WithStandardize(std))
	}
	if st.OutputMode != "" {
		mode, err := encode.ParseMode(st.OutputMode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, preprocessing.WithOutputMode(mode))
	}
	if st.Ngrams > 0 {
		mode, err := text.ParseNgramMode(st.NgramMode)
		if err != nil {
			return nil, err
		}
		if mode == text.NgramModeOnly {
			opts = append(opts, preprocessing.WithNgramsOnly(st.Ngrams))
		} else {
			opts = append(opts, preprocessing.WithNgrams(st.Ngrams))
		}
	} else if st.NgramMode != "" {
		return nil, errors.NewValidationError("ngram_mode",
			"ngram_mode requires a positive ngrams order", st.NgramMode)
	}
	if st.MaxTokens > 0 {
		opts = append(opts, preprocessing.WithMaxTokens(st.MaxTokens))
	}
	if st.MinFrequency > 0 {
		opts = append(opts, preprocessing.WithMinFrequency(st.MinFrequency))
	}
	if st.OutputSequenceLength > 0 {
		opts = append(opts, preprocessing.WithOutputSequenceLength(st.OutputSequenceLength))
	}
	if len(st.IdfWeights) > 0 {
		opts = append(opts, preprocessing.WithIdfWeights(st.IdfWeights))
	}

	if len(st.Vocabulary) > 0 && st.VocabularyFile != "" {
		return nil, errors.NewValidationError("vocabulary",
			"inline vocabulary and vocabulary_file are mutually exclusive", st.VocabularyFile)
	}
	if len(st.Vocabulary) > 0 {
		return preprocessing.NewTextVectorizerFromVocabulary(st.Vocabulary, opts...)
	}
	if st.VocabularyFile != "" {
		state, err := vocab.LoadTokenFile(st.VocabularyFile)
		if err != nil {
			return nil, err
		}
		return preprocessing.NewTextVectorizerFromVocabulary(state.Tokens(), opts...)
	}
	return preprocessing.NewTextVectorizer(opts...)
}
