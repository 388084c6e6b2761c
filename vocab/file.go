package vocab

import (
	"bufio"
	"io"
	"os"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// LoadTokenFile は1行1トークンの語彙ファイルから状態を作る
// (Kerasのvocabularyファイルと同じ形式)。各行の内容がそのまま
// トークンになり、並び順が索引順になる。重複行や予約スロットと
// 衝突する行は ValidationError になる。
func LoadTokenFile(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "vocab.LoadTokenFile")
	}
	defer f.Close()

	tokens, err := readTokenLines(f)
	if err != nil {
		return nil, errors.Wrap(err, "vocab.LoadTokenFile")
	}
	return NewStateFromTokens(tokens)
}

func readTokenLines(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}
