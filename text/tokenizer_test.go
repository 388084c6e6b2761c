package text

import (
	"slices"
	"testing"
)

func TestTokenizeDefault(t *testing.T) {
	tok := NewTokenizerDefault()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercase and strip punctuation",
			text: "The quick brown Fox!",
			want: []string{"the", "quick", "brown", "fox"},
		},
		{
			name: "punctuation removed without separators",
			text: "don't stop",
			want: []string{"dont", "stop"},
		},
		{
			name: "multiple spaces and tabs",
			text: "a  b\tc\n d",
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "punctuation only",
			text: "!?! ... --",
			want: nil,
		},
		{
			name: "cjk with brackets",
			text: "「こんにちは」 世界",
			want: []string{"こんにちは", "世界"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeStandardizeModes(t *testing.T) {
	text := "Hello, World."

	tests := []struct {
		name        string
		standardize Standardize
		want        []string
	}{
		{name: "lower and strip", standardize: StandardizeLowerStripPunct, want: []string{"hello", "world"}},
		{name: "lower only", standardize: StandardizeLower, want: []string{"hello,", "world."}},
		{name: "strip only", standardize: StandardizeStripPunct, want: []string{"Hello", "World"}},
		{name: "none", standardize: StandardizeNone, want: []string{"Hello,", "World."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTokenizer(tt.standardize).Tokenize(text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", text, got, tt.want)
			}
		})
	}
}

func TestStreamMatchesTokenize(t *testing.T) {
	tok := NewTokenizerDefault()

	texts := []string{
		"The quick brown fox jumps over the lazy dog.",
		"  leading and trailing  ",
		"one",
		"",
		"Punct-uation; everywhere! (really)",
	}

	for _, text := range texts {
		want := tok.Tokenize(text)

		var got []string
		for token := range tok.Stream(text) {
			got = append(got, token)
		}

		if !slices.Equal(got, want) {
			t.Errorf("Stream(%q) = %v, Tokenize = %v", text, got, want)
		}
	}
}

func TestStreamRestartable(t *testing.T) {
	tok := NewTokenizerDefault()
	seq := tok.Stream("alpha beta gamma")

	collect := func() []string {
		var out []string
		for token := range seq {
			out = append(out, token)
		}
		return out
	}

	first := collect()
	second := collect()
	if !slices.Equal(first, second) {
		t.Errorf("re-ranging the stream gave %v then %v", first, second)
	}
	if !slices.Equal(first, []string{"alpha", "beta", "gamma"}) {
		t.Errorf("stream = %v, want [alpha beta gamma]", first)
	}
}

func TestStreamEarlyStop(t *testing.T) {
	tok := NewTokenizerDefault()

	var got []string
	for token := range tok.Stream("a b c d e") {
		got = append(got, token)
		if len(got) == 2 {
			break
		}
	}

	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("early-stopped stream = %v, want [a b]", got)
	}
}

func TestStreamBoundedByInputLength(t *testing.T) {
	tok := NewTokenizer(StandardizeNone)
	text := "a b c"

	count := 0
	for range tok.Stream(text) {
		count++
		if count > len(text) {
			t.Fatalf("stream yielded more than len(text)=%d tokens", len(text))
		}
	}
	if count != 3 {
		t.Errorf("stream yielded %d tokens, want 3", count)
	}
}
