// internal/util/util_test.go
package util

import (
	"strings"
	"testing"
)

func TestHead(t *testing.T) {
	t.Parallel()

	if got := Head("こんにちは", 2); got != "こん" {
		t.Fatalf("Head multibyte=%q want こん", got)
	}
	if got := Head("short", 10); got != "short" {
		t.Fatalf("Head short=%q want short", got)
	}
	if got := Head("any", 0); got != "" {
		t.Fatalf("Head zero=%q want empty", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "no truncation", in: "hello", max: 10, want: "hello"},
		{name: "ascii truncation", in: "helloworld", max: 5, want: "hello…"},
		{name: "multibyte truncation", in: "こんにちは世界", max: 4, want: "こんにち…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Fatalf("TruncateRunes(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestWrapToWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{
			name:  "wrap words",
			text:  "one two three four",
			width: 10,
			want:  "one two\nthree four",
		},
		{
			name:  "long word split",
			text:  "supercalifragilisticexpialidocious",
			width: 5,
			want: strings.Join([]string{
				"super",
				"calif",
				"ragil",
				"istic",
				"expia",
				"lidoc",
				"ious",
			}, "\n"),
		},
		{
			name:  "preserve blank lines",
			text:  "para one\n\npara two",
			width: 20,
			want:  "para one\n\npara two",
		},
		{
			name:  "non-positive width no-op",
			text:  "no wrap",
			width: 0,
			want:  "no wrap",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WrapToWidth(tt.text, tt.width); got != tt.want {
				t.Fatalf("WrapToWidth(%q,%d)=%q want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}
