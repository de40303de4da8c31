package formatter

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"hello", -1, ""},
		{"𝗕𝗼𝗹𝗱 text", 4, "𝗕𝗼𝗹𝗱"},
		{"héllo", 2, "hé"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncate_PrefixOfExactLength(t *testing.T) {
	full, err := Format("<h1>Release notes</h1>" + strings.Repeat("<p>Shipped 42 fixes across the board.</p>", 200))
	if err != nil {
		t.Fatal(err)
	}
	const max = 2500
	if utf8.RuneCountInString(full) <= max {
		t.Fatalf("test input too short: %d runes", utf8.RuneCountInString(full))
	}
	got := Truncate(full, max)
	if n := utf8.RuneCountInString(got); n != max {
		t.Errorf("expected %d runes, got %d", max, n)
	}
	if !strings.HasPrefix(full, got) {
		t.Error("truncated text is not a prefix of the formatted text")
	}
	if !utf8.ValidString(got) {
		t.Error("truncated text is not valid UTF-8")
	}
}

func TestPostText(t *testing.T) {
	text, truncated, err := PostText("<p>short</p>", DefaultMaxPostLength)
	if err != nil {
		t.Fatal(err)
	}
	if text != "short" || truncated {
		t.Errorf("got %q truncated=%v", text, truncated)
	}

	text, truncated, err = PostText("<p>"+strings.Repeat("x", 30)+"</p>", 10)
	if err != nil {
		t.Fatal(err)
	}
	if text != strings.Repeat("x", 10) || !truncated {
		t.Errorf("got %q truncated=%v", text, truncated)
	}
}

func TestPostText_NormalizesDecomposedAccents(t *testing.T) {
	// "e" followed by U+0301 COMBINING ACUTE ACCENT composes to "é".
	text, _, err := PostText("<p>cafe\u0301</p>", 10)
	if err != nil {
		t.Fatal(err)
	}
	if text != "caf\u00e9" {
		t.Errorf("got %q, want %q", text, "caf\u00e9")
	}
}
