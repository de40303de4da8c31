package formatter

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestBold_Mapping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABCXYZ", "𝗔𝗕𝗖𝗫𝗬𝗭"},
		{"abcjxyz", "𝗮𝗯𝗰𝗷𝘅𝘆𝘇"},
		{"0189", "𝟬𝟭𝟴𝟵"},
		{"Hi, 2025!", "𝗛𝗶, 𝟮𝟬𝟮𝟱!"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Bold(tt.in); got != tt.want {
			t.Errorf("Bold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBold_IdentityOutsideASCIIAlnum(t *testing.T) {
	inputs := []string{
		"",
		"   \t\n",
		"!@#$%^&*()_+-=[]{};':\",./<>?",
		"Привет мир",
		"日本語のテキスト",
		"émigré ß ü",
		"👋🏽 🚀",
	}
	for _, in := range inputs {
		if got := Bold(in); got != in {
			t.Errorf("Bold(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestBold_PreservesLength(t *testing.T) {
	inputs := []string{
		"plain ascii text 123",
		"mixed Ünïcödé and ASCII",
		"🚀 launch v2 🚀",
		strings.Repeat("aZ9", 100),
	}
	for _, in := range inputs {
		got := Bold(in)
		if utf8.RuneCountInString(got) != utf8.RuneCountInString(in) {
			t.Errorf("Bold(%q): got %d runes, want %d", in, utf8.RuneCountInString(got), utf8.RuneCountInString(in))
		}
		if Bold(in) != got {
			t.Errorf("Bold(%q) is not deterministic", in)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "heading then paragraph",
			markup: "<h1>Title</h1><p>body</p>",
			want:   Bold("Title") + "\n\nbody",
		},
		{
			name:   "consecutive paragraphs collapse",
			markup: "<p>A</p><p>B</p>",
			want:   "A\n\nB",
		},
		{
			name:   "nested lists",
			markup: "<ul><li>one<ul><li>two</li></ul></li></ul>",
			want:   "- one\n  - two",
		},
		{
			name:   "ordered list uses bullets",
			markup: "<ol><li>first</li><li>second</li></ol>",
			want:   "- first\n- second",
		},
		{
			name:   "mixed list nesting counts both containers",
			markup: "<ol><li>a<ul><li>b<ol><li>c</li></ol></li></ul></li></ol>",
			want:   "- a\n  - b\n    - c",
		},
		{
			name:   "table flattening",
			markup: "<table><tr><td>a</td><td>b</td></tr></table>",
			want:   "a\tb",
		},
		{
			name:   "table with header row",
			markup: "<table><tr><th>k</th><th>v</th></tr><tr><td>1</td><td>2</td></tr></table>",
			want:   "k\tv\n\t1\t2",
		},
		{
			name:   "whitespace only leaves dropped",
			markup: "<p>   </p><p>text</p>",
			want:   "text",
		},
		{
			name:   "strong text is bolded",
			markup: "<p>Say <strong>hello</strong> world</p>",
			want:   "Say" + Bold("hello") + "world",
		},
		{
			name:   "b tag is bolded",
			markup: "<p><b>Note</b></p>",
			want:   Bold("Note"),
		},
		{
			name:   "emphasis is not bolded",
			markup: "<p><em>quiet</em></p>",
			want:   "quiet",
		},
		{
			name:   "only text directly after heading is bold",
			markup: "<h2>Top <em>inner</em></h2>",
			want:   Bold("Top") + "inner",
		},
		{
			name:   "strong inside heading",
			markup: "<h3><strong>Deep</strong></h3>",
			want:   Bold("Deep"),
		},
		{
			name:   "line break inside paragraph",
			markup: "<p>line one<br>line two</p>",
			want:   "line one\n\nline two",
		},
		{
			name:   "br after paragraph does not stack",
			markup: "<p>a</p><br><br><p>b</p>",
			want:   "a\n\nb",
		},
		{
			name:   "h5 and unknown tags are skipped",
			markup: "<h5>small</h5><custom-tag>x</custom-tag><span>y</span>",
			want:   "smallxy",
		},
		{
			name:   "comments are ignored",
			markup: "<p>a<!-- hidden --></p>",
			want:   "a",
		},
		{
			name:   "stray list item is not indented",
			markup: "<li>orphan</li>",
			want:   "- orphan",
		},
		{
			name:   "plain text",
			markup: "  just words  ",
			want:   "just words",
		},
		{
			name:   "empty document",
			markup: "",
			want:   "",
		},
		{
			name:   "editor output",
			markup: "<h1>Weekly</h1><p>Intro</p><ul><li><p>first</p></li><li><p>second</p></li></ul><p><br></p><p>Bye</p>",
			want:   Bold("Weekly") + "\n\nIntro\n- \n\nfirst\n- \n\nsecond\n\nBye",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.markup)
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Format(%q) mismatch (-want +got):\n%s", tt.markup, diff)
			}
		})
	}
}

func TestFormat_InvalidUTF8(t *testing.T) {
	_, err := Format("<p>\xff\xfe</p>")
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestFormat_Concurrent(t *testing.T) {
	const markup = "<h1>Title</h1><ul><li>one</li><li>two</li></ul>"
	want, err := Format(markup)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Format(markup)
			if err != nil || got != want {
				t.Errorf("concurrent Format = %q, %v", got, err)
			}
		}()
	}
	wg.Wait()
}
