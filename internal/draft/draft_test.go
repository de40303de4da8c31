package draft

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/linkpost/internal/doctree"
	"github.com/dgallion1/linkpost/internal/formatter"
)

func TestTextParser_Paragraphs(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.  \n\n\nSecond paragraph.\r\n\r\nThird paragraph."
	tree, err := (&TextParser{}).Parse(strings.NewReader(input), "dir/notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &doctree.DocTree{
		Title: "notes",
		Children: []*doctree.DocNode{
			{Text: "First paragraph line one.\nFirst paragraph line two."},
			{Text: "Second paragraph."},
			{Text: "Third paragraph."},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_Structure(t *testing.T) {
	input := "Lead in.\n\n# Launch\n\nWe shipped **v2**.\nSecond line.\n\n## Numbers\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n- one\n- [two](https://x.example)\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "post.markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &doctree.DocTree{
		Title: "post",
		Children: []*doctree.DocNode{
			{Text: "Lead in."},
			{
				Title: "Launch",
				Text:  "We shipped v2.\nSecond line.",
				Children: []*doctree.DocNode{{
					Title: "Numbers",
					Children: []*doctree.DocNode{
						{Rows: [][]string{{"a", "b"}, {"1", "2"}}},
						{Text: "- one\n- two"},
					},
				}},
			},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := "# Title\n\nIntro.\n\n## A\n\nA text.\n\n### A1\n\nA1 text.\n\n## B\n\nB text.\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(tree.Children))
	}
	h1 := tree.Children[0]
	if len(h1.Children) != 2 || h1.Children[0].Title != "A" || h1.Children[1].Title != "B" {
		t.Fatalf("unexpected h2 layout: %+v", h1.Children)
	}
	if got := h1.Children[0].Children[0].Text; got != "A1 text." {
		t.Errorf("expected A1 text, got %q", got)
	}
}

func TestMarkdownParser_CodeBlockKeptVerbatim(t *testing.T) {
	input := "Endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatal(err)
	}
	want := "Endpoints:\n\nGET /api/users\nPOST /api/users"
	if got := tree.Children[0].Text; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHTMLParser(t *testing.T) {
	input := `<html><head><title>Doc Title</title><style>p{}</style></head><body>
<nav>menu</nav>
<h1>Intro</h1>
<p>Hello   <b>world</b><br>again</p>
<ul><li>a</li><li>b <i>c</i></li></ul>
<h2>Data</h2>
<table><tr><th>k</th><th>v</th></tr><tr><td>x</td><td>1</td></tr></table>
<script>x()</script>
</body></html>`
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatal(err)
	}
	want := &doctree.DocTree{
		Title: "Doc Title",
		Children: []*doctree.DocNode{{
			Title: "Intro",
			Text:  "Hello world\nagain\n\n- a\n- b c",
			Children: []*doctree.DocNode{{
				Title:    "Data",
				Children: []*doctree.DocNode{{Rows: [][]string{{"k", "v"}, {"x", "1"}}}},
			}},
		}},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVParser(t *testing.T) {
	input := "name, role\nAda,Engineer\n,\nGrace,\"Rear Admiral\"\n"
	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "team.csv")
	if err != nil {
		t.Fatal(err)
	}
	want := &doctree.DocTree{
		Title: "team",
		Children: []*doctree.DocNode{{Rows: [][]string{
			{"name", "role"},
			{"Ada", "Engineer"},
			{"Grace", "Rear Admiral"},
		}}},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVParser_CapsRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("n\n")
	for i := range MaxCSVRows + 10 {
		sb.WriteString(strings.Repeat("x", i%3+1) + "\n")
	}
	tree, err := (&CSVParser{}).Parse(strings.NewReader(sb.String()), "big.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected table plus note, got %d children", len(tree.Children))
	}
	if got := len(tree.Children[0].Rows); got != MaxCSVRows+1 {
		t.Errorf("expected %d rows incl. header, got %d", MaxCSVRows+1, got)
	}
	if !strings.Contains(tree.Children[1].Text, "first 50 rows") {
		t.Errorf("unexpected note %q", tree.Children[1].Text)
	}
}

func TestMarkup(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "ignored",
		Children: []*doctree.DocNode{
			{Text: "Lead <in> & out."},
			{
				Title: "Launch",
				Text:  "line one\nline two\n\nsecond para",
				Children: []*doctree.DocNode{{
					Title: "Numbers",
					Rows:  [][]string{{"a", "b"}, {"1", "2"}},
					Children: []*doctree.DocNode{{
						Title:    "Deep",
						Children: []*doctree.DocNode{{Title: "Deeper"}, {Title: "Deepest"}},
					}},
				}},
			},
		},
	}
	got, err := Markup(tree)
	if err != nil {
		t.Fatal(err)
	}
	want := `<p>Lead &lt;in&gt; &amp; out.</p>` +
		`<h1>Launch</h1><p>line one<br/>line two</p><p>second para</p>` +
		`<h2>Numbers</h2><table><tbody><tr><th>a</th><th>b</th></tr><tr><td>1</td><td>2</td></tr></tbody></table>` +
		`<h3>Deep</h3><h4>Deeper</h4><h4>Deepest</h4>`
	if got != want {
		t.Errorf("Markup mismatch\n got %s\nwant %s", got, want)
	}
}

func TestImport(t *testing.T) {
	d, err := Import(strings.NewReader("# Hello\n\nWorld"), "hello.md", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if d.Title != "hello" {
		t.Errorf("unexpected title %q", d.Title)
	}
	if d.Markup != "<h1>Hello</h1><p>World</p>" {
		t.Errorf("unexpected markup %q", d.Markup)
	}

	// Imported markup must round-trip through the post formatter.
	text, err := formatter.Format(d.Markup)
	if err != nil {
		t.Fatal(err)
	}
	if text != formatter.Bold("Hello")+"\n\nWorld" {
		t.Errorf("unexpected post text %q", text)
	}
}

func TestImportErrors(t *testing.T) {
	if _, err := Import(strings.NewReader("x"), "slides.pptx", Options{}); err == nil {
		t.Error("expected unsupported extension error")
	}
	if _, err := Import(strings.NewReader("\n\n  \n"), "blank.txt", Options{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := Import(strings.NewReader("not a zip"), "bad.docx", Options{}); err == nil {
		t.Error("expected docx parse error")
	}
	if _, err := Import(strings.NewReader("not a pdf"), "bad.pdf", Options{}); err == nil {
		t.Error("expected pdf parse error")
	}
}

func TestForFile(t *testing.T) {
	tests := map[string]Parser{
		"a.txt":      &TextParser{},
		"a.MD":       &MarkdownParser{},
		"a.markdown": &MarkdownParser{},
		"a.csv":      &CSVParser{},
		"a.htm":      &HTMLParser{},
		"a.html":     &HTMLParser{},
		"a.pdf":      &PDFParser{FallbackPdftotext: true},
		"a.docx":     &DOCXParser{},
	}
	for name, want := range tests {
		got, err := ForFile(name, Options{PDFFallbackPdftotext: true})
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: parser mismatch (-want +got):\n%s", name, diff)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("%s should be supported", name)
		}
	}
	if IsSupportedExtension("a.exe") {
		t.Error("a.exe should not be supported")
	}
}

func TestStyleHeadingLevel(t *testing.T) {
	for style, want := range map[string]int{"Heading1": 1, "heading 3": 3, "Title": 1, "Heading7": 0, "Normal": 0, "Heading12": 0} {
		if got := headingFromStyle(style); got != want {
			t.Errorf("headingFromStyle(%q) = %d, want %d", style, got, want)
		}
	}
}

func TestDOCXParser(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Intro line.")
	doc.AddParagraph().Style("Heading1").AddText("Launch")
	doc.AddParagraph().AddText("We shipped.")
	doc.AddParagraph().AddText("   ")
	doc.AddParagraph().Style("Heading2").AddText("Numbers")
	doc.AddParagraph().AddText("Up 20%.")
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	tree, err := (&DOCXParser{}).Parse(bytes.NewReader(buf.Bytes()), "reports/launch.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &doctree.DocTree{
		Title: "launch",
		Children: []*doctree.DocNode{
			{Text: "Intro line."},
			{Title: "Launch", Text: "We shipped.", Children: []*doctree.DocNode{
				{Title: "Numbers", Text: "Up 20%."},
			}},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

// truncatedPDF has a valid header and trailer but a startxref offset past
// the end of the file, which makes the reader panic.
func truncatedPDF() []byte {
	return []byte("%PDF-1.4\n" + strings.Repeat("% filler line\n", 10) + "startxref\n999999\n%%EOF\n")
}

func TestReadPDFPagesRecoversFromPanic(t *testing.T) {
	pages, err := readPDFPages(truncatedPDF())
	if err == nil {
		t.Fatalf("expected error, got pages %q", pages)
	}
	if !strings.HasPrefix(err.Error(), "malformed pdf:") {
		t.Errorf("err = %v, want recovered malformed pdf error", err)
	}
	if pages != nil {
		t.Errorf("pages = %q, want nil", pages)
	}
}

func TestPDFParserMalformed(t *testing.T) {
	for name, data := range map[string][]byte{
		"bad header":    []byte("<html>not a pdf</html>"),
		"missing eof":   []byte("%PDF-1.4\n" + strings.Repeat("x", 200)),
		"bad startxref": truncatedPDF(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := (&PDFParser{}).Parse(bytes.NewReader(data), "bad.pdf")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "extract pdf text") {
				t.Errorf("err = %v, want wrapped extract error", err)
			}
		})
	}
}

func TestPagesTree(t *testing.T) {
	pages := []string{
		"  Title line  \n  second line\n\n\n  next para ",
		" \n \n",
		"Last page.",
	}
	want := &doctree.DocTree{
		Title: "deck",
		Children: []*doctree.DocNode{
			{Text: "Title line\nsecond line\n\nnext para"},
			{Text: "Last page."},
		},
	}
	if diff := cmp.Diff(want, pagesTree("slides/deck.pdf", pages)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}
