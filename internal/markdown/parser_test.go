package markdown

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ichi0g0y/print-hole/internal/escpos"
)

// collectText flattens the Text commands of a stream into one string.
func collectText(commands []escpos.Command) string {
	var b strings.Builder
	for _, cmd := range commands {
		if txt, ok := cmd.(escpos.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// containsRaw reports whether the stream carries the given control sequence.
func containsRaw(commands []escpos.Command, seq []byte) bool {
	for _, cmd := range commands {
		if raw, ok := cmd.(escpos.Raw); ok && bytes.Equal(raw, seq) {
			return true
		}
	}
	return false
}

func TestParseFontSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		expect  FontSize
		wantErr bool
	}{
		{name: "small", input: "small", expect: FontSizeSmall},
		{name: "medium", input: "medium", expect: FontSizeMedium},
		{name: "large", input: "large", expect: FontSizeLarge},
		{name: "mixed case", input: "Large", expect: FontSizeLarge},
		{name: "unknown", input: "huge", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFontSize(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownFontSize) {
					t.Fatalf("ParseFontSize(%q) error = %v, want ErrUnknownFontSize", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFontSize(%q) error = %v", tc.input, err)
			}
			if got != tc.expect {
				t.Fatalf("ParseFontSize(%q) = %q, want %q", tc.input, got, tc.expect)
			}
		})
	}
}

func TestParseHeadingAndParagraph(t *testing.T) {
	commands, length := Parse("# Hello\n\nWorld", FontSizeSmall)

	if len(commands) == 0 {
		t.Fatal("no commands produced")
	}
	base, ok := commands[0].(escpos.Raw)
	if !ok || !bytes.Equal(base, escpos.CmdNormal) {
		t.Fatalf("stream must open with the base style, got %v", commands[0])
	}
	if !containsRaw(commands, escpos.CmdDoubleWH) {
		t.Fatal("H1 must emit the double width+height toggle")
	}

	text := collectText(commands)
	if !strings.Contains(text, "Hello\n") {
		t.Fatalf("heading text missing from %q", text)
	}
	if !strings.Contains(text, "World\n") {
		t.Fatalf("paragraph text missing from %q", text)
	}

	// H1 line (48+30) + blank (30) + paragraph (24+30) dots.
	want := float64(48+30+30+24+30) / escpos.DPI
	if math.Abs(length-want) > 1e-9 {
		t.Fatalf("length = %v, want %v", length, want)
	}
}

func TestParseHeadingLevels(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		toggle []byte
		close  []byte
	}{
		{name: "h1 double width+height", input: "# Title", toggle: escpos.CmdDoubleWH, close: escpos.CmdNormal},
		{name: "h2 double height", input: "## Title", toggle: escpos.CmdDoubleHeight, close: escpos.CmdNormal},
		{name: "h3 bold", input: "### Title", toggle: escpos.CmdBoldOn, close: escpos.CmdBoldOff},
		{name: "h6 bold", input: "###### Title", toggle: escpos.CmdBoldOn, close: escpos.CmdBoldOff},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			commands, _ := Parse(tc.input, FontSizeSmall)
			if !containsRaw(commands, tc.toggle) {
				t.Fatalf("missing style toggle %v", tc.toggle)
			}
			if !containsRaw(commands, tc.close) {
				t.Fatalf("missing closing style %v", tc.close)
			}
			if got := collectText(commands); got != "Title\n" {
				t.Fatalf("text = %q, want %q", got, "Title\n")
			}
		})
	}
}

func TestParseHeadingTrailingHashes(t *testing.T) {
	commands, _ := Parse("## Title ##", FontSizeSmall)
	if got := collectText(commands); got != "Title\n" {
		t.Fatalf("text = %q, want %q", got, "Title\n")
	}
}

func TestParseSevenHashesIsParagraph(t *testing.T) {
	commands, _ := Parse("####### nope", FontSizeSmall)
	if containsRaw(commands, escpos.CmdBoldOn) {
		t.Fatal("7+ hashes must not be treated as a heading")
	}
	if got := collectText(commands); got != "####### nope\n" {
		t.Fatalf("text = %q", got)
	}
}

func TestParseCodeBlock(t *testing.T) {
	commands, length := Parse("```\ncode line\n```", FontSizeSmall)

	if !containsRaw(commands, escpos.CmdFontB) {
		t.Fatal("code block must switch to font B")
	}
	if !containsRaw(commands, escpos.CmdFontA) {
		t.Fatal("code block must restore font A")
	}
	if got := collectText(commands); got != "code line\n" {
		t.Fatalf("text = %q", got)
	}

	want := float64(17+30) / escpos.DPI
	if math.Abs(length-want) > 1e-9 {
		t.Fatalf("length = %v, want %v", length, want)
	}
}

func TestParseUnclosedCodeBlock(t *testing.T) {
	commands, _ := Parse("```\ndangling", FontSizeSmall)
	if !containsRaw(commands, escpos.CmdFontB) {
		t.Fatal("unclosed fence must still flush the buffer in font B")
	}
	if got := collectText(commands); got != "dangling\n" {
		t.Fatalf("text = %q", got)
	}
}

func TestParseFenceMustBeAlone(t *testing.T) {
	// A language tag disqualifies the line as a fence.
	commands, _ := Parse("```go\ncode\n```", FontSizeSmall)
	if got := collectText(commands); !strings.Contains(got, "go") {
		t.Fatalf("```go should print as a paragraph, got %q", got)
	}
}

func TestParseLongFence(t *testing.T) {
	commands, _ := Parse("````\ncode\n````", FontSizeSmall)
	if !containsRaw(commands, escpos.CmdFontB) {
		t.Fatal("4+ backticks alone on a line still toggle the block")
	}
	if got := collectText(commands); got != "code\n" {
		t.Fatalf("text = %q", got)
	}
}

func TestParseHorizontalRule(t *testing.T) {
	for _, marker := range []string{"---", "***", "___", "-----"} {
		commands, _ := Parse(marker, FontSizeSmall)
		want := strings.Repeat("-", 48) + "\n"
		if got := collectText(commands); got != want {
			t.Fatalf("hr %q rendered %q", marker, got)
		}
	}
}

func TestParseInlineMarkersStripped(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "bold stars", input: "a **bold** word", expect: "a bold word\n"},
		{name: "bold underscores", input: "a __bold__ word", expect: "a bold word\n"},
		{name: "inline code", input: "run `go test` now", expect: "run go test now\n"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			commands, _ := Parse(tc.input, FontSizeSmall)
			if got := collectText(commands); got != tc.expect {
				t.Fatalf("text = %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestParseLargeWrapsAt24(t *testing.T) {
	// 30 chars must wrap into two lines at the large 24-char budget.
	commands, _ := Parse(strings.Repeat("a", 30), FontSizeLarge)
	text := collectText(commands)
	if got := strings.Count(text, "\n"); got != 2 {
		t.Fatalf("expected 2 lines, got %d in %q", got, text)
	}
}

func TestParseLengthMonotonic(t *testing.T) {
	_, short := Parse("one line", FontSizeSmall)
	_, long := Parse("one line\n\ntwo lines\n\nthree lines", FontSizeSmall)
	if long <= short {
		t.Fatalf("longer document must report greater length: %v vs %v", long, short)
	}
}

func TestParseNormalizesInput(t *testing.T) {
	commands, _ := Parse("a → b", FontSizeSmall)
	if got := collectText(commands); got != "a -> b\n" {
		t.Fatalf("text = %q", got)
	}
}
