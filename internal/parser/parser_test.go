package parser

import (
	"strings"
	"testing"
)

func TestParse_Formats(t *testing.T) {
	p := NewLineParser()

	tests := []struct {
		name       string
		line       string
		wantID     int64
		wantScreen string
		wantErr    bool
	}{
		{name: "club url", line: "https://vk.com/club123", wantID: 123},
		{name: "public url", line: "https://vk.com/public456", wantID: 456},
		{name: "club url without scheme", line: "vk.com/club789", wantID: 789},
		{name: "club url with www", line: "https://www.vk.com/club123", wantID: 123},
		{name: "mobile club url", line: "m.vk.com/club42", wantID: 42},
		{name: "screen name url", line: "https://vk.com/durov_club", wantScreen: "durov_club"},
		{name: "screen name url with dots", line: "vk.com/my.group", wantScreen: "my.group"},
		{name: "negative id", line: "-123", wantID: 123},
		{name: "positive id", line: "123", wantID: 123},
		{name: "bare screen name", line: "some_group", wantScreen: "some_group"},
		{name: "club token", line: "club10", wantID: 10, wantScreen: "club10"},
		{name: "zero id", line: "0", wantErr: true},
		{name: "negative zero", line: "-0", wantErr: true},
		{name: "id overflow", line: "99999999999999999999", wantErr: true},
		{name: "unknown format", line: "vk.com/club123/extra", wantErr: true},
		{name: "spaces inside", line: "my group", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, parseErr := p.Parse(tt.line, 1)
			if tt.wantErr {
				if parseErr == nil {
					t.Fatalf("expected parse error for %q, got %+v", tt.line, ident)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error for %q: %v", tt.line, parseErr)
			}
			if ident.ID != tt.wantID {
				t.Errorf("line %q: expected id %d, got %d", tt.line, tt.wantID, ident.ID)
			}
			if ident.ScreenName != tt.wantScreen {
				t.Errorf("line %q: expected screen name %q, got %q", tt.line, tt.wantScreen, ident.ScreenName)
			}
		})
	}
}

func TestParse_NoFallbackBetweenStrategies(t *testing.T) {
	p := NewLineParser()

	// The URL shape is recognized by the screen-name URL strategy, but its
	// numeric path fails that strategy's validation. The line must fail
	// rather than fall through to another format.
	_, parseErr := p.Parse("https://vk.com/0", 1)
	if parseErr == nil {
		t.Fatal("expected numeric screen-name URL path to fail")
	}
}

func TestParseFile_DuplicateIDs(t *testing.T) {
	p := NewLineParser()

	// 123, -123 and club123 all carry the same id; only the first counts.
	input := "123\n-123\nclub123\n"
	result, err := p.ParseFile(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Identifiers) != 1 {
		t.Fatalf("expected 1 identifier, got %d", len(result.Identifiers))
	}
	if result.Identifiers[0].ID != 123 {
		t.Errorf("expected id 123, got %d", result.Identifiers[0].ID)
	}
	if result.DuplicateCount() != 2 {
		t.Errorf("expected 2 duplicates, got %d", result.DuplicateCount())
	}
	if result.InvalidCount() != 0 {
		t.Errorf("expected 0 invalid, got %d", result.InvalidCount())
	}
}

func TestParseFile_ScreenNamesNotDeduplicated(t *testing.T) {
	p := NewLineParser()

	// Screen names have no id at parse time, so two distinct names pass
	// through even if they later resolve to the same group.
	input := "durov_club\nsome_other\n"
	result, err := p.ParseFile(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Identifiers) != 2 {
		t.Fatalf("expected 2 identifiers, got %d", len(result.Identifiers))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestParseFile_CommentsAndBlanks(t *testing.T) {
	p := NewLineParser()

	input := strings.Join([]string{
		"# full comment line",
		"",
		"   ",
		"123 # trailing comment",
		"  club456  ",
		"#",
	}, "\n")

	result, err := p.ParseFile(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Identifiers) != 2 {
		t.Fatalf("expected 2 identifiers, got %d", len(result.Identifiers))
	}
	if result.Skipped != 4 {
		t.Errorf("expected 4 skipped lines, got %d", result.Skipped)
	}
	if result.Identifiers[0].ID != 123 {
		t.Errorf("expected first id 123, got %d", result.Identifiers[0].ID)
	}
	if result.Identifiers[1].ID != 456 {
		t.Errorf("expected second id 456, got %d", result.Identifiers[1].ID)
	}
}

func TestParseFile_LineNumbersCountRawLines(t *testing.T) {
	p := NewLineParser()

	input := "# header\n\nbad line here\n123\n"
	result, err := p.ParseFile(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	if result.Errors[0].Line != 3 {
		t.Errorf("expected error on line 3, got %d", result.Errors[0].Line)
	}
	if len(result.Identifiers) != 1 || result.Identifiers[0].Line != 4 {
		t.Errorf("expected identifier on line 4, got %+v", result.Identifiers)
	}
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123", "123"},
		{"  123  ", "123"},
		{"123 # comment", "123"},
		{"# whole line", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := CleanLine(tt.in); got != tt.want {
			t.Errorf("CleanLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
