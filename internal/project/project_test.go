package project

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  string
	}{
		{0, "0 min read"},
		{1, "1 min read"},
		{200, "1 min read"},
		{201, "2 min read"},
		{1000, "5 min read"},
	}
	for _, tt := range tests {
		body := strings.Repeat("word ", tt.words)
		if got := ReadingTime(body); got != tt.want {
			t.Errorf("ReadingTime(%d words) = %q, want %q", tt.words, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	for in, want := range map[string]string{
		"2025-08":              "2025-08-01",
		"2024-05-10":           "2024-05-10",
		"2023-02-03T10:00:00Z": "2023-02-03",
		" 2022-01-01 ":         "2022-01-01",
	} {
		d, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if got := d.Format("2006-01-02"); got != want {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseDate("08/2025"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDate_JSON(t *testing.T) {
	d, _ := ParseDate("2025-08")
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{d})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2025-08-01"}` {
		t.Fatalf("json = %s", b)
	}

	var back struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.D.Equal(d.Time) {
		t.Errorf("round trip = %v, want %v", back.D, d)
	}
	if err := json.Unmarshal([]byte(`{"d":"soon"}`), &back); err == nil {
		t.Error("expected error for bad date")
	}
}

func TestProject_HasTag(t *testing.T) {
	p := Project{Tags: []string{"go", "kafka"}}
	if !p.HasTag("go") || p.HasTag("Go") || p.HasTag("rust") {
		t.Fatal("HasTag is exact-match")
	}
}

func TestLinks_Empty(t *testing.T) {
	if !(Links{}).Empty() {
		t.Fatal("zero Links should be empty")
	}
	if (Links{GitHub: "https://github.com/x"}).Empty() {
		t.Fatal("Links with GitHub is not empty")
	}
}
