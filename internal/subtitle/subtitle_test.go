package subtitle

import (
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"1",
		"00:00:00,000 --> 00:00:01,000",
		"zdravo",
		"",
		"2",
		"00:00:01,000 --> 00:00:02,500",
		"prvi red",
		"drugi red",
		"",
		"3",
		"00:00:02,500 --> 00:00:03,000",
		"",
	}, "\n")

	cues, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(cues))
	}

	if cues[0].Index != 1 || cues[0].Text != "zdravo" {
		t.Errorf("cue 0 = %+v, want index 1 text %q", cues[0], "zdravo")
	}
	if cues[0].Start != 0 || cues[0].End != time.Second {
		t.Errorf("cue 0 timing = %v-%v, want 0s-1s", cues[0].Start, cues[0].End)
	}
	if cues[1].Text != "prvi red\ndrugi red" {
		t.Errorf("cue 1 text = %q, want joined lines", cues[1].Text)
	}
	if cues[2].Text != "" {
		t.Errorf("cue 2 text = %q, want empty", cues[2].Text)
	}
}

func TestParseTolerance(t *testing.T) {
	// BOM, CR-LF endings, dot millisecond separator, coordinates after the
	// end timestamp, and extra blank lines between blocks.
	input := "\uFEFF1\r\n00:00:00.500 --> 00:00:01,250 X1:40 X2:600\r\nhej\r\n\r\n\r\n2\r\n00:00:02,000 --> 00:00:03,000\r\nzdravo\r\n"

	cues, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Start != 500*time.Millisecond || cues[0].End != 1250*time.Millisecond {
		t.Errorf("cue 0 timing = %v-%v, want 500ms-1.25s", cues[0].Start, cues[0].End)
	}
	if cues[0].Text != "hej" {
		t.Errorf("cue 0 text = %q, want %q", cues[0].Text, "hej")
	}
}

func TestParseInvertedTimingPassesThrough(t *testing.T) {
	input := "1\n00:00:05,000 --> 00:00:02,000\nkasni\n"

	cues, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cues[0].Start != 5*time.Second || cues[0].End != 2*time.Second {
		t.Errorf("timing = %v-%v, want inverted pair preserved", cues[0].Start, cues[0].End)
	}
	if got := cues[0].Duration(); got != 0 {
		t.Errorf("Duration() = %v, want 0 for inverted cue", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bad index",
			input: "one\n00:00:00,000 --> 00:00:01,000\nhi\n",
			want:  "line 1",
		},
		{
			name:  "bad timing",
			input: "1\n00:00:00,000 -> 00:00:01,000\nhi\n",
			want:  "line 2",
		},
		{
			name:  "missing timing at EOF",
			input: "1\n",
			want:  "missing its timing line",
		},
		{
			name:  "garbage timestamp",
			input: "1\naa:bb:cc,ddd --> 00:00:01,000\nhi\n",
			want:  "invalid timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:00:00,000", want: 0},
		{in: "01:02:03,456", want: time.Hour + 2*time.Minute + 3*time.Second + 456*time.Millisecond},
		{in: "00:00:05.250", want: 5*time.Second + 250*time.Millisecond},
		{in: "00:01:02,5", want: time.Minute + 2*time.Second + 500*time.Millisecond},
		{in: "00:00:01", want: time.Second},
		{in: "12:34", wantErr: true},
		{in: "aa:bb:cc,ddd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "00:00:00,000"},
		{in: time.Hour + 2*time.Minute + 3*time.Second + 456*time.Millisecond, want: "01:02:03,456"},
		{in: 90 * time.Minute, want: "01:30:00,000"},
		{in: -time.Second, want: "00:00:00,000"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComposeRoundTrip(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0, End: time.Second, Text: "zdravo"},
		{Index: 2, Start: time.Second, End: 2 * time.Second, Text: "dva\nreda"},
		{Index: 3, Start: 2 * time.Second, End: 3 * time.Second, Text: ""},
	}

	var sb strings.Builder
	if err := Compose(&sb, cues); err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	parsed, err := Parse(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Parse of composed output failed: %v", err)
	}
	if len(parsed) != len(cues) {
		t.Fatalf("got %d cues after round trip, want %d", len(parsed), len(cues))
	}
	for i := range cues {
		if parsed[i] != cues[i] {
			t.Errorf("cue %d = %+v, want %+v", i, parsed[i], cues[i])
		}
	}
}
