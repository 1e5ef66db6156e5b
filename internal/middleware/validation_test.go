package middleware

import (
	"strings"
	"testing"
)

func TestValidateEventID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{"valid", "550e8400-e29b-41d4-a716-446655440000", "550e8400-e29b-41d4-a716-446655440000", false},
		{"uppercase normalized", "550E8400-E29B-41D4-A716-446655440000", "550e8400-e29b-41d4-a716-446655440000", false},
		{"trims whitespace", "  550e8400-e29b-41d4-a716-446655440000 ", "550e8400-e29b-41d4-a716-446655440000", false},
		{"empty", "", "", true},
		{"numeric", "42", "", true},
		{"sql injection", "a'; DROP--", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateEventID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.wantID {
				t.Errorf("got %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestParseDateParam(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"absent", "", "", false},
		{"valid", "2025-02-28", "2025-02-28", false},
		{"invalid day", "2025-02-30", "", true},
		{"wrong format", "28/02/2025", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ParseDateParam("start_date", tt.input)
			if tt.wantErr != (errMsg != "") {
				t.Fatalf("errMsg = %q, wantErr %v", errMsg, tt.wantErr)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestParsePlatformAndStatus(t *testing.T) {
	if p, msg := ParsePlatformParam("YouTube"); msg != "" || *p != "youtube" {
		t.Errorf("platform = %v %q", p, msg)
	}
	if _, msg := ParsePlatformParam("tiktok"); msg == "" {
		t.Error("tiktok should be rejected")
	}
	if p, msg := ParsePlatformParam(""); msg != "" || p != nil {
		t.Errorf("empty platform = %v %q", p, msg)
	}
	if s, msg := ParseStatusParam("Cancelled"); msg != "" || *s != "cancelled" {
		t.Errorf("status = %v %q", s, msg)
	}
	if _, msg := ParseStatusParam("done"); msg == "" {
		t.Error("done should be rejected")
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"single", "7", 1, false},
		{"several with spaces", "1, 2 ,3", 3, false},
		{"trailing comma", "1,2,", 2, false},
		{"empty", "", 0, true},
		{"negative", "1,-2", 0, true},
		{"not a number", "1,two", 0, true},
		{"too many", strings.Repeat("1,", 101), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ParseIDList(tt.input)
			if tt.wantErr != (errMsg != "") {
				t.Fatalf("errMsg = %q, wantErr %v", errMsg, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("got %d ids, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseRowID(t *testing.T) {
	if id, msg := ParseRowID("12"); msg != "" || id != 12 {
		t.Errorf("got %d %q", id, msg)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, msg := ParseRowID(bad); msg == "" {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestValidateChannelURLs(t *testing.T) {
	got, msg := ValidateChannelURLs([]string{" https://www.youtube.com/@a ", "", "https://youtube.com/channel/UC123"})
	if msg != "" || len(got) != 2 || got[0] != "https://www.youtube.com/@a" {
		t.Errorf("got %v %q", got, msg)
	}
	if _, msg := ValidateChannelURLs([]string{"https://vimeo.com/x"}); msg == "" {
		t.Error("non-youtube url should be rejected")
	}
	if _, msg := ValidateChannelURLs([]string{"https://youtube.com/" + strings.Repeat("a", 500)}); msg == "" {
		t.Error("overlong url should be rejected")
	}
	if got, msg := ValidateChannelURLs(nil); msg != "" || len(got) != 0 {
		t.Errorf("nil list: %v %q", got, msg)
	}
}
