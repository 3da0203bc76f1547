package usage

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodMonth, false},
		{"month", PeriodMonth, false},
		{"day", PeriodDay, false},
		{"total", "", true},
		{"DAY", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePeriod(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReport_Limited(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewReport(PeriodMonth, start, start.AddDate(0, 1, 0), 384200, 1000000)

	if r.TokensRemaining() != 615800 {
		t.Errorf("TokensRemaining() = %d", r.TokensRemaining())
	}
	if r.IsExhausted() {
		t.Error("budget should not be exhausted")
	}
	if !r.End().Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("End() = %v", r.End())
	}
}

func TestReport_Exhausted(t *testing.T) {
	r := NewReport(PeriodDay, time.Time{}, time.Time{}, 1200, 1000)
	if !r.IsExhausted() {
		t.Error("expected exhausted")
	}
	if r.TokensRemaining() != 0 {
		t.Errorf("TokensRemaining() = %d, want 0", r.TokensRemaining())
	}
}

func TestReport_Unlimited(t *testing.T) {
	r := NewReport(PeriodDay, time.Time{}, time.Time{}, 50, 0)
	if r.Limited() || r.IsExhausted() {
		t.Error("zero limit must be unlimited")
	}
	if r.TokensRemaining() != -1 {
		t.Errorf("TokensRemaining() = %d, want -1", r.TokensRemaining())
	}
}
