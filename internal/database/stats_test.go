package database

import "testing"

func TestFormatWinRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		wins   int
		losses int
		want   string
	}{
		{name: "no decided applications", wins: 0, losses: 0, want: "0%"},
		{name: "all wins", wins: 5, losses: 0, want: "100%"},
		{name: "all losses", wins: 0, losses: 7, want: "0%"},
		{name: "even split", wins: 3, losses: 3, want: "50%"},
		{name: "two thirds rounds up", wins: 2, losses: 1, want: "66.7%"},
		{name: "one third rounds down", wins: 1, losses: 2, want: "33.3%"},
		{name: "single win single loss", wins: 1, losses: 1, want: "50%"},
		{name: "one in eight", wins: 1, losses: 7, want: "12.5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatWinRate(tt.wins, tt.losses); got != tt.want {
				t.Errorf("FormatWinRate(%d, %d) = %q, want %q", tt.wins, tt.losses, got, tt.want)
			}
		})
	}
}

func TestPeriodClause(t *testing.T) {
	t.Parallel()

	if got := periodClause(PeriodAll); got != "" {
		t.Errorf("expected empty clause for all-time period, got %q", got)
	}
	if got := periodClause(PeriodMonth); got == "" {
		t.Error("expected non-empty clause for month period")
	}
	if got := periodClause(StatsPeriod("bogus")); got != "" {
		t.Errorf("unknown period should fall back to all-time, got %q", got)
	}
}
