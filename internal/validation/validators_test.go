package validation

import "testing"

func TestValidateResultStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"pending", "won", "lost"} {
		if err := ValidateResultStatus(valid); err != nil {
			t.Errorf("ValidateResultStatus(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "win", "PENDING", "cancelled"} {
		if err := ValidateResultStatus(invalid); err == nil {
			t.Errorf("ValidateResultStatus(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateDatetimeInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"2025-12-07T15:00", false},
		{"2025-12-07T15:00:30", false},
		{"2025-12-07 15:00", true},
		{"2025-12-07T15:00:00.000Z", true},
		{"2025-12-07T15:00Z", true},
		{"2025-12-07", true},
		{"", true},
		{"2025-12-07Txx:00", true},
	}

	for _, tt := range tests {
		err := ValidateDatetimeInput(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDatetimeInput(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hello  ", "hello"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"strips control characters", "a\x00b\x1fc", "abc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
