package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Mary Anne  ",
			want:  "Mary Anne",
		},
		{
			name:  "multiple spaces between words",
			input: "Mary    Anne",
			want:  "Mary Anne",
		},
		{
			name:  "tabs and newlines",
			input: "Mary\t\nAnne",
			want:  "Mary Anne",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve punctuation and accents",
			input: " O'Brien-Núñez ",
			want:  "O'Brien-Núñez",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  John.Doe@Example.COM "); got != "john.doe@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestNormalizeInsurance(t *testing.T) {
	if got := NormalizeInsurance("  nhif   basic "); got != "NHIF BASIC" {
		t.Errorf("NormalizeInsurance() = %q", got)
	}
}
