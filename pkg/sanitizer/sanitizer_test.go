package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Maria   Lopez ", "Maria Lopez"},
		{"\tJohn\nDoe", "John Doe"},
		{"", ""},
		{"   ", ""},
		{"single", "single"},
	}

	for _, tc := range cases {
		if got := TrimAndNormalize(tc.in); got != tc.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Terrace", "terrace"},
		{"Main Hall", "main_hall"},
		{"  Bar -- Area  ", "bar_area"},
		{"T1", "t1"},
		{"***", ""},
	}

	for _, tc := range cases {
		if got := SanitizeLabel(tc.in); got != tc.want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+14155552671", "+14155552671"},
		{"(415) 555-2671", "+14155552671"},
		{"415-555-2671", "+14155552671"},
		{"", ""},
		{"not a phone", ""},
	}

	for _, tc := range cases {
		if got := SanitizePhone(tc.in); got != tc.want {
			t.Errorf("SanitizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
