package sanitize

import "testing"

func TestString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  string
	}{
		{"Machado de Assis", "machado de assis"},
		{"  Manuel   Bandeira  ", "manuel bandeira"},
		{"Edgar Alan Poe!!!", "edgar alan poe"},
		{"Dom Casmurro, 2a ed.", "dom casmurro 2a ed"},
		{"ＭＡＤＲ", "madr"},
		{"", ""},
		{"...", ""},
	}

	for _, tc := range cases {
		if got := String(tc.input); got != tc.want {
			t.Fatalf("String(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
