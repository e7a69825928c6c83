package models

import "testing"

// TestClassString verifies the conventional tissue class abbreviations
func TestClassString(t *testing.T) {
	cases := []struct {
		class Class
		want  string
	}{
		{CSF, "CSF"},
		{GM, "GM"},
		{WM, "WM"},
		{Class(3), "class4"},
	}

	for _, tc := range cases {
		if got := tc.class.String(); got != tc.want {
			t.Errorf("Expected %q, got %q", tc.want, got)
		}
	}
}

// TestNames verifies display names for the nominal three classes and the
// rank fallback for other counts
func TestNames(t *testing.T) {
	three := Names(3)
	want := []string{"CSF", "GM", "WM"}
	for i := range want {
		if three[i] != want[i] {
			t.Errorf("Expected Names(3)[%d]=%q, got %q", i, want[i], three[i])
		}
	}

	four := Names(4)
	if four[0] != "class1" || four[3] != "class4" {
		t.Errorf("Unexpected rank fallback names: %v", four)
	}
}
