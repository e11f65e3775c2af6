package domain

import "testing"

func TestSourceIDFor(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/uploads/sess/diet_plan.pdf", "diet_plan"},
		{"lab_results.txt", "lab_results"},
		{"/a/b/scan.final.jpg", "scan.final"},
		{"noextension", "noextension"},
	}
	for _, tc := range cases {
		if got := SourceIDFor(tc.path); got != tc.want {
			t.Errorf("SourceIDFor(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestIsImagePath(t *testing.T) {
	for _, path := range []string{"a.jpg", "b.JPEG", "c.png"} {
		if !IsImagePath(path) {
			t.Errorf("IsImagePath(%q) = false", path)
		}
	}
	for _, path := range []string{"a.pdf", "b.txt", "c"} {
		if IsImagePath(path) {
			t.Errorf("IsImagePath(%q) = true", path)
		}
	}
}
