package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	cases := map[string]string{
		"":                  "",
		"   ":               "",
		"anna":              "anna",
		"  anna  petrova  ": "anna petrova",
		"anna\t\npetrova":   "anna petrova",
	}
	for in, want := range cases {
		if got := TrimAndNormalize(in); got != want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimAndNormalizeIdempotent(t *testing.T) {
	in := "  a   b\tc  "
	once := TrimAndNormalize(in)
	if twice := TrimAndNormalize(once); twice != once {
		t.Errorf("not idempotent: %q -> %q", once, twice)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Anna@Example.COM "); got != "anna@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestNormalizeComment(t *testing.T) {
	if got := NormalizeComment("  line one\r\nline two \n"); got != "line one\nline two" {
		t.Errorf("NormalizeComment = %q", got)
	}
}
