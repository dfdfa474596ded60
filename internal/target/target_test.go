package target

import (
	"os"
	"testing"
)

func TestIsLocalName(t *testing.T) {
	for _, name := range []string{"localhost", "LOCALHOST", "127.0.0.1", ".", "::1"} {
		if !isLocalName(name) {
			t.Errorf("%q should resolve locally", name)
		}
	}
	if isLocalName("some-remote-box") {
		t.Error("unknown host must not resolve locally")
	}

	self, err := os.Hostname()
	if err == nil && !isLocalName(self) {
		t.Errorf("own hostname %q should resolve locally", self)
	}
}

func TestParseAffected(t *testing.T) {
	n, err := ParseAffected("some noise\r\nAffected: 42\r\n")
	if err != nil {
		t.Fatalf("ParseAffected failed: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
	if _, err := ParseAffected("no count here"); err == nil {
		t.Error("expected error when count missing")
	}
}

func TestQuoteArg(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"has space", `"has space"`},
		{"", `""`},
		{"/sagerun:64", "/sagerun:64"},
	}
	for _, tc := range cases {
		if got := quoteArg(tc.in); got != tc.want {
			t.Errorf("quoteArg(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
