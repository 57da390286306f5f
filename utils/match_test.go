package utils

import "testing"

func TestMatchAction(t *testing.T) {
	cases := []struct {
		action  string
		pattern string
		want    bool
	}{
		{"content.edit", "content.*", true},
		{"content.archive.purge", "content.*", true},
		{"content", "content.*", false},
		{"content.edit", "content.edit", true},
		{"content.edit", "user.*", false},
		{"anything", "*", true},
		{"report_export", "report_*", true},
		{"user.invite.bulk", "user.*.bulk", true},
		{"user.invite", "user.*.bulk", false},
		{"", "*", true},
		{"", "", true},
	}
	for _, tc := range cases {
		if got := MatchAction(tc.action, tc.pattern); got != tc.want {
			t.Fatalf("MatchAction(%q, %q) = %v, want %v", tc.action, tc.pattern, got, tc.want)
		}
	}
}

func TestHasWildcard(t *testing.T) {
	if !HasWildcard("content.*") {
		t.Fatalf("expected wildcard to be detected")
	}
	if HasWildcard("content.edit") {
		t.Fatalf("plain action must not report a wildcard")
	}
}
