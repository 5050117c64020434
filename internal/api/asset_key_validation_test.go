package api

import "testing"

func TestIsValidUserAssetObjectKey(t *testing.T) {
	cases := []struct {
		name   string
		userID uint
		key    string
		want   bool
	}{
		{"own resume", 1, "user-assets/1/resume/abc.pdf", true},
		{"own avatar", 1, "user-assets/1/avatar/abc.png", true},
		{"own logo", 1, "user-assets/1/logo/abc.svg", true},
		{"foreign prefix", 1, "user-assets/2/resume/abc.pdf", false},
		{"path traversal", 1, "user-assets/1/../2/resume/abc.pdf", false},
		{"backslash", 1, "user-assets/1\\resume\\abc.pdf", false},
		{"double slash", 1, "user-assets/1//resume/abc.pdf", false},
		{"disallowed extension", 1, "user-assets/1/resume/abc.exe", false},
		{"empty", 1, "", false},
		{"wrong root", 1, "other/1/resume/abc.pdf", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isValidUserAssetObjectKey(tc.userID, tc.key); got != tc.want {
				t.Errorf("isValidUserAssetObjectKey(%d, %q) = %v, want %v", tc.userID, tc.key, got, tc.want)
			}
		})
	}
}
