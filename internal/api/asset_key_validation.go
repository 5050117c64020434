package api

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

func isValidUserAssetObjectKey(userID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	expected := fmt.Sprintf("user-assets/%d/", userID)
	if !strings.HasPrefix(key, expected) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	if len(key) > 240 {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(key))
	for _, exts := range assetKinds {
		for _, ext := range exts {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
	}
	return false
}
