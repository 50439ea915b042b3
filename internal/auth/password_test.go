package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		stored, supplied string
		want             bool
	}{
		{"pw1", "pw1", true},
		{"pw1", "PW1", false},
		{"pw1", "pw1 ", false},
		{"pw1", "", false},
		{"", "", true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CheckPassword(tc.stored, tc.supplied), "%q vs %q", tc.stored, tc.supplied)
	}
}
