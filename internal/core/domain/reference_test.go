package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refPattern = regexp.MustCompile(`^REF-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestGenerateReference_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		ref := GenerateReference()
		assert.Regexp(t, refPattern, ref)
	}
}

func TestGenerateReference_Uniqueness(t *testing.T) {
	const n = 100000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		ref := GenerateReference()
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference after %d draws: %s", i, ref)
		seen[ref] = struct{}{}
	}
}
