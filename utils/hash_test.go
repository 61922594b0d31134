package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateSHA256Hash(t *testing.T) {
	first := CreateSHA256Hash([]byte("ruleset content"))
	second := CreateSHA256Hash([]byte("ruleset content"))
	other := CreateSHA256Hash([]byte("different content"))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

func TestLikeEscaped(t *testing.T) {
	assert.Equal(t, `fac\_1`, LikeEscaped("fac_1"))
	assert.Equal(t, `100\%`, LikeEscaped("100%"))
	assert.Equal(t, `a\\b`, LikeEscaped(`a\b`))
	assert.Equal(t, "plain", LikeEscaped("plain"))
}
