package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func CreateSHA256Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LikeEscaped escapes LIKE pattern metacharacters in user-supplied values.
func LikeEscaped(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `%`, `\%`)
	value = strings.ReplaceAll(value, `_`, `\_`)
	return value
}
