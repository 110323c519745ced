package utils

import (
	"encoding/hex"
)

// ConvertBytesToString renders bytes as a 0x prefixed lower case hex string.
func ConvertBytesToString(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
