package util

import (
	"math/rand/v2"
	"strings"
)

// referenceChars omits 0/O and 1/I so references survive being read over the phone.
const referenceChars = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateRandomID returns prefix followed by length characters drawn from alphabet.
func GenerateRandomID(prefix, alphabet string, length int) string {
	if length <= 0 || alphabet == "" {
		return prefix
	}
	var builder strings.Builder
	builder.Grow(len(prefix) + length)
	builder.WriteString(prefix)
	for i := 0; i < length; i++ {
		builder.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return builder.String()
}

// GenerateBookingReference returns a short customer-facing booking id such
// as "BK-7XK2M9QD".
func GenerateBookingReference() string {
	return GenerateRandomID("BK-", referenceChars, 8)
}
