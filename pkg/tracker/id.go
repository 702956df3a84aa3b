// Package tracker issues and validates the opaque identifiers handed to
// submitters at upload time.
package tracker

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/kbgenie/upload-genie/pkg/enums"
)

const (
	webPrefix   = "TRK"
	emailPrefix = "EMAIL"

	// MinIDLength and MaxIDLength bound what the query surface will even
	// attempt to look up.
	MinIDLength = 8
	MaxIDLength = 36
)

// NewID generates a fresh tracker id for the given upload method. Web-style
// ids look like TRK-1a2b3c4d-5e6f; email-sourced uploads get an extra segment,
// EMAIL-1a2b3c4d-5e6f-7a8b. Uniqueness is ultimately enforced by the storage
// layer's unique constraint; the random segments only make collisions rare.
func NewID(method enums.UploadMethod) string {
	if method.IsEmailSourced() {
		return fmt.Sprintf("%s-%s-%s-%s", emailPrefix, randomHex(8), randomHex(4), randomHex(4))
	}
	return fmt.Sprintf("%s-%s-%s", webPrefix, randomHex(8), randomHex(4))
}

// ValidateID checks the length/charset rule applied before any lookup:
// 8-36 characters, alphanumeric plus hyphen. Malformed input is rejected
// up front so the store never reveals whether such an id could exist.
func ValidateID(id string) error {
	if len(id) < MinIDLength || len(id) > MaxIDLength {
		return fmt.Errorf("tracker id must be between %d and %d characters", MinIDLength, MaxIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return fmt.Errorf("tracker id contains invalid character %q", r)
		}
	}
	return nil
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("tracker: reading random bytes: %v", err))
	}
	return hex.EncodeToString(buf)[:n]
}
