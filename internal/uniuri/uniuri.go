// Package uniuri generates random strings from crypto/rand without modulo bias.
package uniuri

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Character sets.
var (
	Letters  = []byte("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz") //nolint:gochecknoglobals
	Digits   = []byte("23456789")                                          //nolint:gochecknoglobals
	StdChars = append(append([]byte{}, Letters...), Digits...)             //nolint:gochecknoglobals
)

// TempPasswordLen is the length of generated temporary passwords.
const TempPasswordLen = 8

// ErrCharset is returned for character sets outside 2..256 bytes.
var ErrCharset = errors.New("uniuri: charset must hold between 2 and 256 characters")

// NewLenChars returns a random string of length characters drawn from chars.
// Random bytes above the largest multiple of len(chars) are discarded.
func NewLenChars(length int, chars []byte) (string, error) {
	n := len(chars)
	if n < 2 || n > 256 { //nolint:mnd
		return "", ErrCharset
	}

	limit := 256 - (256 % n) //nolint:mnd
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("uniuri: read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// TempPassword returns a TempPasswordLen character password holding at least
// one letter and one digit. Look-alike characters (0, O, 1, l, I) are excluded.
func TempPassword() (string, error) {
	for {
		s, err := NewLenChars(TempPasswordLen, StdChars)
		if err != nil {
			return "", err
		}

		if containsAny(s, Letters) && containsAny(s, Digits) {
			return s, nil
		}
	}
}

func containsAny(s string, set []byte) bool {
	for i := range len(s) {
		for _, c := range set {
			if s[i] == c {
				return true
			}
		}
	}

	return false
}
