package reservation

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	codePrefix   = "RS-"
	codeLength   = 8
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Code is the human-facing reservation reference, immutable once assigned.
type Code string

type CodeGenerator interface {
	NewCode() (Code, error)
}

// RandomCodes draws codes from an alphabet without look-alike characters.
type RandomCodes struct {
	Source io.Reader
}

func (g RandomCodes) NewCode() (Code, error) {
	src := g.Source
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, codeLength)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("reservation: generate code: %w", err)
	}
	var sb strings.Builder
	sb.Grow(len(codePrefix) + codeLength)
	sb.WriteString(codePrefix)
	for _, b := range buf {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return Code(sb.String()), nil
}

func (c Code) Valid() bool {
	s := string(c)
	if !strings.HasPrefix(s, codePrefix) || len(s) != len(codePrefix)+codeLength {
		return false
	}
	for _, ch := range s[len(codePrefix):] {
		if !strings.ContainsRune(codeAlphabet, ch) {
			return false
		}
	}
	return true
}
