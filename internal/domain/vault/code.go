package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

const (
	// CodeLength is fixed at six characters: short enough to type from a
	// phone screen, large enough a space (36^6) that collisions stay rare
	// while a mandatory store check catches the ones that do occur.
	CodeLength = 6

	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxMintAttempts = 5
)

// NormalizeCode maps any user-typed form of a code to its canonical
// upper-case representation. Every lookup goes through this.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Generator mints collision-checked access codes from a cryptographically
// secure source. The store check is mandatory: at six characters collision
// probability is real, not negligible.
type Generator struct {
	repo Repository
}

func NewGenerator(repo Repository) *Generator {
	return &Generator{repo: repo}
}

// Mint returns a code that had no live record at the time of the check.
// Put's duplicate-code enforcement remains the source of truth for the
// window between check and insert.
func (g *Generator) Mint(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}

		_, err = g.repo.Get(ctx, code)
		if errors.Is(err, ErrInvalidCode) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("collision check: %w", err)
		}
		// occupied, regenerate
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode() (string, error) {
	// rejection sampling keeps the alphabet uniform (256 is not a
	// multiple of 36)
	const limit = byte(252)

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}
