package ident

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"

	// maxGenerateAttempts bounds collision retries. The postal keyspace is
	// 26^3 * 10^3 per guild+prefix partition, so hitting this limit means
	// something is wrong with the existence check, not bad luck.
	maxGenerateAttempts = 5
)

// ExistsFunc reports whether an identifier is already taken within a
// guild+prefix partition. Repositories supply this so the generator detects
// collisions instead of hoping the keyspace is big enough.
type ExistsFunc func(ctx context.Context, guildID string, id ID) (bool, error)

// Generator mints new postal-style identifiers, checking each candidate
// against the owning guild's partition before accepting it.
type Generator struct {
	exists ExistsFunc
}

// NewGenerator creates a generator backed by the given existence check.
func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{exists: exists}
}

// Generate produces a fresh identifier for the guild+prefix partition.
// Generated bodies are always postal-style; the legacy numeric form is
// parse-only.
func (g *Generator) Generate(ctx context.Context, prefix, guildID string) (ID, error) {
	if err := validatePrefix(prefix); err != nil {
		return ID{}, err
	}
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		body, err := randomPostalBody()
		if err != nil {
			return ID{}, err
		}
		id := ID{Prefix: prefix, Body: body}

		taken, err := g.exists(ctx, guildID, id)
		if err != nil {
			return ID{}, fmt.Errorf("checking identifier %s in guild %s: %w", id, guildID, err)
		}
		if !taken {
			return id, nil
		}
	}
	return ID{}, fmt.Errorf("exhausted %d attempts generating %s identifier for guild %s",
		maxGenerateAttempts, prefix, guildID)
}

func randomPostalBody() (string, error) {
	body := make([]byte, postalBodyLen)
	for i := range body {
		alphabet := letters
		if i%2 == 1 {
			alphabet = digits
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		body[i] = alphabet[n.Int64()]
	}
	return string(body), nil
}
