// Package auth holds the credential hasher and the access policy.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/erm/internal/common"
	"github.com/dmitrijs2005/erm/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
)

// Supported hash algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

const argon2Version = 19

// Upper bounds for parameters read back from stored hashes. Memory is in KiB.
const (
	maxArgon2Memory = 1 << 20
	maxArgon2Time   = 16
)

var ErrMalformedHash = errors.New("malformed password hash")

// Hasher hashes and verifies passwords. Implementations never log plaintext.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
	NeedsRehash(hash string) bool
}

// HasherConfig selects the algorithm used for new hashes.
type HasherConfig struct {
	Algorithm  string
	BcryptCost int
	Argon2     cryptox.Argon2Params
}

// PasswordHasher writes hashes with the configured algorithm and verifies
// hashes written by either supported algorithm.
type PasswordHasher struct {
	cfg HasherConfig
}

func NewPasswordHasher(cfg HasherConfig) (*PasswordHasher, error) {
	switch cfg.Algorithm {
	case "", AlgorithmArgon2id:
		cfg.Algorithm = AlgorithmArgon2id
		if cfg.Argon2 == (cryptox.Argon2Params{}) {
			cfg.Argon2 = cryptox.DefaultArgon2Params
		}
	case AlgorithmBcrypt:
		if cfg.BcryptCost == 0 {
			cfg.BcryptCost = bcrypt.DefaultCost
		}
		if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", cfg.BcryptCost)
		}
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", cfg.Algorithm)
	}
	return &PasswordHasher{cfg: cfg}, nil
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if h.cfg.Algorithm == AlgorithmBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cfg.BcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	}

	p := h.cfg.Argon2
	salt := common.GenerateRandByteArray(int(p.SaltLen))
	key := cryptox.DeriveKey([]byte(plaintext), salt, p)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
	}

	p, salt, key, err := decodeArgon2(hash)
	if err != nil {
		return false
	}
	derived := cryptox.DeriveKey([]byte(plaintext), salt, p)
	defer common.WipeByteArray(derived)
	return cryptox.Equal(derived, key)
}

// NeedsRehash reports whether hash was written with another algorithm or
// other cost parameters than the current configuration.
func (h *PasswordHasher) NeedsRehash(hash string) bool {
	if isBcrypt(hash) {
		if h.cfg.Algorithm != AlgorithmBcrypt {
			return true
		}
		cost, err := bcrypt.Cost([]byte(hash))
		return err != nil || cost != h.cfg.BcryptCost
	}

	if h.cfg.Algorithm != AlgorithmArgon2id {
		return true
	}
	p, _, _, err := decodeArgon2(hash)
	if err != nil {
		return true
	}
	want := h.cfg.Argon2
	return p.Time != want.Time || p.Memory != want.Memory || p.Threads != want.Threads ||
		p.KeyLen != want.KeyLen || p.SaltLen != want.SaltLen
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// decodeArgon2 parses $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
func decodeArgon2(hash string) (cryptox.Argon2Params, []byte, []byte, error) {
	var p cryptox.Argon2Params

	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != AlgorithmArgon2id {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2Version {
		return p, nil, nil, ErrMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Time == 0 || p.Time > maxArgon2Time || p.Threads == 0 || p.Memory == 0 || p.Memory > maxArgon2Memory {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
