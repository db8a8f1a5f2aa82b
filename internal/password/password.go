package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const algorithmID = "argon2id"

// Config holds argon2id parameters. Instances are configured once at
// startup and treated as immutable.
type Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MaxConcurrent bounds the number of hash computations running at
	// once. Hashing is deliberately expensive; the bound keeps a login
	// burst from starving the rest of the service.
	MaxConcurrent int64
}

// DefaultConfig returns the RFC 9106 low-memory parameters.
func DefaultConfig() Config {
	return Config{
		Memory:        19 * 1024,
		Time:          2,
		Parallelism:   1,
		SaltLength:    16,
		KeyLength:     32,
		MaxConcurrent: 8,
	}
}

// Hasher hashes and verifies passwords using argon2id with a fresh random
// salt per hash. Safe for concurrent use.
type Hasher struct {
	config Config
	sem    *semaphore.Weighted
}

// NewHasher creates a Hasher after validating the configuration.
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Memory < 8*1024 {
		return nil, errors.New("password: memory must be at least 8 MiB")
	}
	if cfg.Time < 1 {
		return nil, errors.New("password: time cost must be at least 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("password: parallelism must be at least 1")
	}
	if cfg.SaltLength < 16 {
		return nil, errors.New("password: salt length must be at least 16 bytes")
	}
	if cfg.KeyLength < 16 {
		return nil, errors.New("password: key length must be at least 16 bytes")
	}
	if cfg.MaxConcurrent < 1 {
		return nil, errors.New("password: max concurrent must be at least 1")
	}
	return &Hasher{
		config: cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
	}, nil
}

// Hash computes a salted argon2id hash of the password and returns it in
// PHC string format. Two calls with the same password produce different
// strings. The context aborts the call while it waits for a worker slot.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify reports whether the password matches the encoded hash. Malformed
// or foreign-format hashes verify false without an error; a dummy hash is
// computed in that case so the timing stays close to a real mismatch.
func (h *Hasher) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	parsed, err := parsePHC(encodedHash)
	if err != nil {
		h.dummyCompute(password)
		return false, nil
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

func (h *Hasher) dummyCompute(password string) {
	salt := make([]byte, h.config.SaltLength)
	argon2.IDKey([]byte(password), salt, h.config.Time, h.config.Memory, h.config.Parallelism, h.config.KeyLength)
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	if !strings.HasPrefix(parts[2], "v=") {
		return nil, errors.New("missing argon2 version")
	}
	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var memory, timeCost uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &parallelism); err != nil {
		return nil, errors.New("invalid argon2 parameters")
	}
	if memory == 0 || timeCost == 0 || parallelism == 0 {
		return nil, errors.New("invalid argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, errors.New("invalid salt encoding")
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, errors.New("invalid hash encoding")
	}

	return &parsedPHC{
		memory:      memory,
		time:        timeCost,
		parallelism: parallelism,
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}
