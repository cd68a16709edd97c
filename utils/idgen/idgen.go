package idgen

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	PrefixAsset   = "ast"
	PrefixSession = "ses"
	PrefixEvent   = "evt"
)

var (
	entropyMu   sync.Mutex
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// New returns a "<prefix>_<ulid>" identifier in lowercase.
func New(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	entropyMu.Unlock()
	return prefix + "_" + strings.ToLower(id.String())
}

// NewAssetID returns an ast_* identifier.
func NewAssetID() string { return New(PrefixAsset) }

// NewSessionID returns a ses_* identifier.
func NewSessionID() string { return New(PrefixSession) }

// NewEventID returns an evt_* identifier.
func NewEventID() string { return New(PrefixEvent) }

// NewToken returns a bare lowercase ULID, used for storage filenames.
func NewToken() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy()).String())
}

// IsValid reports whether value is a well-formed identifier with the given prefix.
func IsValid(prefix, value string) bool {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), prefix+"_") {
		return false
	}
	_, err := Parse(prefix, value)
	return err == nil
}

// Parse strips the prefix and returns the ULID.
func Parse(prefix, value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(strings.ToLower(value), prefix+"_")
	return ulid.ParseStrict(strings.ToUpper(value))
}
