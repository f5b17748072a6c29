package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/platinummonkey/mockapi/pkg/apierrors"
)

// InvalidAPIKeyDetail is the message returned for a rejected API key
const InvalidAPIKeyDetail = "Invalid or missing API key"

// KeySet is a static allow-list of API keys
type KeySet struct {
	keys [][]byte
}

// NewKeySet builds a key set. Blank entries are dropped.
func NewKeySet(keys ...string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		ks.keys = append(ks.keys, []byte(k))
	}
	return ks
}

// Len returns the number of configured keys
func (ks *KeySet) Len() int {
	return len(ks.keys)
}

// Contains reports whether key is in the set. Every entry is compared in
// constant time.
func (ks *KeySet) Contains(key string) bool {
	if key == "" {
		return false
	}
	candidate := []byte(key)
	found := 0
	for _, k := range ks.keys {
		found |= subtle.ConstantTimeCompare(k, candidate)
	}
	return found == 1
}

// Check returns a Forbidden error unless key is in the set
func (ks *KeySet) Check(key string) (*Principal, error) {
	if !ks.Contains(key) {
		return nil, apierrors.Forbidden(InvalidAPIKeyDetail)
	}
	return &Principal{Subject: maskKey(key), Scheme: SchemeAPIKey}, nil
}

// maskKey keeps only a short prefix of key for logs
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
