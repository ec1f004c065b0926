package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Topic name prefixes. The pair form is the canonical broadcast address;
// the user form is a deprecated compatibility shim for clients that still
// subscribe per-user instead of per-conversation.
const (
	topicPrefixConversation = "conv:"
	topicPrefixUser         = "user:"
)

// PairKey is the canonical identity of a conversation: an unordered pair
// of participant ids normalized to Low < High.
type PairKey struct {
	Low  int64
	High int64
}

// Canonicalize normalizes an unordered participant pair. It is the single
// place operand order is decided; every downstream lookup, insert and
// broadcast must use its result.
func Canonicalize(a, b int64) (PairKey, error) {
	if a <= 0 || b <= 0 {
		return PairKey{}, coreError(ErrCodeInvalidPair, fmt.Sprintf("participant ids must be positive, got %d and %d", a, b))
	}
	if a == b {
		return PairKey{}, coreError(ErrCodeInvalidPair, fmt.Sprintf("sender and receiver must differ, got %d", a))
	}
	if a < b {
		return PairKey{Low: a, High: b}, nil
	}
	return PairKey{Low: b, High: a}, nil
}

// Topic returns the broadcast topic for the pair, e.g. "conv:39-40".
func (k PairKey) Topic() string {
	return fmt.Sprintf("%s%d-%d", topicPrefixConversation, k.Low, k.High)
}

// String returns the external conversation key form, e.g. "39-40".
func (k PairKey) String() string {
	return fmt.Sprintf("%d-%d", k.Low, k.High)
}

// UserTopic returns the legacy per-user topic, e.g. "user:39".
//
// Deprecated: new clients must subscribe with a pair key.
func UserTopic(id int64) string {
	return fmt.Sprintf("%s%d", topicPrefixUser, id)
}

// ResolveSubscribeKey maps a client-provided subscription key to a topic
// name. A pair key such as "39-40" resolves to the canonical conversation
// topic regardless of operand order; a bare user id falls back to the
// legacy per-user topic.
func ResolveSubscribeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", coreError(ErrCodeInvalidPair, "conversation key is required")
	}

	if low, high, ok := splitPairKey(key); ok {
		pair, err := Canonicalize(low, high)
		if err != nil {
			return "", err
		}
		return pair.Topic(), nil
	}

	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return UserTopic(id), nil
	}

	return "", coreError(ErrCodeInvalidPair, fmt.Sprintf("malformed conversation key %q", key))
}

func splitPairKey(key string) (int64, int64, bool) {
	a, b, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	low, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	high, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return low, high, true
}
