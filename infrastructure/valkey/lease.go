package valkey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Deletes the key only while it still holds our token.
const releaseLeaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// SweepLease lets a single instance in the fleet run the recurring sweep.
// The value stored under the key is a random token so that an instance whose
// lease expired cannot delete the lease of its successor.
type SweepLease struct {
	client *Client
	key    string

	mu     sync.Mutex
	tokens map[string]string
}

func NewSweepLease(client *Client, name string) *SweepLease {
	if name == "" {
		name = "sweep"
	}
	return &SweepLease{
		client: client,
		key:    client.Key("lease", name),
		tokens: map[string]string{},
	}
}

// Acquire sets the lease key with NX and a millisecond TTL.
func (l *SweepLease) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	token := owner + ":" + uuid.NewString()
	inner := l.client.Inner()
	cmd := inner.B().Set().Key(l.key).Value(token).Nx().Px(ttl).Build()

	err := inner.Do(ctx, cmd).Error()
	if err != nil {
		if IsNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire sweep lease: %w", err)
	}

	l.mu.Lock()
	l.tokens[owner] = token
	l.mu.Unlock()
	logrus.WithFields(logrus.Fields{"key": l.key, "owner": owner, "ttl": ttl}).Debug("[LEASE] Sweep lease acquired")
	return true, nil
}

// Release drops the lease when owner still holds it.
func (l *SweepLease) Release(ctx context.Context, owner string) error {
	l.mu.Lock()
	token, ok := l.tokens[owner]
	delete(l.tokens, owner)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	inner := l.client.Inner()
	cmd := inner.B().Eval().Script(releaseLeaseScript).Numkeys(1).Key(l.key).Arg(token).Build()
	if err := inner.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to release sweep lease: %w", err)
	}
	return nil
}
