// Package revocation provides the shared revocation mirror consulted on every
// credential verification. Revocation itself is recorded on the credential;
// the mirror lets stateless verifier instances answer without loading the
// credential store.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "credentia_credential_revocation_check_duration_ms",
	Help:    "Latency of credential revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const revokedCredentialKeyPrefix = "crl:token:"

// RedisList is a Redis-backed credential revocation list shared by all
// instances of the service. Revocation is permanent, so entries carry no TTL.
type RedisList struct {
	client *redis.Client
}

func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

func (l *RedisList) MarkRevoked(ctx context.Context, tokenID uint64) error {
	key := revokedCredentialKeyPrefix + strconv.FormatUint(tokenID, 10)
	// Store "1" as a simple marker; the key existence is what matters.
	if err := l.client.Set(ctx, key, "1", 0).Err(); err != nil {
		return fmt.Errorf("mark credential revoked: %w", err)
	}
	return nil
}

func (l *RedisList) IsRevoked(ctx context.Context, tokenID uint64) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := revokedCredentialKeyPrefix + strconv.FormatUint(tokenID, 10)
	_, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check credential revoked: %w", err)
	}
	return true, nil
}
