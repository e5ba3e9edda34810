package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chimchimster/balance-bot/core/logger"
)

// IdentityStore is the durable source of truth the resolver reconciles the
// cache against. LookupUserID reports found=false for unknown external ids;
// any error means the store itself failed. TouchCredential refreshes the
// stored fingerprint for a known user inside one transaction.
type IdentityStore interface {
	LookupUserID(ctx context.Context, externalID int64) (userID int64, found bool, err error)
	TouchCredential(ctx context.Context, userID int64, fingerprint string) error
}

// Resolver computes the AuthSignal for one inbound event by reconciling the
// cache freshness record against the durable identity store, repairing a
// missing cache entry along the way.
type Resolver struct {
	cache    CacheStore
	identity IdentityStore
	period   time.Duration
	now      func() time.Time
}

func NewResolver(cache CacheStore, identity IdentityStore, period time.Duration) *Resolver {
	return &Resolver{cache: cache, identity: identity, period: period, now: time.Now}
}

// Resolve classifies the user. It may create exactly one CacheEntry as a side
// effect when none existed; a bootstrap entry is written with LastSeen zero,
// so resolving twice without an explicit login never upgrades to
// Authenticated.
func (r *Resolver) Resolve(ctx context.Context, externalID int64) Signal {
	log := logger.Component("auth")

	entry, err := r.cache.Get(ctx, externalID)
	if err != nil {
		log.Warn("cache lookup failed",
			slog.String("event", "resolve"),
			slog.Int64("external_id", externalID),
			slog.String("err", err.Error()),
		)
		return TransientError
	}

	if entry == nil {
		return r.bootstrap(ctx, log, externalID)
	}

	if entry.LastSeen > 0 && r.now().Unix()-entry.LastSeen <= int64(r.period.Seconds()) {
		return Authenticated
	}
	// Stale entry stays in place; only an explicit login rewrites it.
	return NotAuthenticated
}

func (r *Resolver) bootstrap(ctx context.Context, log *slog.Logger, externalID int64) Signal {
	userID, found, err := r.identity.LookupUserID(ctx, externalID)
	if err != nil {
		log.Warn("identity lookup failed",
			slog.String("event", "resolve"),
			slog.Int64("external_id", externalID),
			slog.String("err", err.Error()),
		)
		return TransientError
	}
	if !found {
		return NotRegistered
	}

	fp := SynthesizeFingerprint()
	if err := r.identity.TouchCredential(ctx, userID, fp); err != nil {
		log.Warn("credential touch failed",
			slog.String("event", "resolve"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return TransientError
	}
	if err := r.cache.Put(ctx, externalID, CacheEntry{Fingerprint: fp, LastSeen: 0}); err != nil {
		log.Warn("cache repair failed",
			slog.String("event", "resolve"),
			slog.Int64("external_id", externalID),
			slog.String("err", err.Error()),
		)
		return TransientError
	}

	log.Debug("cache entry bootstrapped",
		slog.String("event", "resolve"),
		slog.Int64("external_id", externalID),
	)
	// Bootstrap repairs the cache but never authenticates.
	return NotAuthenticated
}

// MarkAuthenticated records a freshly verified credential, opening the
// freshness window. Called by the login and registration flows after a
// successful password check.
func (r *Resolver) MarkAuthenticated(ctx context.Context, externalID int64, fingerprint string) error {
	return r.cache.Put(ctx, externalID, CacheEntry{
		Fingerprint: fingerprint,
		LastSeen:    r.now().Unix(),
	})
}

// SynthesizeFingerprint produces an opaque credential fingerprint for cache
// repair. It is not derived from the password; it only has to be unique.
func SynthesizeFingerprint() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}
