package actorkit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DeadLetter is one recorded unmatched message (spec.md §7 item 1: "if no
// handler ever matches a message, it remains in the mailbox indefinitely...
// optionally routed to a dead-letter sink for monitoring").
type DeadLetter struct {
	ActorID  string
	Message  any
	Recorded time.Time
}

// DeadLetterOfficeConfig configures a DeadLetterOffice.
type DeadLetterOfficeConfig struct {
	// TTL bounds how long a recorded dead letter is retained before
	// eviction. Defaults to 10 minutes.
	TTL time.Duration
}

// DeadLetterOffice is a bounded-retention recorder for unmatched messages.
// It is grounded on Appboy-worker-pools' WorkerPoolManager, which keys a
// jellydator/ttlcache/v3 cache of pools and relies on the cache's
// OnEviction callback to release each one as it expires. Here the cache
// holds recorded dead letters instead of pools; a dead letter owns no
// resource to release, so OnEviction only logs the expiry for monitoring.
type DeadLetterOffice struct {
	cache *ttlcache.Cache[string, DeadLetter]
	seq   uint64
}

// NewDeadLetterOffice starts a DeadLetterOffice. Call Close to stop its
// background eviction loop.
func NewDeadLetterOffice(cfg DeadLetterOfficeConfig) *DeadLetterOffice {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	cache := ttlcache.New[string, DeadLetter](
		ttlcache.WithTTL[string, DeadLetter](ttl),
	)
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, DeadLetter]) {
		if reason == ttlcache.EvictionReasonExpired {
			log.Debugf("actorkit: dead letter expired, actor=%s",
				item.Value().ActorID)
		}
	})

	go cache.Start()

	return &DeadLetterOffice{cache: cache}
}

// Record stores msg as a dead letter attributed to actorID and logs it at
// warning level.
func (d *DeadLetterOffice) Record(actorID string, msg any) {
	key := fmt.Sprintf("%s-%d", actorID, atomic.AddUint64(&d.seq, 1))
	d.cache.Set(key, DeadLetter{
		ActorID:  actorID,
		Message:  msg,
		Recorded: time.Now(),
	}, ttlcache.DefaultTTL)

	log.Warnf("actorkit: dead letter from actor %q: %#v", actorID, msg)
}

// Len reports the number of currently retained dead letters.
func (d *DeadLetterOffice) Len() int {
	return d.cache.Len()
}

// All returns a snapshot of every currently retained dead letter.
func (d *DeadLetterOffice) All() []DeadLetter {
	items := d.cache.Items()
	letters := make([]DeadLetter, 0, len(items))
	for _, item := range items {
		letters = append(letters, item.Value())
	}
	return letters
}

// Close stops the background eviction loop. It does not clear already
// recorded letters from memory until the cache is garbage collected.
func (d *DeadLetterOffice) Close() {
	d.cache.Stop()
}
