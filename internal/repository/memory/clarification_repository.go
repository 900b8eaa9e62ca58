package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"ai-deskmate-be/pkg/routing/dialogue"
)

// ClarificationRepository backs the dialogue machine with a TTL cache keyed
// by conversation id. Expiry is the cache's job: an entry that outlives the
// clarification window simply disappears, and the next reply on that
// conversation is treated as fresh.
type ClarificationRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

var _ dialogue.Store = &ClarificationRepository{}

// NewClarificationRepository builds the store. onExpired, if set, fires for
// entries the janitor purged after running out their window; deliberate
// deletes (resolved or overwritten clarifications) do not count.
func NewClarificationRepository(ttl time.Duration, onExpired func(*dialogue.PendingClarification)) *ClarificationRepository {
	// Purge frequently; an expired question should be treated as gone
	// within seconds, not minutes after its window closed.
	c := cache.New(ttl, 30*time.Second)

	if onExpired != nil {
		c.OnEvicted(func(key string, value interface{}) {
			pending, ok := value.(*dialogue.PendingClarification)
			if !ok {
				return
			}
			// Eviction also fires on explicit Delete; only entries whose
			// window actually elapsed count as expired.
			if time.Since(pending.CreatedAt) >= ttl {
				onExpired(pending)
			}
		})
	}

	return &ClarificationRepository{
		cache: c,
		ttl:   ttl,
	}
}

func (r *ClarificationRepository) Save(pending *dialogue.PendingClarification) {
	r.cache.Set(pending.ConversationId, pending, cache.DefaultExpiration)
}

func (r *ClarificationRepository) Get(conversationId string) (*dialogue.PendingClarification, bool) {
	if x, found := r.cache.Get(conversationId); found {
		return x.(*dialogue.PendingClarification), true
	}
	return nil, false
}

func (r *ClarificationRepository) Delete(conversationId string) {
	r.cache.Delete(conversationId)
}

// Count reports how many conversations currently hold an open question.
func (r *ClarificationRepository) Count() int {
	return r.cache.ItemCount()
}

// TTL is the clarification window this store was built with.
func (r *ClarificationRepository) TTL() time.Duration {
	return r.ttl
}
