package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// BriefCache holds rendered parcel briefs. Parcels are immutable after
// creation, so entries only expire to bound memory.
type BriefCache struct {
	cache *cache.Cache
}

func NewBriefCache(ttl time.Duration) *BriefCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BriefCache{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *BriefCache) Save(parcelId uuid.UUID, brief string) {
	r.cache.Set(parcelId.String(), brief, cache.DefaultExpiration)
}

func (r *BriefCache) Get(parcelId uuid.UUID) (string, bool) {
	if x, found := r.cache.Get(parcelId.String()); found {
		return x.(string), true
	}
	return "", false
}

func (r *BriefCache) Delete(parcelId uuid.UUID) {
	r.cache.Delete(parcelId.String())
}
