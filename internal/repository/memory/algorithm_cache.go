package memory

import (
	"time"

	"ai-thumbnail-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

type AlgorithmCache struct {
	cache *cache.Cache
}

func NewAlgorithmCache(ttl time.Duration) *AlgorithmCache {
	return &AlgorithmCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *AlgorithmCache) Save(algorithm *entity.Algorithm) {
	r.cache.Set(algorithm.Id, algorithm, cache.DefaultExpiration)
}

func (r *AlgorithmCache) Get(id string) (*entity.Algorithm, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*entity.Algorithm), true
	}
	return nil, false
}

func (r *AlgorithmCache) Flush() {
	r.cache.Flush()
}
