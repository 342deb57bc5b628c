package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/leakprobe/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a verdict cache key from the judged inputs.
// Whitespace and case differences in the texts map to the same key.
func CacheKey(style model.QuestionStyle, question, claim string) string {
	h := sha256.New()
	for _, part := range []string{string(style), question, claim} {
		h.Write([]byte(strings.Join(strings.Fields(strings.ToLower(part)), " ")))
		h.Write([]byte{0})
	}
	return "leakprobe:verdict:v1:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the verdict cache described by cfg: nil when disabled,
// memory-only without a directory, memory over disk otherwise.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
}

// VerdictCache stores judge verdicts keyed by CacheKey
type VerdictCache struct {
	cache Cache
	ttl   time.Duration
}

// NewVerdictCache wraps a byte cache. A nil cache disables caching.
func NewVerdictCache(c Cache, ttl time.Duration) *VerdictCache {
	return &VerdictCache{cache: c, ttl: ttl}
}

// Get returns the cached verdict for an item. Entries that no longer decode
// to a valid verdict are evicted and treated as misses.
func (v *VerdictCache) Get(item model.JudgeItem) (model.ValidationVerdict, bool) {
	if v == nil || v.cache == nil {
		return model.ValidationVerdict{}, false
	}
	key := CacheKey(item.Style, item.QuestionText, item.ClaimText)
	data, ok := v.cache.Get(key)
	if !ok {
		return model.ValidationVerdict{}, false
	}

	var verdict model.ValidationVerdict
	if err := json.Unmarshal(data, &verdict); err == nil {
		// Cached under the text, so rebind to the asking question
		verdict.QuestionID = item.QuestionID
		if verdict.Valid() {
			return verdict, true
		}
	}
	_ = v.cache.Delete(key)
	return model.ValidationVerdict{}, false
}

// Put stores a verdict for an item
func (v *VerdictCache) Put(item model.JudgeItem, verdict model.ValidationVerdict) error {
	if v == nil || v.cache == nil {
		return nil
	}
	data, err := json.Marshal(verdict)
	if err != nil {
		return err
	}
	return v.cache.Set(CacheKey(item.Style, item.QuestionText, item.ClaimText), data, v.ttl)
}
