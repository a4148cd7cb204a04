// Package cache provides an optional Redis-backed cache for provider GET responses.
//
// Listings such as domains and webhooks change rarely, and a workflow that runs
// the same action for many input items would otherwise fetch them once per item.
// The client only consults the cache when a Redis client and a positive TTL are
// configured, so by default every request goes to the provider.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/domains",
//		QueryParams: url.Values{},
//		Account:     cache.Fingerprint(apiKey),
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the provider, then
//		_ = manager.Set(ctx, key, cache.NewEntry(body, http.StatusOK, time.Minute))
//	}
//
// # Metrics
//
//   - mail_cache_hits_total - Cache hits
//   - mail_cache_misses_total - Cache misses
//   - mail_cache_errors_total{operation} - Redis or decode failures
//
// Keys never contain the API key itself, only a short SHA-256 fingerprint of it,
// so responses of different accounts sharing one Redis stay separated.
package cache
