package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/pkg/middleware/requestid"
)

const (
	responseMetaKey   = "response_meta"
	cacheHitKey       = "cache_hit"
	processingTimeKey = "processing_time_ms"
	requestIDKey      = "request_id"
)

type responseMeta struct {
	started time.Time
	values  map[string]interface{}
}

// WithResponseMeta starts the per-request clock and the value bag that ends up under the envelope's meta key.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now(), values: map[string]interface{}{}})
		c.Next()
	}
}

// SetCacheHit records whether the response body came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c).values[cacheHitKey] = hit
}

// ExtractMeta snapshots the collected values, stamped with the elapsed time and the request ID.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFor(c)
	out := make(map[string]interface{}, len(meta.values)+2)
	for k, v := range meta.values {
		out[k] = v
	}
	out[processingTimeKey] = time.Since(meta.started).Milliseconds()
	if id := requestid.Value(c); id != "" {
		out[requestIDKey] = id
	}
	return out
}

// metaFor falls back to a fresh bag so handlers mounted without WithResponseMeta still work.
func metaFor(c *gin.Context) *responseMeta {
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(*responseMeta); ok {
			return meta
		}
	}
	meta := &responseMeta{started: time.Now(), values: map[string]interface{}{}}
	c.Set(responseMetaKey, meta)
	return meta
}
