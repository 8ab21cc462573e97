package confluence

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSConfig holds OSS configuration for presigned chunk sources
type OSSConfig struct {
	Endpoint  string // OSS endpoint (e.g., "oss-cn-hangzhou")
	Bucket    string // Bucket name
	AccessKey string // Access key
	SecretKey string // Secret key
	Internal  bool   // Use internal endpoint
}

// NewOSSURLSources presigns one GET URL per object key, in key order,
// and returns them as lazy URL sources. This is the production path for
// merging chunk files held in a bucket: nothing is fetched until the
// engine consumes each chunk, and the presigned URL carries the access
// grant so the merge itself needs no credentials.
func NewOSSURLSources(cfg OSSConfig, keys []string, expiry time.Duration) ([]Source, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no object keys given")
	}

	// Build endpoint URL
	endpoint := cfg.Endpoint
	if cfg.Internal {
		endpoint = endpoint + "-internal"
	}
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = fmt.Sprintf("https://%s.aliyuncs.com", endpoint)
	}

	client, err := oss.New(endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	if expiry <= 0 {
		expiry = 10 * time.Minute
	}
	sources := make([]Source, 0, len(keys))
	for _, key := range keys {
		signed, err := bucket.SignURL(key, oss.HTTPGet, int64(expiry.Seconds()))
		if err != nil {
			return nil, fmt.Errorf("failed to presign %s: %w", key, err)
		}
		sources = append(sources, NewURLSource(http.DefaultClient, signed))
	}
	return sources, nil
}
