package delivery

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const resourceURLPrefix = "blob:tiexport/"

// Resource is a transient in-memory download payload
type Resource struct {
	Data      []byte
	MIMEType  string
	Filename  string
	CreatedAt time.Time
}

// ResourceRegistry holds transient download resources addressed by URL
type ResourceRegistry struct {
	maxBytes int

	mu        sync.RWMutex
	resources map[string]*Resource
}

// NewResourceRegistry creates a registry. maxBytes <= 0 means unlimited.
func NewResourceRegistry(maxBytes int) *ResourceRegistry {
	return &ResourceRegistry{
		maxBytes:  maxBytes,
		resources: make(map[string]*Resource),
	}
}

// Create registers data and returns its URL
func (r *ResourceRegistry) Create(data []byte, mimeType, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrResourceCreateFailed)
	}
	if r.maxBytes > 0 && len(data) > r.maxBytes {
		return "", fmt.Errorf("%w: payload of %d bytes exceeds limit of %d", ErrResourceCreateFailed, len(data), r.maxBytes)
	}

	url := resourceURLPrefix + uuid.NewString()

	r.mu.Lock()
	r.resources[url] = &Resource{
		Data:      data,
		MIMEType:  mimeType,
		Filename:  filename,
		CreatedAt: time.Now(),
	}
	r.mu.Unlock()

	return url, nil
}

// Resolve returns the resource behind url
func (r *ResourceRegistry) Resolve(url string) (*Resource, error) {
	if !strings.HasPrefix(url, resourceURLPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, url)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, url)
	}
	return res, nil
}

// Revoke releases the resource behind url. Revoking twice is a no-op.
func (r *ResourceRegistry) Revoke(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resources, url)
}

// Len returns the number of live resources
func (r *ResourceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

// Link points at a transient resource for the lifetime of one download
type Link struct {
	URL      string
	Filename string
	MIMEType string

	registry *ResourceRegistry
}

// Open resolves the link's payload; it fails once the link is revoked
func (l *Link) Open() (*Resource, error) {
	if l.registry == nil {
		return nil, fmt.Errorf("%w: detached link", ErrResourceNotFound)
	}
	return l.registry.Resolve(l.URL)
}
