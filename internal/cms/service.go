package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
)

var (
	// ErrNotFound is returned when a document cannot be located.
	ErrNotFound = errors.New("cms: not found")
	// ErrUnknownTaxonomy is returned for taxonomy slugs outside the type map.
	ErrUnknownTaxonomy = errors.New("cms: unknown taxonomy type")
	// ErrUpstream wraps transport and status failures of the content API.
	ErrUpstream = errors.New("cms: upstream request failed")
)

type (
	Tool         = normalize.Tool
	BlogPost     = normalize.BlogPost
	OfferItem    = normalize.OfferItem
	TaxonomyItem = normalize.TaxonomyItem
)

// Recorder receives fetch and cache metrics.
type Recorder interface {
	ObserveFetch(kind, result string, latency time.Duration)
	CacheLookup(kind string, hit bool)
}

type noopRecorder struct{}

func (noopRecorder) ObserveFetch(string, string, time.Duration) {}
func (noopRecorder) CacheLookup(string, bool)                   {}

// TaxonomyTable maps public taxonomy slugs (use-types) to document types.
type TaxonomyTable interface {
	TaxonomyType(slug string) (string, bool)
	TaxonomySlugs() []string
}

// Service serves normalized content with a TTL cache in front of a Backend.
// Returned slices are shared between callers and must not be modified.
type Service struct {
	backend  Backend
	media    normalize.Options
	taxonomy TaxonomyTable
	logger   *zap.Logger
	metrics  Recorder
	timeout  time.Duration

	cacheSize   int
	contentTTL  time.Duration
	taxonomyTTL time.Duration
	content     *sequencedCache
	taxa        *sequencedCache
	group       singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithCacheTTL sets the lifetime of content and taxonomy entries.
func WithCacheTTL(content, taxonomy time.Duration) Option {
	return func(s *Service) {
		if content > 0 {
			s.contentTTL = content
		}
		if taxonomy > 0 {
			s.taxonomyTTL = taxonomy
		}
	}
}

func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithTimeout bounds each upstream fetch.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMedia configures how image references become URLs.
func WithMedia(opts normalize.Options) Option {
	return func(s *Service) { s.media = opts }
}

func NewService(backend Backend, taxonomy TaxonomyTable, opts ...Option) *Service {
	s := &Service{
		backend:     backend,
		taxonomy:    taxonomy,
		logger:      zap.NewNop(),
		metrics:     noopRecorder{},
		timeout:     defaultTimeout,
		cacheSize:   512,
		contentTTL:  10 * time.Minute,
		taxonomyTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("cms")
	s.content = newSequencedCache(s.cacheSize, s.contentTTL)
	s.taxa = newSequencedCache(s.cacheSize, s.taxonomyTTL)
	return s
}

// Media exposes the media options used during normalization.
func (s *Service) Media() normalize.Options { return s.media }

func (s *Service) ListTools(ctx context.Context) ([]Tool, error) {
	return load(ctx, s, s.content, "tools", "tools", s.fetchTools)
}

// GetTool finds a tool by its Dutch, English or legacy title.
func (s *Service) GetTool(ctx context.Context, title string) (Tool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Tool{}, ErrNotFound
	}
	return load(ctx, s, s.content, "tool", "tool:"+title, func(ctx context.Context) (Tool, error) {
		raw, err := s.backend.Tool(ctx, title)
		if err != nil {
			return Tool{}, err
		}
		if isNull(raw) {
			return Tool{}, fmt.Errorf("tool %q: %w", title, ErrNotFound)
		}
		return normalize.ToolJSON(raw, s.media), nil
	})
}

// ListBlogPosts returns posts newest first.
func (s *Service) ListBlogPosts(ctx context.Context) ([]BlogPost, error) {
	return load(ctx, s, s.content, "blog", "blog", s.fetchBlogPosts)
}

func (s *Service) GetBlogPost(ctx context.Context, slug string) (BlogPost, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return BlogPost{}, ErrNotFound
	}
	return load(ctx, s, s.content, "blog_post", "blog:"+slug, func(ctx context.Context) (BlogPost, error) {
		raw, err := s.backend.BlogPost(ctx, slug)
		if err != nil {
			return BlogPost{}, err
		}
		if isNull(raw) {
			return BlogPost{}, fmt.Errorf("blog post %q: %w", slug, ErrNotFound)
		}
		return normalize.BlogPostJSON(raw, s.media), nil
	})
}

// ListOfferItems returns offer items in CMS order.
func (s *Service) ListOfferItems(ctx context.Context) ([]OfferItem, error) {
	return load(ctx, s, s.content, "offer", "offer", s.fetchOfferItems)
}

// ListTaxonomy returns the values of the taxonomy behind slug, sorted by name.
func (s *Service) ListTaxonomy(ctx context.Context, slug string) ([]TaxonomyItem, error) {
	docType, ok := s.taxonomy.TaxonomyType(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaxonomy, slug)
	}
	return load(ctx, s, s.taxa, "taxonomy", "taxonomy:"+docType, func(ctx context.Context) ([]TaxonomyItem, error) {
		return s.fetchTaxonomy(ctx, docType)
	})
}

// Refresh refetches every list and taxonomy and replaces the cached values.
// It backs the scheduled cache warmer.
func (s *Service) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(4)

	refresh := func(c *sequencedCache, kind, key string, fetch func(context.Context) (any, error)) {
		g.Go(func() error {
			s.group.Forget(key)
			_, err := s.fill(ctx, c, kind, key, fetch)
			if err != nil {
				return fmt.Errorf("refresh %s: %w", key, err)
			}
			return nil
		})
	}
	refresh(s.content, "tools", "tools", erase(s.fetchTools))
	refresh(s.content, "blog", "blog", erase(s.fetchBlogPosts))
	refresh(s.content, "offer", "offer", erase(s.fetchOfferItems))
	for _, slug := range s.taxonomy.TaxonomySlugs() {
		docType, ok := s.taxonomy.TaxonomyType(slug)
		if !ok {
			continue
		}
		refresh(s.taxa, "taxonomy", "taxonomy:"+docType, func(ctx context.Context) (any, error) {
			return s.fetchTaxonomy(ctx, docType)
		})
	}
	return g.Wait()
}

// Purge drops every cached entry.
func (s *Service) Purge() {
	s.content.purge()
	s.taxa.purge()
}

func (s *Service) fetchTools(ctx context.Context) ([]Tool, error) {
	raw, err := s.backend.Tools(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.ToolsJSON(raw, s.media), nil
}

func (s *Service) fetchBlogPosts(ctx context.Context) ([]BlogPost, error) {
	raw, err := s.backend.BlogPosts(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.BlogPostsJSON(raw, s.media), nil
}

func (s *Service) fetchOfferItems(ctx context.Context) ([]OfferItem, error) {
	raw, err := s.backend.OfferItems(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.OfferItemsJSON(raw, s.media), nil
}

func (s *Service) fetchTaxonomy(ctx context.Context, docType string) ([]TaxonomyItem, error) {
	raw, err := s.backend.Taxonomy(ctx, docType)
	if err != nil {
		return nil, err
	}
	return normalize.TaxonomyItemsJSON(raw), nil
}

// load serves key from c, coalescing concurrent misses into one fetch. The
// caller stops waiting when ctx ends; the shared fetch itself runs detached
// from any single caller and is bounded by the service timeout.
func load[T any](ctx context.Context, s *Service, c *sequencedCache, kind, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.get(key); ok {
		s.metrics.CacheLookup(kind, true)
		return v.(T), nil
	}
	s.metrics.CacheLookup(kind, false)

	ch := s.group.DoChan(key, func() (any, error) {
		return s.fill(ctx, c, kind, key, erase(fetch))
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (s *Service) fill(ctx context.Context, c *sequencedCache, kind, key string, fetch func(context.Context) (any, error)) (any, error) {
	seq := nextSeq()
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	v, err := fetch(fetchCtx)
	latency := time.Since(start)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrNotFound) {
			result = "not_found"
		} else {
			s.logger.Warn("fetch failed", zap.String("key", key), zap.Duration("latency", latency), zap.Error(err))
		}
		s.metrics.ObserveFetch(kind, result, latency)
		return nil, err
	}
	s.metrics.ObserveFetch(kind, "ok", latency)

	if !c.store(key, seq, v) {
		s.logger.Debug("discarded superseded fill", zap.String("key", key), zap.Uint64("seq", seq))
		if current, ok := c.get(key); ok {
			return current, nil
		}
	}
	return v, nil
}

func erase[T any](fn func(context.Context) (T, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
