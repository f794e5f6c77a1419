// Package imagecache loads the raster images referenced by documents
// and keeps them as data URIs, ready to be embedded on save or export.
package imagecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnsupportedScheme is returned for references which are neither
	// data URIs, http(s) URLs nor paths in the configured file system.
	ErrUnsupportedScheme = errors.New("imagecache: unsupported image reference")
	// ErrNotImage is returned when the loaded content is not an image.
	ErrNotImage = errors.New("imagecache: not an image")
)

// number of concurrent fetches in ResolveAll
const resolveLimit = 4

type entry struct {
	mime    string
	data    []byte
	dataURI string
	err     error
}

// Cache stores the images loaded by URL. It is safe for concurrent use.
type Cache struct {
	log     *zap.Logger
	fetcher Fetcher
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	pending errgroup.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used to report failed loads.
func WithLogger(log *zap.Logger) Option { return func(c *Cache) { c.log = log } }

// WithFetcher replaces the default loader.
func WithFetcher(f Fetcher) Option { return func(c *Cache) { c.fetcher = f } }

// WithFS resolves relative references against fsys.
func WithFS(fsys fs.FS) Option {
	return func(c *Cache) {
		if f, ok := c.fetcher.(fetcher); ok {
			f.fsys = fsys
			c.fetcher = f
		}
	}
}

// WithHTTPClient sets the client used for http(s) references.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) {
		if f, ok := c.fetcher.(fetcher); ok {
			f.client = client
			c.fetcher = f
		}
	}
}

// WithTimeout bounds the duration of background loads.
func WithTimeout(d time.Duration) Option { return func(c *Cache) { c.timeout = d } }

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		log:     zap.NewNop(),
		fetcher: fetcher{client: http.DefaultClient},
		timeout: 30 * time.Second,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) lookup(url string) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	return e, ok
}

func (c *Cache) store(url string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = e
}

// Embed loads the image at url and returns it as a data URI.
// Results, failures included, are cached.
func (c *Cache) Embed(ctx context.Context, url string) (string, error) {
	if e, ok := c.lookup(url); ok {
		return e.dataURI, e.err
	}
	e := load(ctx, c.fetcher, url)
	if e.err != nil {
		c.log.Warn("image not loaded", zap.String("url", truncate(url)), zap.Error(e.err))
		if ctx.Err() != nil {
			// not cached, a later call may succeed
			return "", e.err
		}
	}
	c.store(url, e)
	return e.dataURI, e.err
}

func load(ctx context.Context, f Fetcher, url string) *entry {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return &entry{err: fmt.Errorf("imagecache: loading %s: %w", truncate(url), err)}
	}
	mime, data, err := normalize(data)
	if err != nil {
		return &entry{err: fmt.Errorf("imagecache: loading %s: %w", truncate(url), err)}
	}
	return &entry{mime: mime, data: data, dataURI: DataURI(mime, data)}
}

// normalize checks that data is an image, converting the
// formats not widely supported by viewers to PNG.
func normalize(data []byte) (string, []byte, error) {
	mime := sniff(data)
	switch mime {
	case "":
		return "", nil, ErrNotImage
	case "image/png", "image/jpeg", "image/gif", "image/svg+xml":
		return mime, data, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrNotImage, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", nil, err
	}
	return "image/png", buf.Bytes(), nil
}

// EmbedAsync starts loading url in the background, if it is not known yet.
// Failures are only logged. Use Wait to synchronize.
func (c *Cache) EmbedAsync(url string) {
	if _, ok := c.lookup(url); ok {
		return
	}
	c.pending.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.Embed(ctx, url)
		return nil
	})
}

// Wait blocks until every background load is done.
func (c *Cache) Wait() { c.pending.Wait() }

// ResolveAll loads the given urls concurrently and returns
// the failures, by url.
func (c *Cache) ResolveAll(ctx context.Context, urls []string) map[string]error {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures = make(map[string]error)
	)
	g.SetLimit(resolveLimit)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			if _, err := c.Embed(ctx, url); err != nil {
				mu.Lock()
				failures[url] = err
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return failures
}

// Seed registers an already encoded image for url.
func (c *Cache) Seed(url, dataURI string) {
	mime, data, err := ParseDataURI(dataURI)
	if err != nil {
		c.log.Warn("invalid image data", zap.String("url", truncate(url)), zap.Error(err))
		return
	}
	c.store(url, &entry{mime: mime, data: data, dataURI: dataURI})
}

// Encodable returns the data URI cached for url, if it was loaded successfully.
func (c *Cache) Encodable(url string) (string, bool) {
	e, ok := c.lookup(url)
	if !ok || e.err != nil {
		return "", false
	}
	return e.dataURI, true
}

// IsKnownGood reports whether url has been loaded successfully.
func (c *Cache) IsKnownGood(url string) bool {
	_, ok := c.Encodable(url)
	return ok
}

// Data returns the media type and raw content cached for url.
func (c *Cache) Data(url string) (mime string, data []byte, ok bool) {
	e, ok := c.lookup(url)
	if !ok || e.err != nil {
		return "", nil, false
	}
	return e.mime, e.data, true
}

// Image decodes the raster image cached for url.
func (c *Cache) Image(url string) (image.Image, error) {
	mime, data, ok := c.Data(url)
	if !ok {
		return nil, fmt.Errorf("imagecache: %s not loaded", truncate(url))
	}
	if mime == "image/svg+xml" {
		return nil, fmt.Errorf("%w: %s is a vector image", ErrNotImage, truncate(url))
	}
	return imaging.Decode(bytes.NewReader(data))
}

// truncate shortens data URIs in messages
func truncate(url string) string {
	if len(url) > 64 {
		return url[:61] + "..."
	}
	return url
}
