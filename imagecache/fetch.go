package imagecache

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
)

// maximum size of a fetched image
const maxImageSize = 32 << 20

// Fetcher loads the raw bytes of an image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// fetcher resolves data URIs, http(s) URLs and paths relative to a file system.
type fetcher struct {
	client *http.Client
	fsys   fs.FS
}

func (f fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		_, data, err := ParseDataURI(ref)
		return data, err
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.fetchHTTP(ctx, ref)
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "" && u.Scheme != "file") || f.fsys == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, ref)
	}
	return fs.ReadFile(f.fsys, strings.TrimPrefix(u.Path, "/"))
}

func (f fetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imagecache: fetching %s: %s", ref, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
}

// ParseDataURI decodes a `data:` URI, returning its media type and payload.
// Parameters other than `base64` (like `svgedit_url`) are ignored.
func ParseDataURI(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("imagecache: not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("imagecache: malformed data URI")
	}
	params := strings.Split(header, ";")
	mime = params[0]
	isBase64 := false
	for _, p := range params[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		s, err := url.PathUnescape(payload)
		return mime, []byte(s), err
	}
	data, err = base64.StdEncoding.DecodeString(strings.Join(strings.Fields(payload), ""))
	return mime, data, err
}

// DataURI encodes data as a base64 `data:` URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// sniff returns the media type of an image payload, or an empty string
// for anything else.
func sniff(data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		if filetype.IsImage(data) {
			return kind.MIME.Value
		}
		return ""
	}
	head := bytes.TrimSpace(data[:min(len(data), 512)])
	if bytes.HasPrefix(head, []byte("<svg")) || (bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(data, []byte("<svg"))) {
		return "image/svg+xml"
	}
	return ""
}
