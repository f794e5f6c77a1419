package imagecache

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	return img
}

func encoded(t *testing.T, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, testImage(), format))
	return buf.Bytes()
}

func TestParseDataURI(t *testing.T) {
	mime, data, err := ParseDataURI("data:image/png;svgedit_url=a%2Fb;base64,AAEC")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte{0, 1, 2}, data)

	mime, data, err = ParseDataURI("data:image/svg+xml,%3Csvg%2F%3E")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", mime)
	assert.Equal(t, "<svg/>", string(data))

	_, _, err = ParseDataURI("data:image/png;base64")
	assert.Error(t, err)
	_, _, err = ParseDataURI("http://x")
	assert.Error(t, err)
}

func TestEmbedFS(t *testing.T) {
	var bmpData bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpData, testImage()))
	fsys := fstest.MapFS{
		"img/a.png":   {Data: encoded(t, imaging.PNG)},
		"img/b.jpg":   {Data: encoded(t, imaging.JPEG)},
		"img/c.bmp":   {Data: bmpData.Bytes()},
		"img/d.svg":   {Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)},
		"img/e f.png": {Data: encoded(t, imaging.PNG)},
		"notes.txt":   {Data: []byte("hello")},
	}
	c := New(WithFS(fsys))
	ctx := context.Background()

	uri, err := c.Embed(ctx, "img/a.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.True(t, c.IsKnownGood("img/a.png"))

	uri, err = c.Embed(ctx, "img/b.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	// converted
	uri, err = c.Embed(ctx, "img/c.bmp")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	img, err := c.Image("img/c.bmp")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())

	uri, err = c.Embed(ctx, "img/d.svg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/svg+xml;base64,"))
	_, err = c.Image("img/d.svg")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = c.Embed(ctx, "file:///img/e%20f.png")
	assert.NoError(t, err)

	_, err = c.Embed(ctx, "notes.txt")
	assert.ErrorIs(t, err, ErrNotImage)
	assert.False(t, c.IsKnownGood("notes.txt"))
	_, ok := c.Encodable("notes.txt")
	assert.False(t, ok)

	_, err = c.Embed(ctx, "missing.png")
	assert.Error(t, err)
}

func TestEmbedHTTP(t *testing.T) {
	png := encoded(t, imaging.PNG)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/a.png" {
			w.Write(png)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(WithHTTPClient(srv.Client()))
	c.EmbedAsync(srv.URL + "/a.png")
	c.EmbedAsync(srv.URL + "/missing.png")
	c.Wait()

	assert.True(t, c.IsKnownGood(srv.URL+"/a.png"))
	assert.False(t, c.IsKnownGood(srv.URL+"/missing.png"))
	mime, data, ok := c.Data(srv.URL + "/a.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, png, data)

	// known urls are not fetched again
	c.EmbedAsync(srv.URL + "/a.png")
	c.Wait()
	assert.Equal(t, int32(2), hits.Load())
}

func TestResolveAll(t *testing.T) {
	png := encoded(t, imaging.PNG)
	c := New(WithFS(fstest.MapFS{"a.png": {Data: png}}))
	failures := c.ResolveAll(context.Background(), []string{
		"a.png",
		DataURI("image/png", png),
		"ftp://example.com/b.png",
		"b.png",
	})
	assert.Len(t, failures, 2)
	assert.ErrorIs(t, failures["ftp://example.com/b.png"], ErrUnsupportedScheme)
	assert.Contains(t, failures, "b.png")
}

func TestSeed(t *testing.T) {
	c := New(WithFetcher(nil))
	c.Seed("http://example.com/a.png", "data:image/png;svgedit_url=x;base64,AAAA")
	uri, ok := c.Encodable("http://example.com/a.png")
	assert.True(t, ok)
	assert.Equal(t, "data:image/png;svgedit_url=x;base64,AAAA", uri)
	// the seeded value is returned without fetching
	uri, err := c.Embed(context.Background(), "http://example.com/a.png")
	assert.NoError(t, err)
	assert.Equal(t, "data:image/png;svgedit_url=x;base64,AAAA", uri)

	c.Seed("b", "not a data uri")
	assert.False(t, c.IsKnownGood("b"))
}
