package confluence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	cferrors "github.com/hkloudou/confluence/errors"
)

func TestMergeFromURLs(t *testing.T) {
	chunks := map[string]string{
		"/chunk-0": `[{"a":1}]`,
		"/chunk-1": `[]`,
		"/chunk-2": `[{"b":2},{"c":3}]`,
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := chunks[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := MergeFromURLs(context.Background(), FormatJSONArray, URLOptions{
		URLs: []string{
			srv.URL + "/chunk-0",
			srv.URL + "/chunk-1",
			srv.URL + "/chunk-2",
		},
		Output: &buf,
	})
	require.NoError(t, err)
	require.Equal(t, `[{"a":1},{"b":2},{"c":3}]`, buf.String())
	require.Equal(t, int32(3), hits.Load())
}

func TestMergeFromURLsFollowsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			http.Redirect(w, r, "/chunk", http.StatusFound)
			return
		}
		io.WriteString(w, "[1]")
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := MergeFromURLs(context.Background(), FormatJSONArray, URLOptions{
		URLs:   []string{srv.URL + "/moved"},
		Output: &buf,
	})
	require.NoError(t, err)
	require.Equal(t, "[1]", buf.String())
}

func TestMergeFromURLsNon2xxIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := MergeFromURLs(context.Background(), FormatJSONArray, URLOptions{
		URLs:   []string{srv.URL + "/chunk"},
		Output: &buf,
	})
	require.Error(t, err)
	require.True(t, cferrors.IsFetch(err))

	var fe *cferrors.FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusGone, fe.StatusCode)
}

func TestMergeFromURLsRejectsNonHTTPEagerly(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := MergeFromURLs(context.Background(), FormatJSONArray, URLOptions{
		URLs:   []string{srv.URL + "/chunk", "ftp://example.com/chunk"},
		Output: &buf,
	})
	require.True(t, cferrors.IsValidation(err))
	require.Contains(t, err.Error(), "ftp://example.com/chunk")
	require.Zero(t, hits.Load(), "validation must run before any fetch")
}

func TestMergeFromURLsEmptyList(t *testing.T) {
	var buf bytes.Buffer
	err := MergeFromURLs(context.Background(), FormatJSONArray, URLOptions{Output: &buf})
	require.True(t, cferrors.IsValidation(err))
}

func TestMergeFromURLsCancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[")
		w.(http.Flusher).Flush()
		cancel()
		// hold the stream open until the client gives up, so the merge
		// has to stop at a cancellation checkpoint rather than at EOF
		<-r.Context().Done()
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := MergeFromURLs(ctx, FormatJSONArray, URLOptions{
		URLs:   []string{srv.URL + "/chunk", srv.URL + "/never"},
		Output: &buf,
	})
	require.Error(t, err)
	require.True(t, cferrors.IsCancellation(err))
}

func TestValidateURL(t *testing.T) {
	require.NoError(t, validateURL("https://example.com/a.csv"))
	require.NoError(t, validateURL("http://example.com/a.csv"))
	require.Error(t, validateURL("file:///tmp/a.csv"))
	require.Error(t, validateURL("example.com/a.csv"))
	require.Error(t, validateURL("://bad"))
}

func TestURLSourceIsLazy(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, "a,b\n")
	}))
	defer srv.Close()

	src := NewURLSource(srv.Client(), srv.URL+"/chunk")
	require.Zero(t, hits.Load(), "constructing a URL source must not fetch")

	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, int32(1), hits.Load())
}
