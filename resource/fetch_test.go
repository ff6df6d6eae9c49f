package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexGLSL = "#version 300 es\nvoid main(){gl_Position=vec4(0);}"

func newShaderServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/shader/vertex_shader.glsl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(vertexGLSL))
	})
	mux.HandleFunc("/shader/bom.glsl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(append([]byte{0xEF, 0xBB, 0xBF}, vertexGLSL...))
	})
	mux.HandleFunc("/shader/latin1.glsl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=ISO-8859-1")
		_, _ = w.Write([]byte{'/', '/', ' ', 0xE9})
	})
	mux.HandleFunc("/shader/binary.glsl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	})
	mux.HandleFunc("/shader/klingon.glsl", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=x-klingon")
		_, _ = w.Write([]byte("void main(){}"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchHTTPRelativeToBase(t *testing.T) {
	srv := newShaderServer(t)
	f, err := NewFetcher(srv.Client(), srv.URL+"/pkg/", nil)
	require.NoError(t, err)

	text, err := f.Fetch(context.Background(), Request{Name: "vertex", Location: "../shader/vertex_shader.glsl"})
	require.NoError(t, err)
	assert.Equal(t, vertexGLSL, text)
}

func TestFetchHTTPNotFoundIsTransport(t *testing.T) {
	srv := newShaderServer(t)
	f, err := NewFetcher(srv.Client(), srv.URL+"/pkg/", nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), Request{Name: "vertex", Location: "../shader/missing.glsl"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrDecode)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "vertex", fe.Name)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Contains(t, fe.Error(), "status 404")
}

func TestFetchHTTPUnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f, err := NewFetcher(nil, "", nil)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), Request{Name: "fragment", Location: url + "/fragment.glsl"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestFetchDecoding(t *testing.T) {
	srv := newShaderServer(t)
	f, err := NewFetcher(srv.Client(), srv.URL, nil)
	require.NoError(t, err)
	ctx := context.Background()

	text, err := f.Fetch(ctx, Request{Name: "bom", Location: "/shader/bom.glsl"})
	require.NoError(t, err)
	assert.Equal(t, vertexGLSL, text)

	text, err = f.Fetch(ctx, Request{Name: "latin1", Location: "/shader/latin1.glsl"})
	require.NoError(t, err)
	assert.Equal(t, "// é", text)

	_, err = f.Fetch(ctx, Request{Name: "binary", Location: "/shader/binary.glsl"})
	assert.ErrorIs(t, err, ErrDecode)

	_, err = f.Fetch(ctx, Request{Name: "klingon", Location: "/shader/klingon.glsl"})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestFetchLocalFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shader"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shader", "vertex.glsl"), []byte(vertexGLSL), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shader", "bad.glsl"), []byte{0xc3, 0x28}, 0644))

	f, err := NewFetcher(nil, dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	text, err := f.Fetch(ctx, Request{Name: "vertex", Location: "shader/vertex.glsl"})
	require.NoError(t, err)
	assert.Equal(t, vertexGLSL, text)

	text, err = f.Fetch(ctx, Request{Name: "vertex", Location: "file://" + filepath.ToSlash(filepath.Join(dir, "shader", "vertex.glsl"))})
	require.NoError(t, err)
	assert.Equal(t, vertexGLSL, text)

	_, err = f.Fetch(ctx, Request{Name: "fragment", Location: "shader/fragment.glsl"})
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = f.Fetch(ctx, Request{Name: "bad", Location: "shader/bad.glsl"})
	assert.ErrorIs(t, err, ErrDecode)

	_, err = f.Fetch(ctx, Request{Name: "empty"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestFetchSharesInFlightRequests(t *testing.T) {
	var hits atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(entered)
		}
		<-release
		_, _ = w.Write([]byte(vertexGLSL))
	}))
	t.Cleanup(srv.Close)

	f, err := NewFetcher(srv.Client(), srv.URL, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	texts := make([]string, 2)
	errs := make([]error, 2)
	fetch := func(i int) {
		defer wg.Done()
		texts[i], errs[i] = f.Fetch(context.Background(), Request{Name: "vertex", Location: "/v.glsl"})
	}
	wg.Add(1)
	go fetch(0)
	<-entered
	wg.Add(1)
	go fetch(1)
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range texts {
		require.NoError(t, errs[i])
		assert.Equal(t, vertexGLSL, texts[i])
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	var hits atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(entered)
		}
		<-release
		_, _ = w.Write([]byte(vertexGLSL))
	}))
	t.Cleanup(srv.Close)

	f, err := NewFetcher(srv.Client(), srv.URL, nil)
	require.NoError(t, err)
	req := Request{Name: "vertex", Location: "/v.glsl"}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctxA, req)
		errA <- err
	}()
	<-entered

	var textB string
	var errB error
	done := make(chan struct{})
	go func() {
		defer close(done)
		textB, errB = f.Fetch(context.Background(), req)
	}()

	cancelA()
	err = <-errA
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)

	time.Sleep(100 * time.Millisecond)
	close(release)
	<-done
	require.NoError(t, errB)
	assert.Equal(t, vertexGLSL, textB)
	assert.Equal(t, int32(1), hits.Load())
}

func TestJoinAllWithFetcherStopsOnTransportFailure(t *testing.T) {
	srv := newShaderServer(t)
	f, err := NewFetcher(srv.Client(), srv.URL+"/pkg/", nil)
	require.NoError(t, err)

	reqs := []Request{
		{Name: "vertex", Location: "../shader/vertex_missing.glsl"},
		{Name: "fragment", Location: "../shader/vertex_shader.glsl"},
	}
	_, err = JoinAll(context.Background(), reqs, f.Fetch)
	assert.ErrorIs(t, err, ErrTransport)

	reqs[0].Location = "../shader/bom.glsl"
	bundle, err := JoinAll(context.Background(), reqs, f.Fetch)
	require.NoError(t, err)
	assert.Equal(t, Bundle[string]{"vertex": vertexGLSL, "fragment": vertexGLSL}, bundle)
}
