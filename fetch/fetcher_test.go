package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/git-pkgs/packagecloud/client"
	"github.com/git-pkgs/packagecloud/config"
	"github.com/git-pkgs/packagecloud/internal/core"
)

func newTestFetcher(t *testing.T, handler http.Handler) (*Fetcher, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Defaults()
	cfg.URLBase = server.URL + "/api/v1"
	cfg.DomainBase = server.URL

	c := client.NewClient(client.WithRetryDelay(time.Millisecond), client.WithToken("secret"))
	return NewFetcher(c, client.NewURLs(cfg)), server.URL
}

func dirFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestFetchSuccess(t *testing.T) {
	content := "test artifact content"
	f, base := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); !ok || user != "secret" {
			t.Errorf("basic auth user = %q, want token", user)
		}
		w.Header().Set("Content-Type", "application/x-rpm")
		w.Header().Set("Content-Length", "21")
		_, _ = w.Write([]byte(content))
	}))

	artifact, err := f.Fetch(context.Background(), base+"/tool.rpm")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer func() { _ = artifact.Body.Close() }()

	if artifact.Size != 21 {
		t.Errorf("Size = %d, want 21", artifact.Size)
	}
	if artifact.ContentType != "application/x-rpm" {
		t.Errorf("ContentType = %q, want %q", artifact.ContentType, "application/x-rpm")
	}

	body, err := io.ReadAll(artifact.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(body) != content {
		t.Errorf("body = %q, want %q", string(body), content)
	}
}

func TestDownloadBinary(t *testing.T) {
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/acme/stable/packages/el/7/tool-1.0-1.el7.x86_64.rpm/download" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("rpm bytes"))
	}))

	dir := t.TempDir()
	pkg := &core.Package{
		Type:        "rpm",
		Filename:    "tool-1.0-1.el7.x86_64.rpm",
		DownloadURL: "/acme/stable/packages/el/7/tool-1.0-1.el7.x86_64.rpm/download",
	}
	paths, err := f.Download(context.Background(), pkg, dir)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(dir, pkg.Filename) {
		t.Fatalf("paths = %v", paths)
	}
	data, _ := os.ReadFile(paths[0])
	if string(data) != "rpm bytes" {
		t.Errorf("file content = %q", data)
	}
}

var sourcePkg = &core.Package{
	Type:        "dsc",
	Filename:    "hello_2.10-2.dsc",
	DownloadURL: "/acme/stable/packages/ubuntu/xenial/hello_2.10-2.dsc/download",
	SourceFiles: []core.SourceFile{
		{Filename: "hello_2.10.orig.tar.gz"},
		{Filename: "hello_2.10-2.debian.tar.xz"},
	},
}

func TestDownloadSource(t *testing.T) {
	var gets atomic.Int32
	files := map[string]string{
		"/acme/stable/packages/ubuntu/xenial/hello_2.10-2.dsc/download":                                   "dsc",
		"/acme/stable/packages/ubuntu/xenial/hello_2.10-2.dsc/files/hello_2.10.orig.tar.gz/download":     "orig",
		"/acme/stable/packages/ubuntu/xenial/hello_2.10-2.dsc/files/hello_2.10-2.debian.tar.xz/download": "debian",
	}
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))

	dir := t.TempDir()
	paths, err := f.Download(context.Background(), sourcePkg, dir)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if n := gets.Load(); n != 3 {
		t.Errorf("GET requests = %d, want 3", n)
	}
	if len(paths) != 3 {
		t.Fatalf("len(paths) = %d, want 3", len(paths))
	}

	want := []string{"hello_2.10-2.debian.tar.xz", "hello_2.10-2.dsc", "hello_2.10.orig.tar.gz"}
	got := dirFiles(t, dir)
	if len(got) != len(want) {
		t.Fatalf("dir = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dir[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	data, _ := os.ReadFile(filepath.Join(dir, "hello_2.10.orig.tar.gz"))
	if string(data) != "orig" {
		t.Errorf("orig content = %q", data)
	}
}

func TestDownloadSourcePartialFailure(t *testing.T) {
	var gets atomic.Int32
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		if filepath.Base(filepath.Dir(r.URL.Path)) == "hello_2.10-2.debian.tar.xz" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	dir := t.TempDir()
	paths, err := f.Download(context.Background(), sourcePkg, dir)

	var te *client.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Download = %v, want TransportError", err)
	}
	if te.Attempts != config.DefaultMaxAttempts {
		t.Errorf("Attempts = %d, want %d", te.Attempts, config.DefaultMaxAttempts)
	}
	// 1 primary + 1 auxiliary + 3 attempts on the failing auxiliary file.
	if n := gets.Load(); n != 5 {
		t.Errorf("GET requests = %d, want 5", n)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v, want the two completed files", paths)
	}

	got := dirFiles(t, dir)
	want := []string{"hello_2.10-2.dsc", "hello_2.10.orig.tar.gz"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("dir = %v, want %v", got, want)
	}
}

func TestDownloadShortBody(t *testing.T) {
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("short"))
	}))

	dir := t.TempDir()
	pkg := &core.Package{Type: "deb", Filename: "tool_1.0_amd64.deb", DownloadURL: "/x/download"}
	_, err := f.Download(context.Background(), pkg, dir)
	if err == nil {
		t.Fatal("expected error for truncated body")
	}
	if got := dirFiles(t, dir); len(got) != 0 {
		t.Errorf("dir = %v, want empty", got)
	}
}

func TestDownloadWithoutURL(t *testing.T) {
	f, _ := newTestFetcher(t, http.NotFoundHandler())

	_, err := f.Download(context.Background(), &core.Package{Filename: "x.rpm"}, t.TempDir())
	if !errors.Is(err, ErrNoDownloadURL) {
		t.Errorf("Download = %v, want ErrNoDownloadURL", err)
	}
}
