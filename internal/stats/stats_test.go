package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/git-pkgs/packagecloud/client"
	"github.com/git-pkgs/packagecloud/config"
	"github.com/git-pkgs/packagecloud/internal/core"
)

const base = "/api/v1/repos/acme/stable/package/rpm/el/7/tool/x86_64/1.0/1/stats/downloads"

var pkg = &core.Package{
	Filename:           "tool-1.0-1.el7.x86_64.rpm",
	DownloadsCountURL:  base + "/count.json",
	DownloadsDetailURL: base + "/detail.json",
	DownloadsSeriesURL: base + "/series/daily.json",
}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Defaults()
	cfg.URLBase = server.URL + "/api/v1"
	cfg.DomainBase = server.URL

	c := client.NewClient(client.WithRetryDelay(time.Millisecond))
	return New(c, client.NewURLs(cfg))
}

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func TestRangeQuery(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want string
	}{
		{"empty", Range{}, ""},
		{"start only", Since(jan1), "start_date=20240101Z"},
		{"start and end", Range{Start: jan1, End: jan31}, "end_date=20240131Z&start_date=20240101Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Query().Encode(); got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != base+"/count.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("start_date"); got != "20240101Z" {
			t.Errorf("start_date = %q, want 20240101Z", got)
		}
		if r.URL.Query().Has("end_date") {
			t.Error("end_date sent for open range")
		}
		_, _ = w.Write([]byte(`{"value": 17}`))
	})

	n, err := s.Count(context.Background(), pkg, Since(jan1))
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 17 {
		t.Errorf("Count = %d, want 17", n)
	}
}

func TestCountMissingValue(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := s.Count(context.Background(), pkg, Since(jan1))
	var mre *core.MalformedResponseError
	if !errors.As(err, &mre) {
		t.Errorf("Count = %v, want MalformedResponseError", err)
	}
}

func TestDetail(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("end_date"); got != "20240131Z" {
			t.Errorf("end_date = %q, want 20240131Z", got)
		}
		_, _ = w.Write([]byte(`[
			{"downloaded_at": "2024-01-02T10:00:00.000Z", "ip_address": "10.0.0.1",
			 "user_agent": "yum", "source": "cli", "read_token": {"id": 3, "name": "host-a", "value": "ra"}},
			{"downloaded_at": "2024-01-03T10:00:00.000Z", "ip_address": "10.0.0.2",
			 "user_agent": "yum", "source": "cli", "read_token": null}]`))
	})

	details, err := s.Detail(context.Background(), pkg, Range{Start: jan1, End: jan31})
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("len(details) = %d, want 2", len(details))
	}
	if details[0].ReadToken == nil || details[0].ReadToken.Name != "host-a" {
		t.Errorf("details[0].ReadToken = %+v", details[0].ReadToken)
	}
	if details[1].ReadToken != nil {
		t.Errorf("details[1].ReadToken = %+v, want nil", details[1].ReadToken)
	}
	if details[0].IPAddress != "10.0.0.1" {
		t.Errorf("IPAddress = %q", details[0].IPAddress)
	}
}

func TestSeries(t *testing.T) {
	var gotPath string
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"value": {"20240101Z": 4, "20240108Z": 9}}`))
	})

	series, err := s.Series(context.Background(), pkg, Weekly, Since(jan1))
	if err != nil {
		t.Fatalf("Series failed: %v", err)
	}
	if gotPath != base+"/series/weekly.json" {
		t.Errorf("path = %q, want weekly series", gotPath)
	}
	if series["20240108Z"] != 9 {
		t.Errorf("series = %v", series)
	}

	if _, err := s.Series(context.Background(), pkg, "", Since(jan1)); err != nil {
		t.Fatalf("Series failed: %v", err)
	}
	if gotPath != base+"/series/daily.json" {
		t.Errorf("default interval path = %q, want daily series", gotPath)
	}
}

func TestSeriesURL(t *testing.T) {
	tests := []struct {
		url      string
		interval string
		want     string
	}{
		{"/x/series/daily.json", "", "/x/series/daily.json"},
		{"/x/series/daily.json", Monthly, "/x/series/monthly.json"},
		{"/daily/tool/series/daily.json", Weekly, "/daily/tool/series/weekly.json"},
		{"/x/series/hourly.json", Weekly, "/x/series/hourly.json"},
	}

	for _, tt := range tests {
		if got := SeriesURL(tt.url, tt.interval); got != tt.want {
			t.Errorf("SeriesURL(%q, %q) = %q, want %q", tt.url, tt.interval, got, tt.want)
		}
	}
}

func TestBulkCount(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a/count.json":
			_, _ = w.Write([]byte(`{"value": 3}`))
		case "/b/count.json":
			_, _ = w.Write([]byte(`{"value": 5}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	pkgs := []core.Package{
		{Name: "a", Type: "deb", Version: "1.0", DistroVersion: "ubuntu/xenial", Filename: "a_1.0_amd64.deb", DownloadsCountURL: "/a/count.json"},
		{Name: "b", Type: "deb", Version: "2.0", DistroVersion: "ubuntu/xenial", Filename: "b_2.0_amd64.deb", DownloadsCountURL: "/b/count.json"},
		{Name: "c", Type: "deb", Version: "3.0", DistroVersion: "ubuntu/xenial", Filename: "c_3.0_amd64.deb", DownloadsCountURL: "/c/count.json"},
	}

	counts := s.BulkCountWithConcurrency(context.Background(), pkgs, Since(jan1), 2)
	if len(counts) != 2 {
		t.Fatalf("counts = %v, want 2 entries", counts)
	}
	if counts[pkgs[0].PURL()] != 3 || counts[pkgs[1].PURL()] != 5 {
		t.Errorf("counts = %v", counts)
	}
	if _, ok := counts[pkgs[2].PURL()]; ok {
		t.Error("failed count should be omitted")
	}
}
