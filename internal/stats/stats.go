// Package stats queries package download statistics.
package stats

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/git-pkgs/packagecloud/internal/core"
)

// DateFormat is the layout of start_date and end_date.
const DateFormat = "20060102Z"

// Intervals accepted by the series endpoint.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
)

// Range bounds a query. A zero End means up to now; a zero Start leaves
// the lower bound to the service.
type Range struct {
	Start time.Time
	End   time.Time
}

// Query returns the start_date and end_date parameters of r.
func (r Range) Query() url.Values {
	q := url.Values{}
	if !r.Start.IsZero() {
		q.Set("start_date", r.Start.UTC().Format(DateFormat))
	}
	if !r.End.IsZero() {
		q.Set("end_date", r.End.UTC().Format(DateFormat))
	}
	return q
}

// Since is the range from start to now.
func Since(start time.Time) Range {
	return Range{Start: start}
}

// Service issues stats API calls.
type Service struct {
	client *core.Client
	urls   *core.URLs
}

// New creates a stats Service.
func New(client *core.Client, urls *core.URLs) *Service {
	return &Service{client: client, urls: urls}
}

type countResponse struct {
	Value *int `json:"value"`
}

// Count returns the number of downloads of pkg within r.
//
// GET .../stats/downloads/count.json
func (s *Service) Count(ctx context.Context, pkg *core.Package, r Range) (int, error) {
	rawURL := core.WithQuery(s.urls.Domain(pkg.DownloadsCountURL), r.Query())

	var resp countResponse
	if err := s.client.GetJSON(ctx, rawURL, &resp); err != nil {
		return 0, err
	}
	if resp.Value == nil {
		return 0, &core.MalformedResponseError{URL: rawURL, Reason: "value missing"}
	}
	return *resp.Value, nil
}

// Detail returns the download log entries of pkg within r.
//
// GET .../stats/downloads/detail.json
func (s *Service) Detail(ctx context.Context, pkg *core.Package, r Range) ([]core.DownloadDetail, error) {
	rawURL := core.WithQuery(s.urls.Domain(pkg.DownloadsDetailURL), r.Query())

	var details []core.DownloadDetail
	if err := s.client.GetJSON(ctx, rawURL, &details); err != nil {
		return nil, err
	}
	return details, nil
}

type seriesResponse struct {
	Value core.Series `json:"value"`
}

// Series returns download counts of pkg bucketed by interval (daily when
// empty).
//
// GET .../stats/downloads/series/:interval.json
func (s *Service) Series(ctx context.Context, pkg *core.Package, interval string, r Range) (core.Series, error) {
	rawURL := core.WithQuery(s.urls.Domain(SeriesURL(pkg.DownloadsSeriesURL, interval)), r.Query())

	var resp seriesResponse
	if err := s.client.GetJSON(ctx, rawURL, &resp); err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, &core.MalformedResponseError{URL: rawURL, Reason: "value missing"}
	}
	return resp.Value, nil
}

// SeriesURL substitutes interval for the trailing daily segment of a
// package's series link.
func SeriesURL(seriesURL, interval string) string {
	if interval == "" || interval == Daily {
		return seriesURL
	}
	i := strings.LastIndex(seriesURL, "/"+Daily)
	if i < 0 {
		return seriesURL
	}
	return seriesURL[:i+1] + interval + seriesURL[i+1+len(Daily):]
}
