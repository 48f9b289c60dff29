package collect

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/statsnap/pkg/snapshot"
)

// AnalyticsAPI is the subset of [analytics.Client] the collector needs.
type AnalyticsAPI interface {
	PropertyID() string
	BlogPostViews(ctx context.Context, prefix string, days int) (map[string]int64, error)
}

// Analytics collects page views of every page under Prefix.
// Days limits the report to the last Days days; zero means all time.
//
// Totals: total_blog_posts, total_page_views.
type Analytics struct {
	Client AnalyticsAPI
	Prefix string
	Days   int
	Logger *log.Logger
}

// Name implements [Collector].
func (a *Analytics) Name() string { return "analytics" }

// Collect implements [Collector]. The report is a single request, so any
// failure fails the whole collection.
func (a *Analytics) Collect(ctx context.Context) (*Result, error) {
	logger := loggerOr(a.Logger)

	views, err := a.Client.BlogPostViews(ctx, a.Prefix, a.Days)
	if err != nil {
		return nil, fmt.Errorf("fetch blog post views: %w", err)
	}

	res := newResult()
	res.Meta = map[string]string{
		"property_id":      a.Client.PropertyID(),
		"blog_path_prefix": a.Prefix,
	}
	var total int64
	for path, n := range views {
		res.Records[path] = snapshot.Record{"page_views": n}
		total += n
	}
	res.Totals["total_blog_posts"] = int64(len(views))
	res.Totals["total_page_views"] = total

	logger.Info("collected analytics stats", "posts", len(views), "total_page_views", total)
	return res, nil
}
