// Package analytics reads page view counts from Google Analytics 4.
//
// Reports are requested from the GA4 Data API over REST
// (POST /v1beta/properties/{id}:runReport) with one pagePath dimension and
// the screenPageViews metric. Requests are authorized through an
// [oauth2.TokenSource]:
//
//	client, err := analytics.NewClient(analytics.Options{
//	    PropertyID:  "123456789",
//	    TokenSource: analytics.StaticToken(os.Getenv("GA_ACCESS_TOKEN")),
//	})
//	posts, err := client.BlogPostViews(ctx, "/blog/", 0)
//
// The report for a date range is fetched once per cache TTL; the per-page
// accessors all read from it.
package analytics
