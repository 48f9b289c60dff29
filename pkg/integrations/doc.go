// Package integrations provides HTTP clients for third-party statistics APIs.
//
// # Overview
//
// Each API has its own subpackage:
//
//   - [dockerhub]: Docker Hub repository statistics
//   - [github]: GitHub repository statistics
//   - [analytics]: Google Analytics 4 page views
//
// # Client Pattern
//
// All API clients embed the shared [Client], which owns one HTTP session,
// one rate limiter and one in-memory resource cache:
//
//	client := dockerhub.NewClient(dockerhub.Options{})
//	defer client.Close()
//	pulls, err := client.PullCount(ctx, "library/nginx", true)  // true = use cache
//
// Clients handle:
//   - Minimum spacing between requests and quota-aware pauses
//   - Retries with exponential backoff and Retry-After support
//   - Pagination via [Pager]
//   - Resource caching with a time-bounded TTL
//
// Field accessors read values with [Int], [String] and [Bool], which return a
// default instead of failing when the API omits a field.
//
// # Adding a New API
//
//  1. Create a subpackage: pkg/integrations/<api>/
//  2. Embed [*Client] configured with the API's base URL and headers
//  3. Use [Client.Resource] for single resources and [Client.Paginate] for collections
//  4. Add a collector in [collect]
//
// [dockerhub]: github.com/matzehuels/statsnap/pkg/integrations/dockerhub
// [github]: github.com/matzehuels/statsnap/pkg/integrations/github
// [analytics]: github.com/matzehuels/statsnap/pkg/integrations/analytics
// [collect]: github.com/matzehuels/statsnap/pkg/collect
package integrations
