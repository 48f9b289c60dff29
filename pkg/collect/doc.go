// Package collect turns API client calls into snapshot records.
//
// Each [Collector] reads one data source and returns a [Result] with
// per-resource records and aggregate totals:
//
//   - [DockerHub]: pull_count, star_count, description, last_updated
//   - [GitHub]: stars, forks, watchers, open_issues, description, last_updated
//   - [Analytics]: page_views per blog post path
//
// Collectors depend on small interfaces rather than the concrete clients in
// pkg/integrations, so tests can substitute fakes.
package collect
