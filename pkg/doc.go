// Package pkg provides the core libraries for statsnap.
//
// # Overview
//
// Statsnap records public project statistics (Docker Hub pulls, GitHub stars,
// blog page views) as JSON snapshots. A snapshot keeps its last_updated
// timestamp until the numbers actually change, so a scheduled job can commit
// the snapshot files without producing empty diffs. The pkg directory is
// organized into four main areas:
//
//  1. [httputil] - Rate limiting, retries, quota tracking and response caching
//  2. [integrations] - API clients built on httputil (Docker Hub, GitHub, GA4)
//  3. [snapshot] - Change-detecting snapshot documents and their stores
//  4. [pipeline] - Orchestration (load → collect → write → save)
//
// # Architecture
//
// The data flow of one refresh:
//
//	Store (file / Redis / MongoDB)
//	         ↓
//	    previous snapshot
//	         ↓
//	    [collect] package (one collector per source, via [integrations])
//	         ↓
//	    [snapshot] Writer (keep or bump last_updated)
//	         ↓
//	    Store
//
// # Quick Start
//
// Refresh the Docker Hub snapshot for a namespace:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/statsnap/pkg/collect"
//	    "github.com/matzehuels/statsnap/pkg/integrations/dockerhub"
//	    "github.com/matzehuels/statsnap/pkg/pipeline"
//	    "github.com/matzehuels/statsnap/pkg/snapshot"
//	)
//
//	store, _ := snapshot.NewFileStore("data")
//	client := dockerhub.NewClient(dockerhub.Options{})
//	defer client.Close()
//
//	runner := pipeline.NewRunner(store, nil, nil)
//	res, _ := runner.Run(context.Background(), pipeline.Job{
//	    Collector: &collect.DockerHub{Client: client, Namespaces: []string{"neonvariant"}},
//	    Snapshot:  "dockerhub-stats",
//	})
//	_ = res.Changed
//
// # Main Packages
//
// [httputil] - The request executor: minimum spacing between requests,
// exponential backoff, Retry-After and X-RateLimit-* handling, Link header
// parsing and an in-memory TTL cache with an injectable clock.
//
// [integrations] - A caching REST client with a page iterator, plus the
// [integrations/dockerhub], [integrations/github] and [integrations/analytics]
// clients with typed accessors that fall back to defaults for missing fields.
//
// [snapshot] - Snapshot documents, the change-detecting Writer and the
// file, Redis and MongoDB stores.
//
// [collect] - One collector per source turning API data into records and
// totals. Per-repository failures become error records.
//
// [pipeline] - Runs collectors against a store and reports whether the
// snapshot changed.
//
// [config] - TOML or YAML configuration with environment overrides.
//
// [server] - Read-only HTTP API over a snapshot store.
//
// [observability] - Hooks for HTTP, cache and run events.
//
// [errors] - Coded errors and input validation for the CLI.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/snapshot/...           # Specific package
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [httputil]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/httputil
// [integrations]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/integrations
// [integrations/dockerhub]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/integrations/dockerhub
// [integrations/github]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/integrations/github
// [integrations/analytics]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/integrations/analytics
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/snapshot
// [collect]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/collect
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/config
// [server]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/statsnap/pkg/errors
package pkg
