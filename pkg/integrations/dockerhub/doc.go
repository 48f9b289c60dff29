// Package dockerhub provides an HTTP client for the Docker Hub API.
//
// # Overview
//
// This package reads repository statistics (pulls, stars, description and
// last update) from Docker Hub (https://hub.docker.com). Repositories are
// addressed as "namespace/name".
//
// # Usage
//
//	client := dockerhub.NewClient(dockerhub.Options{})
//	defer client.Close()
//
//	repos, err := client.ListNamespace(ctx, "library")
//	pulls, err := client.PullCount(ctx, "library/nginx", true)
//
// # Caching
//
// Repository objects are cached for the client's cache TTL. Listing a
// namespace primes the cache, so accessors for listed repositories make no
// further requests. Pass useCache=false to force a refetch.
package dockerhub
