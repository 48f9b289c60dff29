// Package github provides an HTTP client for the GitHub REST API.
//
// # Overview
//
// This package reads repository statistics (stars, forks, watchers, open
// issues) from GitHub (https://api.github.com).
//
// # Usage
//
//	client := github.NewClient(github.Options{Token: token, Owner: "octocat"})
//	defer client.Close()
//
//	repos, err := client.ListUserRepos(ctx, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stars, err := client.Stars(ctx, "", "hello-world")
//
// An empty owner argument falls back to [Options.Owner]; [ErrNoOwner] is
// returned when neither is set.
//
// # Authentication
//
// A personal access token is optional but recommended. Without a token the
// client is limited to 60 requests/hour, with one 5000 requests/hour. The
// client watches X-RateLimit-Remaining and pauses until the reset time when
// fewer than 10 requests remain.
//
// # Caching
//
// Repository objects are cached for the client's cache TTL (5 minutes by
// default). [Client.ListUserRepos] primes the cache with every listed
// repository, so the per-field accessors issue no further requests.
package github
