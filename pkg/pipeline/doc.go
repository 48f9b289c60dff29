// Package pipeline refreshes statistics snapshots.
//
// One run of a [Job] is:
//
//  1. Load the previous snapshot from the store (if any)
//  2. Collect current statistics through the job's collector
//  3. Write the replacement document, keeping last_updated when nothing changed
//  4. Save it back to the store
//
// Usage:
//
//	store, _ := snapshot.NewFileStore("data")
//	runner := pipeline.NewRunner(store, nil, logger)
//	defer runner.Close()
//
//	res, err := runner.Run(ctx, pipeline.Job{
//	    Collector: &collect.DockerHub{Client: client, Namespaces: []string{"library"}},
//	})
//	fmt.Println(res.Changed)
//
// Every run gets a run ID that is attached to its log lines and reported
// through [observability.RunHooks].
package pipeline
