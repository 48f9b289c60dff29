// Package snapshot writes change-detected statistics snapshots.
//
// A snapshot is one JSON document per data source:
//
//	{
//	  "last_updated": "2025-01-01T12:00:00.000000+00:00",
//	  "totals": {"total_pulls": 5},
//	  "repositories": {"ns/a": {"pull_count": 5}, "ns/b": {"error": "..."}}
//	}
//
// [Writer.Write] builds the replacement document from freshly fetched
// records. last_updated only moves when records or totals differ from the
// previous snapshot, so a scheduled job that finds nothing new produces a
// byte-identical file.
//
// Documents are persisted through a [Store]: [FileStore] (default),
// [RedisStore] or [MongoStore].
package snapshot
