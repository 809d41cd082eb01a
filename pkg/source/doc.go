// Package source provides ready-made fetchers for the task bridge.
//
// A task source is any func(ctx) (T, error); this package builds them for
// common backends so reactive state can mirror remote data:
//
//	flags := reactive.NewTask(
//	    source.S3JSON[FlagSet](s3Client, "config-bucket", "flags.json"),
//	    reactive.WithStaleTime[FlagSet](time.Minute),
//	)
//	stop := source.S3Watch(ctx, s3Client, "config-bucket", "flags.json",
//	    30*time.Second, flags.Refresh)
//	scope.OnCleanup(stop)
//
// The fetchers honor the context the task hands them, so cancel-latest
// policies and disposal cancel the underlying requests.
package source
