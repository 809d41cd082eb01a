package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GetObjectClient is the slice of the S3 API the fetchers use.
// *s3.Client implements it.
type GetObjectClient interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// HeadObjectClient is the slice of the S3 API the watcher uses.
// *s3.Client implements it.
type HeadObjectClient interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Bytes returns a fetcher that reads an S3 object's raw bytes.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	client := s3.NewFromConfig(cfg)
//	blob := reactive.NewTask(source.S3Bytes(client, "my-bucket", "feature-flags.bin"))
func S3Bytes(client GetObjectClient, bucket, key string) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
		}
		defer out.Body.Close()

		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
		}
		return data, nil
	}
}

// S3JSON returns a fetcher that reads an S3 object and decodes it as JSON
// into T. Use it as a task source for configuration objects:
//
//	flags := reactive.NewTask(source.S3JSON[FlagSet](client, "my-bucket", "flags.json"))
func S3JSON[T any](client GetObjectClient, bucket, key string) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var zero T
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return zero, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
		}
		defer out.Body.Close()

		var v T
		if err := json.NewDecoder(out.Body).Decode(&v); err != nil {
			return zero, fmt.Errorf("decode s3://%s/%s: %w", bucket, key, err)
		}
		return v, nil
	}
}

// S3Watch polls the object's metadata and calls refresh whenever its ETag
// changes. The first head primes the watcher without refreshing, so a task
// that already fetched at creation is not fetched twice. Head errors are
// skipped; the next tick retries. Watching stops when ctx is canceled, when
// the returned stop function is called, or when refresh reports a disposed
// node.
//
//	stop := source.S3Watch(ctx, client, "my-bucket", "flags.json", time.Minute, flags.Refresh)
//	scope.OnCleanup(stop)
func S3Watch(ctx context.Context, client HeadObjectClient, bucket, key string, every time.Duration, refresh func() error) (stop func()) {
	head := func(ctx context.Context) (string, error) {
		out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return "", err
		}
		return aws.ToString(out.ETag), nil
	}

	var lastETag string
	primed := false
	return Poll(ctx, every, func() error {
		etag, err := head(ctx)
		if err != nil {
			return nil
		}
		if !primed {
			primed = true
			lastETag = etag
			return nil
		}
		if etag == lastETag {
			return nil
		}
		lastETag = etag
		return refresh()
	})
}
