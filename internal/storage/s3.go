package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/opencog/question2atomese/internal/util"
)

// ObjectAPI is the part of the S3 client used for question datasets.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewS3Client creates a path-style client from the AWS_* environment.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(util.GetEnvString("AWS_REGION", "us-east-1")),
		config.WithBaseEndpoint(util.GetEnv("AWS_ENDPOINT")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			util.GetEnv("AWS_ACCESS_KEY"),
			util.GetEnv("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// Location is a bucket and key pair.
type Location struct {
	Bucket string
	Key    string
}

// IsPrefix reports whether the location names a folder rather than an
// object.
func (l Location) IsPrefix() bool {
	return l.Key == "" || strings.HasSuffix(l.Key, "/")
}

// ParseURI parses s3://bucket/key. With s3:///key or s3://key when
// defaultBucket is set, the key is taken relative to defaultBucket.
func ParseURI(uri string, defaultBucket string) (Location, bool) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return Location{}, false
	}
	if rest == "" {
		return Location{}, false
	}
	if strings.HasPrefix(rest, "/") {
		if defaultBucket == "" {
			return Location{}, false
		}
		return Location{Bucket: defaultBucket, Key: strings.TrimPrefix(rest, "/")}, true
	}

	bucket, key, found := strings.Cut(rest, "/")
	if !found && defaultBucket != "" {
		return Location{Bucket: defaultBucket, Key: bucket}, true
	}
	return Location{Bucket: bucket, Key: key}, true
}

// GetObject downloads the object at loc.
func GetObject(ctx context.Context, client ObjectAPI, loc Location) ([]byte, error) {
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s from S3: %w", loc.Bucket, loc.Key, err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object contents: %w", err)
	}
	return buf.Bytes(), nil
}

// PutObject uploads body to loc.
func PutObject(ctx context.Context, client ObjectAPI, loc Location, body []byte, contentType string) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s to S3: %w", loc.Bucket, loc.Key, err)
	}
	return nil
}

// ListKeys returns all keys under the location prefix that end with one of
// the given suffixes. No suffixes returns every key.
func ListKeys(ctx context.Context, client ObjectAPI, loc Location, suffixes ...string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(loc.Bucket),
		Prefix: aws.String(loc.Key),
	}

	var keys []string
	for {
		out, err := client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", loc.Key, err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if matchesSuffix(key, suffixes) {
				keys = append(keys, key)
			}
		}
		if out.IsTruncated != nil && *out.IsTruncated {
			input.ContinuationToken = out.NextContinuationToken
			continue
		}
		break
	}
	return keys, nil
}

func matchesSuffix(key string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	for _, s := range suffixes {
		if strings.HasSuffix(key, s) {
			return true
		}
	}
	return false
}
