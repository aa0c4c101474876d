package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options locates the bucket an inventory export is uploaded to.
type S3Options struct {
	Bucket string
	// Key always holds the latest export.
	Key    string
	Region string
	// Endpoint selects an S3-compatible store such as MinIO and switches to
	// path-style addressing.
	Endpoint string
	// Snapshots also keeps every export under a timestamped key beside Key.
	Snapshots bool
}

// S3Destination uploads inventory exports to a bucket.
type S3Destination struct {
	client *s3.Client
	opts   S3Options
	now    func() time.Time
}

func NewS3Destination(ctx context.Context, opts S3Options) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		opts:   opts,
		now:    time.Now,
	}, nil
}

func (d *S3Destination) String() string {
	return fmt.Sprintf("s3://%s/%s", d.opts.Bucket, d.opts.Key)
}

// Write replaces the latest export and, with Snapshots, adds a dated copy.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	keys := []string{d.opts.Key}
	if d.opts.Snapshots {
		keys = append(keys, snapshotKey(d.opts.Key, d.now()))
	}
	records := strconv.Itoa(countRecords(data))
	for _, key := range keys {
		_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(d.opts.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/x-ndjson"),
			Metadata:    map[string]string{"ims-records": records},
		})
		if err != nil {
			return fmt.Errorf("s3 put %s: %w", key, err)
		}
	}
	return nil
}

// snapshotKey places a dated copy of key in a snapshots/ folder next to it:
// "ims/export.jsonl" becomes "ims/snapshots/export-20260301T093000Z.jsonl".
func snapshotKey(key string, at time.Time) string {
	dir, file := path.Split(key)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	return dir + "snapshots/" + stem + "-" + at.UTC().Format("20060102T150405Z") + ext
}

// countRecords counts the JSONL lines in data.
func countRecords(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
