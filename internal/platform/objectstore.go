package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ngenohkevin/tagdeck/internal/entry"
	"github.com/ngenohkevin/tagdeck/internal/logging"
)

// ObjectStoreConfig holds the connection settings of a cloud location
type ObjectStoreConfig struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// s3API is the subset of the S3 client the object store uses
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore lists cloud locations from an S3 compatible bucket. Paths
// are keys with a leading "/"; directories are common prefixes.
type ObjectStore struct {
	client     s3API
	bucket     string
	metaFolder string
}

// NewObjectStore connects to the bucket of a cloud location
func NewObjectStore(ctx context.Context, cfg ObjectStoreConfig, metaFolder string) (*ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logging.Info("object store connected", logging.String("bucket", cfg.Bucket), logging.String("region", region))
	return newObjectStoreWithClient(client, cfg.Bucket, metaFolder), nil
}

func newObjectStoreWithClient(client s3API, bucket, metaFolder string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, metaFolder: metaFolder}
}

// Separator is always "/" for object keys
func (o *ObjectStore) Separator() string {
	return "/"
}

// ListDirectory lists the objects and common prefixes directly below path
func (o *ObjectStore) ListDirectory(ctx context.Context, dirPath string, modes []string, ignorePatterns []string, limit *ResultsLimit) ([]entry.DirectoryEntry, error) {
	prefix := dirPrefix(dirPath)

	var thumbs map[string]bool
	if hasMode(modes, ModeExtractThumbPath) {
		thumbs = o.listNames(ctx, prefix+o.metaFolder+"/")
	}

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(o.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}
	if limit != nil && limit.MaxLoops > 0 {
		input.MaxKeys = aws.Int32(int32(limit.MaxLoops))
	}

	var entries []entry.DirectoryEntry
	paginator := s3.NewListObjectsV2Paginator(o.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, err)
		}

		for _, cp := range page.CommonPrefixes {
			key := aws.ToString(cp.Prefix)
			name := strings.TrimSuffix(strings.TrimPrefix(key, prefix), "/")
			if name == "" || name == o.metaFolder || ignoredKey(name, key, ignorePatterns) {
				continue
			}
			if !limit.allow(len(entries)) {
				return entries, nil
			}
			entries = append(entries, entry.DirectoryEntry{
				Path: "/" + strings.TrimSuffix(key, "/"),
				Name: name,
			})
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, prefix)
			if name == "" || ignoredKey(name, key, ignorePatterns) {
				continue
			}
			if !limit.allow(len(entries)) {
				return entries, nil
			}
			e := entry.DirectoryEntry{
				Path:         "/" + key,
				Name:         name,
				IsFile:       true,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			}
			if thumbs[name+entry.ThumbExtension] {
				e.ThumbPath = "/" + prefix + o.metaFolder + "/" + name + entry.ThumbExtension
			}
			entries = append(entries, e)
		}
	}

	return entries, nil
}

// ReadFile downloads an object. A missing key wraps fs.ErrNotExist.
func (o *ObjectStore) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	key := strings.TrimPrefix(filePath, "/")
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get object %s: %w", key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, MaxSidecarSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if len(data) > MaxSidecarSize {
		return nil, fmt.Errorf("object too large: %s", key)
	}
	return data, nil
}

// WriteFile uploads data under the key of filePath
func (o *ObjectStore) WriteFile(ctx context.Context, filePath string, data []byte) error {
	key := strings.TrimPrefix(filePath, "/")
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(o.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	logging.Debug("object store put", logging.String("key", key), logging.Int("size", len(data)))
	return nil
}

// listNames returns the object names directly below prefix
func (o *ObjectStore) listNames(ctx context.Context, prefix string) map[string]bool {
	names := make(map[string]bool)
	paginator := s3.NewListObjectsV2Paginator(o.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(o.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logging.Debug("listing meta folder failed", logging.String("prefix", prefix), logging.Err(err))
			return names
		}
		for _, obj := range page.Contents {
			names[strings.TrimPrefix(aws.ToString(obj.Key), prefix)] = true
		}
	}
	return names
}

// dirPrefix turns "/photos/2024" into "photos/2024/" and "/" into ""
func dirPrefix(dirPath string) string {
	p := strings.Trim(dirPath, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func ignoredKey(name, key string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if ok, _ := path.Match(p, name); ok {
			return true
		}
		if ok, _ := path.Match(strings.TrimPrefix(p, "/"), key); ok {
			return true
		}
	}
	return false
}
