package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"briefcast/internal/content"
	"briefcast/internal/services"
)

// MetadataConfig holds the object storage settings for metadata documents.
type MetadataConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	KeyPrefix       string
	AccessKeyID     string
	SecretAccessKey string
}

// MetadataDocument is the JSON record published per article variant. It
// points clients at the streaming rendition without shipping the full body.
type MetadataDocument struct {
	ArticleID   string    `json:"article_id"`
	Language    string    `json:"language"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	PlaylistURL string    `json:"playlist_url"`
	SegmentURLs []string  `json:"segment_urls"`
	PublishedAt time.Time `json:"published_at"`
}

// MetadataUploader writes metadata documents to an S3-compatible bucket.
type MetadataUploader struct {
	client    *s3.Client
	bucket    string
	region    string
	endpoint  string
	keyPrefix string
	now       func() time.Time
}

// NewMetadataUploader creates an uploader from config. Static credentials
// are used when provided; otherwise the default AWS chain applies.
func NewMetadataUploader(ctx context.Context, cfg MetadataConfig) (*MetadataUploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "metadata", "new", "bucket required", nil)
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "metadata", "new", "region required", nil)
	}

	configOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "metadata", "new", "loading AWS config failed", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &MetadataUploader{
		client:    s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
		now:       time.Now,
	}, nil
}

// Upload publishes the metadata document for one article variant and
// returns the object URL.
func (u *MetadataUploader) Upload(ctx context.Context, item *content.Item) (string, error) {
	if item == nil {
		return "", services.Wrap(services.ErrValidation, "metadata", "upload", "item required", nil)
	}
	if item.StreamingURLs == nil || item.StreamingURLs.Playlist == "" {
		return "", services.Wrap(services.ErrInconsistentState, "metadata", "upload", "item has no streaming URLs", nil)
	}

	doc := MetadataDocument{
		ArticleID:   item.ID,
		Language:    item.Language,
		Category:    item.Category,
		Title:       item.Title,
		PlaylistURL: item.StreamingURLs.Playlist,
		SegmentURLs: item.StreamingURLs.Segments,
		PublishedAt: u.now().UTC(),
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metadata document: %w", err)
	}

	key := u.objectKey(item.ID, item.Language)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		marker := services.ErrExternalService
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return "", services.Wrap(marker, "metadata", "upload", "putting metadata object failed", err)
	}
	return u.objectURL(key), nil
}

func (u *MetadataUploader) objectKey(articleID, language string) string {
	return path.Join(u.keyPrefix, articleID, language, "metadata.json")
}

func (u *MetadataUploader) objectURL(key string) string {
	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
