// Package fetch loads raw dataset bytes from local and remote sources.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/uzairgheewala/dsc106-proj3/internal/config"
)

// Client fetches dataset bytes by URI. Plain paths and file:// URIs read
// from disk, http:// and https:// over the network, s3://bucket/key from
// any S3-compatible store.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *slog.Logger

	// The S3 client is built lazily so deployments that never use an s3
	// URI do not touch the AWS credential chain.
	s3Once   sync.Once
	s3Client *s3.Client
	s3Err    error
}

// NewClient creates a fetch client.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		logger: logger,
	}
}

// Fetch returns the raw bytes behind uri.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		return c.fetchS3(ctx, uri)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return c.fetchHTTP(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse file URI: %w", err)
		}
		return c.readFile(u.Path)
	case strings.Contains(uri, "://"):
		return nil, fmt.Errorf("unsupported URI scheme in %q", uri)
	default:
		return c.readFile(uri)
	}
}

func (c *Client) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c.logger.Debug("read local file", "path", path, "bytes", len(data))
	return data, nil
}

func (c *Client) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", uri, resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	c.logger.Debug("fetched over http", "uri", uri, "bytes", len(data))
	return data, nil
}

func (c *Client) fetchS3(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse s3 URI: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 URI %q must be s3://bucket/key", uri)
	}

	client, err := c.s3(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	c.logger.Debug("fetched from s3", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}

func (c *Client) s3(ctx context.Context) (*s3.Client, error) {
	c.s3Once.Do(func() {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if c.cfg.S3Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(c.cfg.S3Region))
		}
		if c.cfg.S3AccessKeyID != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(c.cfg.S3AccessKeyID, c.cfg.S3SecretAccessKey, "")))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			c.s3Err = fmt.Errorf("load aws config: %w", err)
			return
		}

		c.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if c.cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(c.cfg.S3Endpoint)
			}
			if c.cfg.S3PathStyle {
				o.UsePathStyle = true
			}
		})
	})
	return c.s3Client, c.s3Err
}
