package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Client wraps an S3 bucket and key prefix
type S3Client struct {
	bucket   string
	prefix   string
	uploader *s3manager.Uploader
	s3Svc    *s3.S3
}

// NewS3Client creates a client for bucket using the default AWS credential chain.
func NewS3Client(bucket, prefix, region string) (*S3Client, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return newS3ClientWithSession(bucket, prefix, sess), nil
}

// NewS3ClientFromEnv reads S3_BUCKET, S3_PREFIX and AWS_REGION.
func NewS3ClientFromEnv() (*S3Client, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-west-1"
	}
	return NewS3Client(os.Getenv("S3_BUCKET"), os.Getenv("S3_PREFIX"), region)
}

func newS3ClientWithSession(bucket, prefix string, sess *session.Session) *S3Client {
	return &S3Client{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: s3manager.NewUploader(sess),
		s3Svc:    s3.New(sess),
	}
}

// UploadFile uploads a local file under key.
func (c *S3Client) UploadFile(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	return c.put(ctx, file, key)
}

// UploadContent uploads an in-memory object under key.
func (c *S3Client) UploadContent(ctx context.Context, content []byte, key string) error {
	return c.put(ctx, bytes.NewReader(content), key)
}

func (c *S3Client) put(ctx context.Context, body io.Reader, key string) error {
	fullKey := c.buildKey(key)
	_, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fullKey),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", c.bucket, fullKey, err)
	}
	return nil
}

// DownloadFile downloads key to localPath, creating parent directories.
func (c *S3Client) DownloadFile(ctx context.Context, key, localPath string) error {
	fullKey := c.buildKey(key)

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", localPath, err)
	}
	defer file.Close()

	downloader := s3manager.NewDownloaderWithClient(c.s3Svc)
	_, err = downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		os.Remove(localPath)
		if isNotFound(err) {
			return fmt.Errorf("s3://%s/%s: %w", c.bucket, fullKey, ErrNotFound)
		}
		return fmt.Errorf("failed to download s3://%s/%s: %w", c.bucket, fullKey, err)
	}
	return nil
}

// ListFiles returns the keys under subPrefix, relative to the client prefix.
func (c *S3Client) ListFiles(ctx context.Context, subPrefix string) ([]string, error) {
	var files []string

	prefix := c.buildKey(subPrefix)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	err := c.s3Svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			rel := strings.TrimPrefix(aws.StringValue(obj.Key), c.prefix)
			if rel = strings.TrimPrefix(rel, "/"); rel != "" {
				files = append(files, rel)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", c.bucket, prefix, err)
	}
	return files, nil
}

// FileExists reports whether key exists.
func (c *S3Client) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3Svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.buildKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetBucket returns the bucket name.
func (c *S3Client) GetBucket() string {
	return c.bucket
}

// GetPrefix returns the key prefix.
func (c *S3Client) GetPrefix() string {
	return c.prefix
}

// URI returns the s3:// location of key.
func (c *S3Client) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", c.bucket, c.buildKey(key))
}

func (c *S3Client) buildKey(key string) string {
	key = strings.TrimPrefix(strings.ReplaceAll(key, "\\", "/"), "/")
	if c.prefix == "" {
		return key
	}
	return path.Join(c.prefix, key)
}

func isNotFound(err error) bool {
	var aerr awserr.RequestFailure
	if errors.As(err, &aerr) && aerr.StatusCode() == 404 {
		return true
	}
	return strings.Contains(err.Error(), s3.ErrCodeNoSuchKey) || strings.Contains(err.Error(), "NotFound")
}

// CopyFile copies src to dst, creating parent directories.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}
