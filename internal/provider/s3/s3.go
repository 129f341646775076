// Package s3 stores backup artifacts in an S3 bucket. The destination
// folder is the key prefix "<prefix>/<folder>/", marked by a zero-byte
// object so it is visible in bucket listings; every upload, grant, and
// deletion stays under that prefix.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/schollz/progressbar/v3"

	"github.com/wptools/wp-backup/internal/config"
	"github.com/wptools/wp-backup/internal/logging"
	"github.com/wptools/wp-backup/internal/secrets"
)

// client is the S3 surface the sink uses, narrowed for fake-backed
// tests.
type client interface {
	HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, opts ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	PutObjectAcl(ctx context.Context, in *awss3.PutObjectAclInput, opts ...func(*awss3.Options)) (*awss3.PutObjectAclOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, opts ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, opts ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

type Provider struct {
	cfg *config.Config
	log *logging.Logger

	api     client
	lastKey string

	dial func(ctx context.Context) (client, error)
	now  func() time.Time
}

func New(cfg *config.Config, log *logging.Logger) *Provider {
	p := &Provider{cfg: cfg, log: log, now: time.Now}
	p.dial = p.connect
	return p
}

// connect builds the S3 client. Static credentials from the
// environment take precedence; otherwise the default AWS credential
// chain applies.
func (p *Provider) connect(ctx context.Context) (client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(p.cfg.Storage.S3Region),
	}
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return awss3.NewFromConfig(awsCfg), nil
}

// Authenticate verifies the bucket is reachable with the resolved
// credentials.
func (p *Provider) Authenticate(ctx context.Context) bool {
	if p.api == nil {
		api, err := p.dial(ctx)
		if err != nil {
			p.log.Errorf("S3 authentication failed: %s", secrets.Mask(err.Error()))
			return false
		}
		p.api = api
	}
	_, err := p.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(p.cfg.Storage.S3Bucket)})
	if err != nil {
		p.log.Errorf("Cannot access bucket %s: %s", p.cfg.Storage.S3Bucket, secrets.Mask(err.Error()))
		return false
	}
	p.log.Infof("S3 bucket %s reachable", p.cfg.Storage.S3Bucket)
	return true
}

// Upload writes the artifact under the configured prefix and returns
// its object key.
func (p *Provider) Upload(ctx context.Context, artifactPath string) (string, error) {
	if p.api == nil {
		return "", fmt.Errorf("not authenticated")
	}
	if err := p.ensurePrefix(ctx); err != nil {
		return "", err
	}

	f, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	name := filepath.Base(artifactPath)
	key := p.objectKey(name)
	bar := progressbar.DefaultBytes(info.Size(), "Uploading "+name)
	defer bar.Close()

	_, err = p.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(p.cfg.Storage.S3Bucket),
		Key:           aws.String(key),
		Body:          io.TeeReader(f, bar),
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/gzip"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	p.lastKey = key
	p.log.Infof("Uploaded s3://%s/%s", p.cfg.Storage.S3Bucket, key)
	return key, nil
}

// ConfigureAccess grants read access on the uploaded object. Grant
// failures do not stop the remaining grants.
func (p *Provider) ConfigureAccess(ctx context.Context, sharing config.SharingConfig) bool {
	if p.api == nil || p.lastKey == "" {
		return false
	}

	ok := true
	for _, email := range sharing.Emails {
		_, err := p.api.PutObjectAcl(ctx, &awss3.PutObjectAclInput{
			Bucket:    aws.String(p.cfg.Storage.S3Bucket),
			Key:       aws.String(p.lastKey),
			GrantRead: aws.String(fmt.Sprintf("emailAddress=%q", email)),
		})
		if err != nil {
			p.log.Warnf("Could not grant read to %s: %s", secrets.Mask(email), secrets.Mask(err.Error()))
			ok = false
			continue
		}
		p.log.Infof("Granted read access to %s", secrets.Mask(email))
	}

	if sharing.MakePublic {
		_, err := p.api.PutObjectAcl(ctx, &awss3.PutObjectAclInput{
			Bucket: aws.String(p.cfg.Storage.S3Bucket),
			Key:    aws.String(p.lastKey),
			ACL:    types.ObjectCannedACLPublicRead,
		})
		if err != nil {
			p.log.Warnf("Could not make object public: %s", secrets.Mask(err.Error()))
			ok = false
		} else {
			p.log.Infof("Object is publicly readable")
		}
	}
	return ok
}

// CleanupOldFiles deletes objects under the prefix whose LastModified
// is before the retention cutoff. The prefix marker object is never
// deleted.
func (p *Provider) CleanupOldFiles(ctx context.Context, retentionDays int) (int, error) {
	if p.api == nil {
		return 0, fmt.Errorf("not authenticated")
	}

	marker := p.keyPrefix()
	if marker == "" {
		return 0, fmt.Errorf("no destination folder configured")
	}

	cutoff := p.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	var token *string
	for {
		out, err := p.api.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(p.cfg.Storage.S3Bucket),
			Prefix:            aws.String(marker),
			ContinuationToken: token,
		})
		if err != nil {
			return deleted, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == marker || obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}
			_, err := p.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
				Bucket: aws.String(p.cfg.Storage.S3Bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				p.log.Warnf("Could not delete %s: %s", key, secrets.Mask(err.Error()))
				continue
			}
			p.log.Debugf("Deleted expired backup %s", key)
			deleted++
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	if deleted > 0 {
		p.log.Infof("Removed %d expired backup(s)", deleted)
	}
	return deleted, nil
}

// ensurePrefix writes the zero-byte marker for the prefix on first
// use. Rewriting an existing marker is harmless.
func (p *Provider) ensurePrefix(ctx context.Context) error {
	marker := p.keyPrefix()
	if marker == "" {
		return nil
	}
	_, err := p.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(p.cfg.Storage.S3Bucket),
		Key:           aws.String(marker),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return fmt.Errorf("create prefix marker: %w", err)
	}
	return nil
}

// keyPrefix returns the destination prefix "<prefix>/<folder>/". The
// folder segment is always present, so listing and deletion never
// reach objects outside the destination.
func (p *Provider) keyPrefix() string {
	prefix := strings.Trim(p.cfg.Storage.S3Prefix, "/")
	folder := strings.Trim(p.cfg.Storage.Folder, "/")
	joined := path.Join(prefix, folder)
	if joined == "" || joined == "." {
		return ""
	}
	return joined + "/"
}

func (p *Provider) objectKey(name string) string {
	return p.keyPrefix() + name
}
