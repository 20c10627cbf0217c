// Package letterarchive stores scanned registered-letter documents in
// S3-compatible object storage and hands out presigned URLs for them.
package letterarchive

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"windykator/internal/config"
	"windykator/internal/netx"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Archive presigns object-storage URLs for registered-letter documents.
type Archive struct {
	config *config.Config
}

// NewArchive constructs an Archive using the S3 settings from config.
func NewArchive(cfg *config.Config) *Archive {
	return &Archive{config: cfg}
}

// StorageKey returns a fresh key for one invoice's letter document,
// partitioned by upload date.
func StorageKey(invoiceID int64) string {
	d := time.Now()
	return fmt.Sprintf("letters/%d/%d/%d/%d-%v.pdf", d.Year(), d.Month(), d.Day(), invoiceID, uuid.New())
}

func (a *Archive) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(a.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,     // MINIO_ROOT_USER
			a.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// PresignedPutURL returns a storage key and a presigned PUT URL for
// uploading the letter document of the given invoice.
func (a *Archive) PresignedPutURL(ctx context.Context, invoiceID int64) (string, string, error) {
	presignClient, err := a.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := a.config.S3Bucket
	key := StorageKey(invoiceID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PresignedGetURL returns a presigned GET URL for a previously stored
// letter document.
func (a *Archive) PresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := a.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := a.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Store uploads a letter document directly and returns its storage key.
func (a *Archive) Store(ctx context.Context, invoiceID int64, doc []byte, contentType string) (string, error) {
	key, url, err := a.PresignedPutURL(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	if err := netx.UploadToPresignedURL(ctx, url, doc, contentType); err != nil {
		return "", err
	}
	return key, nil
}
