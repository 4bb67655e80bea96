package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"expert-hub/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// NewS3Client erstellt einen S3-Client für den konfigurierten Endpunkt.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.S3URL,
				SigningRegion:     cfg.S3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// UploadFile lädt eine Datei ins S3 hoch und gibt den Link zurück.
func UploadFile(ctx context.Context, client *s3.Client, cfg *config.Config, key string, data []byte) (string, error) {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.S3Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	link := fmt.Sprintf("%s/%s/%s", cfg.S3URL, cfg.S3Bucket, key)
	return link, nil
}

// DownloadFile liest ein Objekt vollständig aus dem Bucket.
func DownloadFile(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting s3 object %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ListObjects listet alle Objekte unter einem Präfix (über alle Seiten).
func ListObjects(ctx context.Context, client *s3.Client, bucket, prefix string) ([]types.Object, error) {
	var objects []types.Object
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3 prefix %s: %w", prefix, err)
		}
		objects = append(objects, page.Contents...)
	}
	return objects, nil
}

// DeleteFile entfernt ein Objekt aus dem Bucket.
func DeleteFile(ctx context.Context, client *s3.Client, bucket, key string) error {
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// S3Bucket bündelt Client und Bucket für Leser, die nur Schlüssel und Inhalte brauchen.
type S3Bucket struct {
	Client *s3.Client
	Bucket string
}

// ListKeys liefert alle Objektschlüssel unter prefix.
func (b *S3Bucket) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	objects, err := ListObjects(ctx, b.Client, b.Bucket, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// Download liest ein Objekt des Buckets.
func (b *S3Bucket) Download(ctx context.Context, key string) ([]byte, error) {
	return DownloadFile(ctx, b.Client, b.Bucket, key)
}
