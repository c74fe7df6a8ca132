// Package archive keeps JSON snapshots (HACCP dashboards, completed
// receptions) in S3-compatible storage for inspections.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/secret"
)

// ErrNotConfigured is returned when no bucket or credentials are set.
var ErrNotConfigured = errors.New("archive not configured: S3 bucket or credentials missing")

// s3Client is the part of the S3 API the archive uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

func (c Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Object describes one archived snapshot.
type Object struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Archiver writes snapshots as JSON objects. With a sealer, object bodies
// are encrypted before upload.
type Archiver struct {
	cfg    Config
	client s3Client
	sealer *secret.Sealer
}

func New(cfg Config, sealer *secret.Sealer) *Archiver {
	a := &Archiver{cfg: cfg, sealer: sealer}
	if cfg.complete() {
		a.client = newS3Client(cfg)
	}
	return a
}

func newS3Client(cfg Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (a *Archiver) Configured() bool {
	return a.client != nil
}

func (a *Archiver) target() (s3Client, string, error) {
	if a.client == nil {
		return nil, "", ErrNotConfigured
	}
	return a.client, a.cfg.Bucket, nil
}

// Put stores v as JSON under key.
func (a *Archiver) Put(ctx context.Context, key string, v any) (*Object, error) {
	client, bucket, err := a.target()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	contentType := "application/json"
	if a.sealer != nil {
		sealed, err := a.sealer.Seal(string(data))
		if err != nil {
			return nil, fmt.Errorf("seal snapshot: %w", err)
		}
		data = []byte(sealed)
		contentType = "text/plain"
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	return &Object{Key: key, Size: int64(len(data)), Modified: time.Now().UTC()}, nil
}

// Get reads the snapshot under key into v.
func (a *Archiver) Get(ctx context.Context, key string, v any) error {
	client, bucket, err := a.target()
	if err != nil {
		return err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	plain, err := a.sealer.Open(string(data))
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(plain), v); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}

// List returns the snapshots under prefix, newest first.
func (a *Archiver) List(ctx context.Context, prefix string) ([]Object, error) {
	client, bucket, err := a.target()
	if err != nil {
		return nil, err
	}

	var objects []Object
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	for {
		out, err := client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list s3 objects: %w", err)
		}
		for _, o := range out.Contents {
			obj := Object{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
			if o.LastModified != nil {
				obj.Modified = o.LastModified.UTC()
			}
			objects = append(objects, obj)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key > objects[j].Key
	})
	return objects, nil
}

// HACCPKey names the dashboard snapshot taken at t.
func HACCPKey(t time.Time) string {
	t = t.UTC()
	return path.Join("haccp", t.Format("2006/01/02"), t.Format("20060102T150405Z")+".json")
}

// ReceptionKey names the completion record of reception id.
func ReceptionKey(id model.ID, t time.Time) string {
	safe := strings.ReplaceAll(string(id), "/", "_")
	return path.Join("receptions", safe, t.UTC().Format("20060102T150405Z")+".json")
}
