package dataset

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig locates a dataset document in an S3-compatible bucket.
type ObjectConfig struct {
	Endpoint  string
	Bucket    string
	Key       string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// ObjectSource loads the dataset from object storage.
type ObjectSource struct {
	mc  *minio.Client
	cfg ObjectConfig
}

// NewObjectSource builds a MinIO client for cfg. No request is made until Load.
func NewObjectSource(cfg ObjectConfig) (*ObjectSource, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("dataset: object source needs bucket and key")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: s3 client: %w", err)
	}
	return &ObjectSource{mc: mc, cfg: cfg}, nil
}

// URL identifies the object as s3://bucket/key.
func (s *ObjectSource) URL() string {
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, s.cfg.Key)
}

// Load fetches and decodes the object. A missing object maps to ErrNotFound.
func (s *ObjectSource) Load(ctx context.Context) (*Table, error) {
	obj, err := s.mc.GetObject(ctx, s.cfg.Bucket, s.cfg.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("dataset: get %s: %w", s.URL(), err)
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces a missing key before decoding.
	if _, err := obj.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w (%s)", ErrNotFound, s.URL())
		}
		return nil, fmt.Errorf("dataset: stat %s: %w", s.URL(), err)
	}

	recs, err := Decode(obj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.URL(), err)
	}
	return NewTable(recs, s.URL()), nil
}
