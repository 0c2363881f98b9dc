package miniofs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options for minio connection
type Options struct {
	URL    string
	User   string
	Key    string
	Bucket string
	Secure bool
	Region string
}

// Filer keeps audio uploads and results in a s3 compatible storage
type Filer struct {
	client *minio.Client
	bucket string
}

// NewFiler connects to minio and ensures the bucket exists
func NewFiler(ctx context.Context, opts Options) (*Filer, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("no bucket")
	}
	endpoint, secure, err := parseEndpoint(opts.URL, opts.Secure)
	if err != nil {
		return nil, err
	}
	goapp.Log.Info().Str("url", endpoint).Bool("secure", secure).Str("bucket", opts.Bucket).Msg("init minio")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Key, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("can't init minio client: %w", err)
	}
	res := &Filer{client: client, bucket: opts.Bucket}
	if err := res.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (f *Filer) ensureBucket(ctx context.Context) error {
	ok, err := f.client.BucketExists(ctx, f.bucket)
	if err != nil {
		return fmt.Errorf("can't check bucket: %w", err)
	}
	if ok {
		return nil
	}
	goapp.Log.Info().Str("bucket", f.bucket).Msg("creating bucket")
	if err := f.client.MakeBucket(ctx, f.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("can't create bucket: %w", err)
	}
	return nil
}

// WriteText stores text under the key
func (f *Filer) WriteText(ctx context.Context, key, text string) error {
	goapp.Log.Info().Str("key", key).Int("len", len(text)).Msg("save")
	_, err := f.client.PutObject(ctx, f.bucket, key, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("can't save %s: %w", key, err)
	}
	return nil
}

// Delete removes object, a missing object is not an error
func (f *Filer) Delete(ctx context.Context, key string) error {
	goapp.Log.Info().Str("key", key).Msg("delete")
	err := f.client.RemoveObject(ctx, f.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("can't delete %s: %w", key, err)
	}
	return nil
}

// PresignedGetURL returns time limited download URL
func (f *Filer) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	res, err := f.client.PresignedGetObject(ctx, f.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("can't presign get %s: %w", key, err)
	}
	return res.String(), nil
}

// PresignedPutURL returns time limited upload URL
func (f *Filer) PresignedPutURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	res, err := f.client.PresignedPutObject(ctx, f.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("can't presign put %s: %w", key, err)
	}
	return res.String(), nil
}

// ResultKey returns result text key for the job
func (f *Filer) ResultKey(ownerID, jobID string) string {
	return ResultKey(ownerID, jobID)
}

// UploadKey returns a new unique key for the user's upload
func (f *Filer) UploadKey(ownerID, fileName string) string {
	return UploadKey(ownerID, fileName)
}

// ResultKey makes 'results/<owner>/<job>.txt'
func ResultKey(ownerID, jobID string) string {
	return fmt.Sprintf("results/%s/%s.txt", ownerID, jobID)
}

// UploadKey makes 'uploads/<owner>/<uuid>_<sanitized name>'
func UploadKey(ownerID, fileName string) string {
	return fmt.Sprintf("%s%s_%s", UploadPrefix(ownerID), uuid.New().String(), utils.SanitizeFileName(fileName))
}

// UploadPrefix returns key prefix of all owner's uploads
func UploadPrefix(ownerID string) string {
	return fmt.Sprintf("uploads/%s/", ownerID)
}

// IsNotFound checks for minio 404 response
func IsNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.StatusCode == http.StatusNotFound || errResp.Code == "NoSuchKey"
}

func parseEndpoint(s string, secure bool) (string, bool, error) {
	if s == "" {
		return "", false, fmt.Errorf("no url")
	}
	if !strings.Contains(s, "://") {
		return s, secure, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false, fmt.Errorf("can't parse url: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("no host in url '%s'", s)
	}
	return u.Host, u.Scheme == "https", nil
}
