package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/storage/v1"
)

// publicReader is the IAM binding that makes every object in a bucket readable
// without credentials
var publicReader = &storage.PolicyBindings{
	Role:    "roles/storage.objectViewer",
	Members: []string{"allUsers"},
}

// GCS archives images in a Cloud Storage bucket, creating the bucket with a
// public-read policy the first time it is needed
type GCS struct {
	svc     *storage.Service
	project string
	bucket  string

	mu    sync.Mutex
	ready bool
}

// NewGCS returns a Cloud Storage strategy for bucket in project
func NewGCS(svc *storage.Service, project, bucket string) *GCS {
	return &GCS{
		svc:     svc,
		project: project,
		bucket:  bucket,
	}
}

func (g *GCS) Name() string { return "gcs" }

// Store uploads the asset and returns its public object URL
func (g *GCS) Store(ctx context.Context, asset Asset) (string, error) {
	if err := g.ensureBucket(ctx); err != nil {
		return "", err
	}

	obj, err := g.svc.Objects.Insert(g.bucket, &storage.Object{
		Name:        asset.Filename,
		ContentType: asset.MIMEType,
	}).Media(bytes.NewReader(asset.Data), googleapi.ContentType(asset.MIMEType)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", asset.Filename, err)
	}

	return PublicObjectURL(g.bucket, obj.Name), nil
}

func (g *GCS) ensureBucket(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ready {
		return nil
	}

	_, err := g.svc.Buckets.Get(g.bucket).Context(ctx).Do()
	switch {
	case err == nil:
		g.ready = true
		return nil
	case !isNotFound(err):
		return fmt.Errorf("failed to look up bucket %s: %w", g.bucket, err)
	}

	if g.project == "" {
		return fmt.Errorf("bucket %s does not exist and no project is configured to create it", g.bucket)
	}

	_, err = g.svc.Buckets.Insert(g.project, &storage.Bucket{
		Name: g.bucket,
		IamConfiguration: &storage.BucketIamConfiguration{
			UniformBucketLevelAccess: &storage.BucketIamConfigurationUniformBucketLevelAccess{Enabled: true},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", g.bucket, err)
	}

	policy, err := g.svc.Buckets.GetIamPolicy(g.bucket).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read bucket policy: %w", err)
	}
	policy.Bindings = append(policy.Bindings, publicReader)
	if _, err := g.svc.Buckets.SetIamPolicy(g.bucket, policy).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to make bucket %s public: %w", g.bucket, err)
	}

	g.ready = true
	return nil
}

// PublicObjectURL is the unauthenticated URL of an object in a public bucket
func PublicObjectURL(bucket, object string) string {
	return "https://storage.googleapis.com/" + bucket + "/" + url.PathEscape(object)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
