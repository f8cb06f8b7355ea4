// internal/adapters/out/gcs/content_uploader_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"

	gcscommon "launchpad/internal/adapters/out/gcs/common"
	launchdom "launchpad/internal/domain/launch"
	storagecid "launchpad/internal/infra/storage"
)

// =====================================================
// Content-addressed uploader on GCS
// <prefix>/<cid> に保存し、public URL を返します。
// =====================================================

var ErrBucketNotConfigured = errors.New("gcs: bucket is empty")

type ContentUploader struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func NewContentUploader(client *storage.Client, bucket, prefix string) *ContentUploader {
	return &ContentUploader{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
		Prefix: strings.TrimSpace(prefix),
	}
}

// Ready reports whether the uploader can accept files.
func (u *ContentUploader) Ready() bool {
	return u != nil && u.Client != nil && u.Bucket != ""
}

// ObjectPath is the object name a payload is stored under.
func (u *ContentUploader) ObjectPath(cid string) string {
	return gcscommon.JoinObjectPath(u.Prefix, cid)
}

// UploadFile writes the bytes once. Re-uploading identical content is a no-op.
func (u *ContentUploader) UploadFile(ctx context.Context, f launchdom.File) (launchdom.StoredObject, error) {
	if u == nil || u.Client == nil {
		return launchdom.StoredObject{}, errors.New("gcs: storage client is nil")
	}
	if u.Bucket == "" {
		return launchdom.StoredObject{}, ErrBucketNotConfigured
	}

	cid := storagecid.ContentAddress(f.Data)
	objectPath := u.ObjectPath(cid)

	w := u.Client.Bucket(u.Bucket).Object(objectPath).
		If(storage.Conditions{DoesNotExist: true}).
		NewWriter(ctx)
	w.ContentType = strings.TrimSpace(f.ContentType)
	if f.Name != "" {
		w.Metadata = map[string]string{"file_name": f.Name}
	}

	if _, err := w.Write(f.Data); err != nil {
		_ = w.Close()
		return launchdom.StoredObject{}, fmt.Errorf("gcs: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		if !IsAlreadyStored(err) {
			return launchdom.StoredObject{}, fmt.Errorf("gcs: close %s: %w", objectPath, err)
		}
		log.WithField("object", objectPath).Debug("[storage] object already stored")
	}

	return launchdom.StoredObject{
		CID: cid,
		URL: gcscommon.GCSPublicURL(u.Bucket, objectPath, ""),
	}, nil
}

// IsAlreadyStored reports the DoesNotExist precondition failure.
func IsAlreadyStored(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
