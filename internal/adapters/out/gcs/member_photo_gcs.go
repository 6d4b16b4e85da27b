// internal/adapters/out/gcs/member_photo_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	memdom "github.com/Argy1/pdpi-member-sub002/internal/domain/member"
)

// SignedURLTTL is how long photo download URLs stay valid.
const SignedURLTTL = 15 * time.Minute

// MemberPhotoStore implements member.PhotoStore on a GCS bucket.
// Objects live at "members/<memberID>/photo<ext>".
type MemberPhotoStore struct {
	Client *storage.Client
	Bucket string
}

func NewMemberPhotoStore(client *storage.Client, bucket string) *MemberPhotoStore {
	return &MemberPhotoStore{Client: client, Bucket: strings.TrimSpace(bucket)}
}

var _ memdom.PhotoStore = (*MemberPhotoStore)(nil)

func (s *MemberPhotoStore) bucket() (*storage.BucketHandle, error) {
	if s.Client == nil {
		return nil, errors.New("MemberPhotoStore: nil storage client")
	}
	if s.Bucket == "" {
		return nil, errors.New("MemberPhotoStore: bucket is empty")
	}
	return s.Client.Bucket(s.Bucket), nil
}

func (s *MemberPhotoStore) Put(ctx context.Context, memberID, contentType string, data []byte) (string, error) {
	b, err := s.bucket()
	if err != nil {
		return "", err
	}
	path, err := PhotoObjectPath(memberID, contentType)
	if err != nil {
		return "", err
	}

	w := b.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "private, max-age=0"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("MemberPhotoStore: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("MemberPhotoStore: close %s: %w", path, err)
	}
	return path, nil
}

func (s *MemberPhotoStore) SignedURL(ctx context.Context, path string) (string, error) {
	b, err := s.bucket()
	if err != nil {
		return "", err
	}
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", memdom.ErrNotFound
	}

	if _, err := b.Object(path).Attrs(ctx); err != nil {
		var gerr *googleapi.Error
		if errors.Is(err, storage.ErrObjectNotExist) || (errors.As(err, &gerr) && gerr.Code == http.StatusNotFound) {
			return "", memdom.ErrNotFound
		}
		return "", err
	}

	return b.SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(SignedURLTTL),
	})
}

// PhotoObjectPath is the object name for a member's photo of contentType.
func PhotoObjectPath(memberID, contentType string) (string, error) {
	id := strings.Trim(strings.TrimSpace(memberID), "/")
	if id == "" || strings.Contains(id, "/") {
		return "", memdom.ErrInvalidID
	}
	var ext string
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	default:
		return "", fmt.Errorf("MemberPhotoStore: unsupported content type %q", contentType)
	}
	return "members/" + id + "/photo" + ext, nil
}
