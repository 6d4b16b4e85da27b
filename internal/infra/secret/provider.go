// internal/infra/secret/provider.go
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotConfigured = errors.New("secret: not configured")
	ErrNotFound      = errors.New("secret: not found")
)

// Accessor is the Secret Manager call Provider makes.
type Accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Provider reads the latest version of secrets in one project.
type Provider struct {
	client    Accessor
	closer    func() error
	ProjectID string
}

func NewProvider(ctx context.Context, projectID string) (*Provider, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrNotConfigured)
	}
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Provider{client: c, closer: c.Close, ProjectID: pid}, nil
}

// NewProviderWithAccessor is used by tests and callers that own the client.
func NewProviderWithAccessor(a Accessor, projectID string) *Provider {
	return &Provider{client: a, ProjectID: strings.TrimSpace(projectID)}
}

// Get returns the latest payload of secretID.
func (p *Provider) Get(ctx context.Context, secretID string) (string, error) {
	if p == nil || p.client == nil || p.ProjectID == "" {
		return "", ErrNotConfigured
	}
	id := strings.TrimSpace(secretID)
	if id == "" {
		return "", fmt.Errorf("%w: secret id is empty", ErrNotConfigured)
	}

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.ProjectID, id)
	res, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", err
	}
	if res == nil || res.GetPayload() == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return strings.TrimSpace(string(res.GetPayload().GetData())), nil
}

func (p *Provider) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer()
}
