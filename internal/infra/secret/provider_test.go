package secret

import (
	"context"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeAccessor struct {
	secrets map[string]string
	names   []string
}

func (f *fakeAccessor) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.names = append(f.names, req.GetName())
	v, ok := f.secrets[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "no such secret")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(v)},
	}, nil
}

func TestProvider_Get(t *testing.T) {
	a := &fakeAccessor{secrets: map[string]string{
		"projects/p1/secrets/sendgrid-api-key/versions/latest": "SG.key\n",
	}}
	p := NewProviderWithAccessor(a, "p1")

	v, err := p.Get(context.Background(), " sendgrid-api-key ")
	require.NoError(t, err)
	assert.Equal(t, "SG.key", v)

	_, err = p.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProvider_Unconfigured(t *testing.T) {
	var p *Provider
	_, err := p.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, p.Close())
}
