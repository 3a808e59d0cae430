package secrets

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeClient struct {
	mu     sync.Mutex
	values map[string]string
	errs   map[string]error
	calls  map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]string{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (c *fakeClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[req.GetName()]++
	if err, ok := c.errs[req.GetName()]; ok {
		return nil, err
	}
	v, ok := c.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "missing")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{Payload: &secretmanagerpb.SecretPayload{Data: []byte(v)}}, nil
}

func (c *fakeClient) Close() error { return nil }

func TestResolveCachesRemoteSecret(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	resource := "projects/aiupd8/secrets/openai-key/versions/latest"
	client.values[resource] = "sk-remote"

	fetcher := NewFetcher(ctx, WithClient(client), WithProject("aiupd8"), WithFallbackFile(""))
	defer fetcher.Close()

	for i := 0; i < 2; i++ {
		got, err := fetcher.ResolveSecret(ctx, "sm://openai/key")
		if err != nil {
			t.Fatalf("ResolveSecret returned error: %v", err)
		}
		if got != "sk-remote" {
			t.Fatalf("expected sk-remote, got %s", got)
		}
	}
	if client.calls[resource] != 1 {
		t.Fatalf("expected a single remote call, got %d", client.calls[resource])
	}
}

func TestResolveHonoursVersionAndProject(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.values["projects/other/secrets/sanity-token/versions/3"] = "v3"

	fetcher := NewFetcher(ctx, WithClient(client), WithProject("aiupd8"), WithFallbackFile(""))
	got, err := fetcher.ResolveSecret(ctx, "secret://sanity-token?version=3&project=other")
	if err != nil {
		t.Fatalf("ResolveSecret returned error: %v", err)
	}
	if got != "v3" {
		t.Fatalf("expected v3, got %s", got)
	}
}

func TestResolveFallsBackWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".secrets.local")
	if err := os.WriteFile(path, []byte("openai_key=sk-local\n"), 0o600); err != nil {
		t.Fatalf("write fallback: %v", err)
	}
	client := newFakeClient()
	client.errs["projects/aiupd8/secrets/openai-key/versions/latest"] = status.Error(codes.PermissionDenied, "denied")

	fetcher := NewFetcher(ctx, WithClient(client), WithProject("aiupd8"), WithFallbackFile(path))
	got, err := fetcher.ResolveSecret(ctx, "secret://openai/key")
	if err != nil {
		t.Fatalf("ResolveSecret returned error: %v", err)
	}
	if got != "sk-local" {
		t.Fatalf("expected sk-local, got %s", got)
	}
}

func TestResolveWithoutProjectUsesFallbackOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".secrets.local")
	if err := os.WriteFile(path, []byte("sanity_token=local-token\n"), 0o600); err != nil {
		t.Fatalf("write fallback: %v", err)
	}
	fetcher := NewFetcher(ctx, WithFallbackFile(path))
	got, err := fetcher.ResolveSecret(ctx, "secret://sanity-token")
	if err != nil || got != "local-token" {
		t.Fatalf("unexpected result %q %v", got, err)
	}
	if _, err := fetcher.ResolveSecret(ctx, "secret://unknown"); err == nil {
		t.Fatalf("expected error for unknown secret")
	}
}

func TestResolveReturnsHardErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.errs["projects/aiupd8/secrets/openai-key/versions/latest"] = status.Error(codes.InvalidArgument, "bad")

	fetcher := NewFetcher(ctx, WithClient(client), WithProject("aiupd8"), WithFallbackFile(""))
	if _, err := fetcher.ResolveSecret(ctx, "secret://openai-key"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseReferenceRejectsOtherSchemes(t *testing.T) {
	for _, ref := range []string{"", "https://x", "secret://"} {
		if _, err := parseReference(ref); err == nil {
			t.Errorf("expected %q to be rejected", ref)
		}
	}
}
