package webclient_test

import (
	"context"
	"testing"

	"github.com/raysh454/alignscore/internal/logging"
	"github.com/raysh454/alignscore/internal/webclient"
)

func TestNewWebClient_DefaultBackend(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewWebClient(webclient.Config{}, logging.Nop{})
	if err != nil {
		t.Fatalf("Failed to create default client: %v", err)
	}
	defer client.Close()

	if _, ok := client.(*webclient.NetHTTPClient); !ok {
		t.Fatalf("expected *NetHTTPClient, got %T", client)
	}
}

func TestNewWebClient_BackendNameIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewWebClient(webclient.Config{Backend: " NetHTTP "}, logging.Nop{})
	if err != nil {
		t.Fatalf("Failed to create nethttp client: %v", err)
	}
	defer client.Close()
}

func TestNewWebClient_UnknownBackend(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewWebClient(webclient.Config{Backend: "chromedp"}, logging.Nop{})
	if err == nil {
		t.Fatal("Expected error for unknown backend, got nil")
	}
	if client != nil {
		t.Fatal("Expected nil client for unknown backend")
	}
}

func TestHasBackend(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"nethttp", " NETHTTP", ""} {
		if !webclient.HasBackend(name) {
			t.Errorf("HasBackend(%q) = false", name)
		}
	}
	if webclient.HasBackend("chromedp") {
		t.Error("HasBackend(chromedp) = true")
	}
}

type stubClient struct{}

func (stubClient) Do(context.Context, *webclient.Request) (*webclient.Response, error) {
	return &webclient.Response{StatusCode: 204}, nil
}
func (stubClient) Close() error { return nil }

func TestRegisterBackend_CustomBackendIsListed(t *testing.T) {
	webclient.RegisterBackend("stub-factory-test", func(webclient.Config, logging.Logger) (webclient.WebClient, error) {
		return stubClient{}, nil
	})

	found := false
	for _, name := range webclient.ListBackends() {
		if name == "stub-factory-test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("registered backend missing from %v", webclient.ListBackends())
	}

	client, err := webclient.NewWebClient(webclient.Config{Backend: "stub-factory-test"}, logging.Nop{})
	if err != nil {
		t.Fatalf("NewWebClient: %v", err)
	}
	resp, err := client.Do(context.Background(), &webclient.Request{})
	if err != nil || resp.StatusCode != 204 {
		t.Fatalf("unexpected stub response: %+v, %v", resp, err)
	}
}

func TestRegisterBackend_IgnoresEmpty(t *testing.T) {
	before := len(webclient.ListBackends())
	webclient.RegisterBackend("", nil)
	if after := len(webclient.ListBackends()); after != before {
		t.Fatalf("expected no change, got %d -> %d", before, after)
	}
}
