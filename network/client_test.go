package network

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luca-patrignani/chain-verifier/verifier"
)

func TestClientAgainstServer(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx := context.Background()
	c := NewClient(ts.URL)

	for _, d := range []string{"a", "b", "c"} {
		if _, err := c.Append(ctx, d); err != nil {
			t.Fatalf("append %q: %v", d, err)
		}
	}
	if err := c.Tamper(ctx, 1, "B"); err != nil {
		t.Fatal(err)
	}
	entries, err := c.Inspect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []verifier.Status{verifier.Valid, verifier.Tampered, verifier.Recovered}
	for i, e := range entries {
		if e.Status != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], e.Status)
		}
	}

	listed, err := c.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := range entries {
		if listed[i] != entries[i] {
			t.Fatalf("listing differs from the inspection at %d", i)
		}
	}

	blocks, statuses, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 3 || statuses[2] != verifier.Recovered {
		t.Fatalf("unexpected snapshot: %d blocks, statuses %v", len(blocks), statuses)
	}
}

func TestClientRemoteErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.Append(context.Background(), "")
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if remote.StatusCode != http.StatusBadRequest || verifier.Kind(err) != verifier.KindInvalidInput {
		t.Fatalf("unexpected remote error %+v", remote)
	}

	err = c.Tamper(context.Background(), 3, "x")
	if !errors.As(err, &remote) || remote.ErrorKind != kindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestClientOverTLS(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cert, pem, err := GenerateSelfSignedCert(l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	srv, _ := newTestServer(t)
	WithCertificate(cert)(srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, l)
	}()

	c := NewClient("https://"+l.Addr().String(), WithRootCAs(pem), WithClientTimeout(10*time.Second))
	b, err := c.Append(context.Background(), "secure")
	if err != nil {
		t.Fatalf("append over TLS failed: %v", err)
	}
	if b.Index != 0 || b.Data != "secure" {
		t.Fatalf("unexpected block %+v", b)
	}

	untrusted := NewClient("https://"+l.Addr().String(), WithClientTimeout(10*time.Second))
	if _, err := untrusted.Entries(context.Background()); err == nil {
		t.Fatal("a client without the certificate should fail the handshake")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("server did not shut down cleanly: %v", err)
	}
}
