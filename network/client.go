package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/luca-patrignani/chain-verifier/verifier"
	"github.com/luca-patrignani/chain-verifier/wire"
)

// RemoteError is a failed request as reported by the server.
type RemoteError struct {
	StatusCode int
	ErrorKind  string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.ErrorKind, e.Message)
}

// Kind lets verifier.Kind classify remote errors like local ones.
func (e *RemoteError) Kind() string { return e.ErrorKind }

// Client talks to a Server.
type Client struct {
	client *resty.Client
}

type ClientOption func(*resty.Client)

func WithClientTimeout(timeout time.Duration) ClientOption {
	return func(c *resty.Client) {
		c.SetTimeout(timeout)
	}
}

// WithRootCAs trusts the certificates in pemCerts, typically the PEM
// returned by GenerateSelfSignedCert on the server side.
func WithRootCAs(pemCerts []byte) ClientOption {
	return func(c *resty.Client) {
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(pemCerts)
		c.SetTLSClientConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return &Client{client: c}
}

// Append asks the server to mint and append a block carrying data.
func (c *Client) Append(ctx context.Context, data string) (verifier.Block, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(DataRequest{Data: data}).
		Post("/blocks")
	if err != nil {
		return verifier.Block{}, err
	}
	if err := checkResponse(resp, http.StatusCreated); err != nil {
		return verifier.Block{}, err
	}
	var b wire.BlockJSON
	if err := json.Unmarshal(resp.Body(), &b); err != nil {
		return verifier.Block{}, fmt.Errorf("decode block: %w", err)
	}
	return wire.BlockFromJSON(b), nil
}

// Tamper overwrites the data of the block at index without re-sealing it.
func (c *Client) Tamper(ctx context.Context, index int, data string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(DataRequest{Data: data}).
		Put("/blocks/" + strconv.Itoa(index))
	if err != nil {
		return err
	}
	return checkResponse(resp, http.StatusNoContent)
}

// Entries returns the chain with its last known statuses, oldest first.
func (c *Client) Entries(ctx context.Context) ([]verifier.Entry, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/blocks")
	if err != nil {
		return nil, err
	}
	return decodeEntries(resp)
}

// Inspect runs an inspection on the server, which replaces its chain with
// the repaired one, and returns the result oldest first.
func (c *Client) Inspect(ctx context.Context) ([]verifier.Entry, error) {
	resp, err := c.client.R().SetContext(ctx).Post("/inspect")
	if err != nil {
		return nil, err
	}
	return decodeEntries(resp)
}

// Snapshot downloads the protobuf snapshot of the server's chain.
func (c *Client) Snapshot(ctx context.Context) ([]verifier.Block, []verifier.Status, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", ContentTypeProtobuf).
		Get("/snapshot")
	if err != nil {
		return nil, nil, err
	}
	if err := checkResponse(resp, http.StatusOK); err != nil {
		return nil, nil, err
	}
	return wire.DecodeSnapshot(resp.Body())
}

func decodeEntries(resp *resty.Response) ([]verifier.Entry, error) {
	if err := checkResponse(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var entries []wire.EntryJSON
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return wire.EntriesFromJSON(entries)
}

func checkResponse(resp *resty.Response, expected int) error {
	if resp.StatusCode() == expected {
		return nil
	}
	remote := &RemoteError{StatusCode: resp.StatusCode(), ErrorKind: verifier.KindInternal}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Kind != "" {
		remote.ErrorKind = body.Kind
		remote.Message = body.Message
	} else {
		remote.Message = string(resp.Body())
	}
	return remote
}
