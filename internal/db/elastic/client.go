// Package elastic implements db.Store on Elasticsearch through the esapi request types.
// A collection is an index.
package elastic

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/oceandb/internal/db"
)

// Kind is the store type identifier.
const Kind = "Elasticsearch"

// refreshWaitFor makes writes visible to the next search before returning.
const refreshWaitFor = "wait_for"

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	// Addrs are "host:port" pairs or full URLs.
	Addrs    []string
	Username string
	Password string
	// SSL switches bare host:port addresses to https.
	SSL            bool
	VerifyCerts    bool
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string
}

// Store implements db.Store via go-elasticsearch.
type Store struct {
	client esapi.Transport
	conns  *http.Transport
}

// NewStore creates an Elasticsearch store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	tlsCfg, err := buildTLS(cfg)
	if err != nil {
		return nil, err
	}

	conns := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsCfg,
		MaxIdleConnsPerHost: 100,
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses(cfg),
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: conns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, conns: conns}, nil
}

// NewStoreForTest creates a Store over the provided transport (test-only).
func NewStoreForTest(t esapi.Transport) *Store {
	return &Store{client: t}
}

// Kind returns the store type identifier.
func (s *Store) Kind() string { return Kind }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.perform(ctx, db.OpPing, esapi.PingRequest{})
	if err != nil {
		return err
	}
	defer drain(res)
	if res.IsError() {
		return responseError(db.OpPing, res)
	}
	return nil
}

// Close releases idle connections.
func (s *Store) Close() {
	if s.conns != nil {
		s.conns.CloseIdleConnections()
	}
}

// WaitForReady polls Ping until the cluster answers or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Store) perform(ctx context.Context, op string, req esapi.Request) (*esapi.Response, error) {
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, &db.Error{Op: op, Err: err}
	}
	return res, nil
}

// esError is the error envelope Elasticsearch returns with non-2xx statuses.
type esError struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// errorType extracts error.type from a failed response, consuming the body.
func errorType(res *esapi.Response) (string, string) {
	var e esError
	body, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Type == "" {
		return "", strings.TrimSpace(string(body))
	}
	return e.Error.Type, e.Error.Reason
}

func responseError(op string, res *esapi.Response) error {
	typ, reason := errorType(res)
	if typ == "" {
		return &db.Error{Op: op, Err: fmt.Errorf("status %d: %s", res.StatusCode, reason)}
	}
	return &db.Error{Op: op, Err: fmt.Errorf("status %d: %s: %s", res.StatusCode, typ, reason)}
}

func decode(op string, res *esapi.Response, v any) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

func addresses(cfg Config) []string {
	scheme := "http://"
	if cfg.SSL {
		scheme = "https://"
	}
	out := make([]string, len(cfg.Addrs))
	for i, a := range cfg.Addrs {
		if strings.Contains(a, "://") {
			out[i] = a
			continue
		}
		out[i] = scheme + a
	}
	return out
}

func buildTLS(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		//nolint:gosec // certificate verification is opt-in, matching DB_VERIFY_CERTS
		InsecureSkipVerify: !cfg.VerifyCerts,
	}

	if cfg.CACertPath != "" {
		pem, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("ca cert: no certificates found")
		}
		tlsCfg.RootCAs = pool
	}

	if cfg.ClientCertPath != "" || cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return tlsCfg, nil
}
