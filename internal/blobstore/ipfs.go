package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"iotledger/pkg/platform/circuit"
	"iotledger/pkg/platform/sentinel"
)

// IPFS talks to an IPFS node's HTTP API. Resource IDs are CIDs. A circuit
// breaker guards the node: once it trips, calls fail fast with
// sentinel.ErrUnavailable instead of waiting out the HTTP timeout, with one
// probe per probeInterval to detect recovery.
type IPFS struct {
	baseURL   string
	client    *http.Client
	breaker   *circuit.Breaker
	lastProbe atomic.Int64 // unix nanos of the last probe while open
}

const probeInterval = 5 * time.Second

// NewIPFS constructs a client for the node's API endpoint, e.g.
// http://127.0.0.1:5001.
func NewIPFS(baseURL string) *IPFS {
	return &IPFS{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: circuit.New("ipfs"),
	}
}

// do runs one node round trip through the breaker. Only transport errors
// count against the breaker; an HTTP response from the node, whatever the
// status, means the node is up.
func (s *IPFS) do(req *http.Request) (*http.Response, error) {
	if s.breaker.IsOpen() {
		last := s.lastProbe.Load()
		now := time.Now().UnixNano()
		if now-last < int64(probeInterval) || !s.lastProbe.CompareAndSwap(last, now) {
			return nil, sentinel.ErrUnavailable
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if useFallback, _ := s.breaker.RecordFailure(); useFallback {
			return nil, sentinel.ErrUnavailable
		}
		return nil, err
	}
	s.breaker.RecordSuccess()
	return resp, nil
}

type addResponse struct {
	Hash string `json:"Hash"`
}

func (s *IPFS) Add(ctx context.Context, payload []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "artifact")
	if err != nil {
		return "", fmt.Errorf("build add request: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("build add request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build add request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v0/add?cid-version=1", &body)
	if err != nil {
		return "", fmt.Errorf("build add request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("add artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("add artifact: node returned status %d", resp.StatusCode)
	}

	var decoded addResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode add response: %w", err)
	}
	if decoded.Hash == "" {
		return "", fmt.Errorf("decode add response: missing hash")
	}
	return decoded.Hash, nil
}

func (s *IPFS) Get(ctx context.Context, resourceID string) ([]byte, error) {
	endpoint := s.baseURL + "/api/v0/cat?arg=" + url.QueryEscape(resourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build cat request: %w", err)
	}

	resp, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusInternalServerError:
		// The IPFS API reports unknown CIDs as 500 with an error body.
		return nil, sentinel.ErrNotFound
	default:
		return nil, fmt.Errorf("get artifact: node returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return payload, nil
}
