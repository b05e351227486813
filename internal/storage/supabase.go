package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// SupabaseConfig configures the Supabase Storage client
type SupabaseConfig struct {
	// URL of the Supabase project, e.g. "https://xyz.supabase.co"
	URL            string
	ServiceRoleKey string
	Bucket         string
	// Timeout bounds each HTTP attempt
	Timeout time.Duration
	// Transport overrides the default HTTP transport
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// supabaseStorage implements RemoteStore on top of the Supabase Storage REST API
type supabaseStorage struct {
	baseURL *url.URL
	key     string
	bucket  string
	http    *retryablehttp.Client
}

// NewSupabaseStorage creates a Supabase Storage client
func NewSupabaseStorage(cfg SupabaseConfig) (*supabaseStorage, error) {
	if cfg.URL == "" {
		return nil, errors.New("missing supabase url")
	}
	if cfg.ServiceRoleKey == "" {
		return nil, errors.New("missing supabase service role key")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("missing supabase bucket")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.URL, "/") + "/storage/v1/")
	if err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}

	logger := cfg.Logger
	client := &retryablehttp.Client{
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
		HTTPClient:   &http.Client{Transport: cfg.Transport, Timeout: cfg.Timeout},
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: time.Second,
		RetryMax:     1,
		CheckRetry: func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			retry, retryErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
			if retry {
				if resp != nil {
					logger.Warn("retrying storage request", zap.Int("status", resp.StatusCode))
				} else {
					logger.Warn("retrying storage request", zap.Error(err))
				}
			}
			return retry, retryErr
		},
	}

	return &supabaseStorage{
		baseURL: baseURL,
		key:     cfg.ServiceRoleKey,
		bucket:  cfg.Bucket,
		http:    client,
	}, nil
}

// objectURL builds "{base}/storage/v1/{endpoint}/{bucket}/{escaped path}"
func (s *supabaseStorage) objectURL(endpoint, objectPath string) (string, error) {
	cleaned, err := CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	segments := strings.Split(cleaned, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	rel := endpoint + "/" + url.PathEscape(s.bucket) + "/" + strings.Join(segments, "/")
	u, err := s.baseURL.Parse(rel)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *supabaseStorage) newRequest(ctx context.Context, method, rawURL string, body any) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	s.authorize(req.Header)
	return req, nil
}

func (s *supabaseStorage) authorize(h http.Header) {
	h.Set("Authorization", "Bearer "+s.key)
	h.Set("apikey", s.key)
}

// SignedURL asks Supabase to mint a signed download URL valid for ttl
func (s *supabaseStorage) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	endpoint, err := s.objectURL("object/sign", objectPath)
	if err != nil {
		return "", err
	}

	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	payload, err := json.Marshal(map[string]int64{"expiresIn": seconds})
	if err != nil {
		return "", err
	}

	req, err := s.newRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to sign object: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return "", fmt.Errorf("failed to sign object: %w", err)
	}

	var body struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode signed url: %w", err)
	}
	if body.SignedURL == "" {
		return "", errors.New("storage returned an empty signed url")
	}

	// signedURL is relative to /storage/v1, e.g. "/object/sign/bucket/path?token=..."
	signed, err := s.baseURL.Parse(strings.TrimPrefix(body.SignedURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid signed url: %w", err)
	}
	return signed.String(), nil
}

// Stat issues a HEAD for the object
func (s *supabaseStorage) Stat(ctx context.Context, objectPath string) (*ObjectInfo, error) {
	endpoint, err := s.objectURL("object/authenticated", objectPath)
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	if resp.ContentLength < 0 {
		return nil, errors.New("storage did not report object size")
	}

	info := &ObjectInfo{
		Path:        objectPath,
		Size:        resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		info.ModTime = lm
	}
	return info, nil
}

// Open downloads the object, requesting only the wanted byte range
func (s *supabaseStorage) Open(ctx context.Context, objectPath string, offset, length int64) (io.ReadCloser, error) {
	endpoint, err := s.objectURL("object/authenticated", objectPath)
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if offset > 0 || length > 0 {
		rng := "bytes=" + strconv.FormatInt(offset, 10) + "-"
		if length > 0 {
			rng += strconv.FormatInt(offset+length-1, 10)
		}
		req.Header.Set("Range", rng)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	// A server ignoring Range answers 200 with the whole object
	if resp.StatusCode == http.StatusOK && offset > 0 {
		if _, err := io.CopyN(io.Discard, resp.Body, offset); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to skip to offset: %w", err)
		}
	}

	return limit(resp.Body, length), nil
}

// Create uploads the object, failing if it already exists.
// Seekable bodies are streamed and rewound on retry; any other reader is
// streamed once without retries.
func (s *supabaseStorage) Create(ctx context.Context, objectPath string, r io.Reader, contentType string) (int64, error) {
	endpoint, err := s.objectURL("object", objectPath)
	if err != nil {
		return 0, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var (
		resp *http.Response
		size int64
	)
	if rs, ok := r.(io.ReadSeeker); ok {
		resp, size, err = s.uploadSeekable(ctx, endpoint, rs, contentType)
	} else {
		resp, size, err = s.uploadStream(ctx, endpoint, r, contentType)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return 0, fmt.Errorf("failed to upload object: %w", err)
	}

	return size, nil
}

// uploadSeekable sends rs from its current offset with a known Content-Length
func (s *supabaseStorage) uploadSeekable(ctx context.Context, endpoint string, rs io.ReadSeeker, contentType string) (*http.Response, int64, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read upload: %w", err)
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read upload: %w", err)
	}
	size := end - start

	// The returned reader hides Close so retryablehttp never closes the caller's file.
	body := retryablehttp.ReaderFunc(func() (io.Reader, error) {
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, err
		}
		return io.LimitReader(rs, size), nil
	})

	req, err := s.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read upload: %w", err)
	}
	req.ContentLength = size
	setUploadHeaders(req.Header, contentType)

	resp, err := s.http.Do(req)
	return resp, size, err
}

// uploadStream sends r as a chunked body through the underlying client
func (s *supabaseStorage) uploadStream(ctx context.Context, endpoint string, r io.Reader, contentType string) (*http.Response, int64, error) {
	cr := &countingReader{r: r}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, cr)
	if err != nil {
		return nil, 0, err
	}
	s.authorize(req.Header)
	setUploadHeaders(req.Header, contentType)

	resp, err := s.http.HTTPClient.Do(req)
	return resp, cr.n.Load(), err
}

// countingReader counts bytes read; the transport may still be reading when Do returns
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

func setUploadHeaders(h http.Header, contentType string) {
	h.Set("Content-Type", contentType)
	h.Set("x-upsert", "false")
}

// Delete removes the object
func (s *supabaseStorage) Delete(ctx context.Context, objectPath string) error {
	endpoint, err := s.objectURL("object", objectPath)
	if err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	return checkResponse(resp)
}

// storageError is the JSON error body returned by Supabase Storage
type storageError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// checkResponse maps non-2xx responses to errors. Supabase reports a missing
// object either as a 404 or as a 400 whose body carries statusCode "404".
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrObjectNotFound
	}

	var body storageError
	if resp.Body != nil {
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	}
	if body.StatusCode == "404" || body.Error == "not_found" {
		return ErrObjectNotFound
	}
	if body.Message != "" {
		return fmt.Errorf("storage responded %d: %s", resp.StatusCode, body.Message)
	}
	return fmt.Errorf("storage responded %d", resp.StatusCode)
}
