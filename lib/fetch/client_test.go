package fetch

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	require.Nil(t, Classify(nil))

	table := []struct {
		err      error
		expected ErrorCode
	}{
		{err: context.Canceled, expected: CodeCanceled},
		{err: fmt.Errorf("get: %w", context.DeadlineExceeded), expected: CodeTimeout},
		{err: &url.Error{Op: "Get", URL: "https://x.test", Err: &net.DNSError{Err: "no such host", Name: "x.test"}}, expected: CodeDNS},
		{err: &url.Error{Op: "Get", URL: "https://x.test", Err: x509.UnknownAuthorityError{}}, expected: CodeTLS},
		{
			err: &url.Error{Op: "Get", URL: "https://x.test", Err: &net.OpError{
				Op:  "dial",
				Net: "tcp",
				Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
			}},
			expected: CodeConnectionRefused,
		},
		{
			err: &net.OpError{
				Op:  "read",
				Net: "tcp",
				Err: os.NewSyscallError("read", syscall.ECONNRESET),
			},
			expected: CodeConnectionReset,
		},
		{err: &url.Error{Op: "Get", URL: "https://x.test", Err: errors.New("stopped after 10 redirects")}, expected: CodeRedirectLimit},
		{err: &url.Error{Op: "Get", URL: "ftp://x.test", Err: errors.New(`unsupported protocol scheme "ftp"`)}, expected: CodeInvalidURL},
		{err: errors.New("something else"), expected: CodeRequest},
	}

	for _, row := range table {
		classified := Classify(row.err)
		require.Equal(t, row.expected, classified.Code, row.err.Error())
		require.Equal(t, row.err.Error(), classified.Message)
	}
}

func TestRetryable(t *testing.T) {
	get := &resty.Request{Method: http.MethodGet}
	post := &resty.Request{Method: http.MethodPost}

	respond := func(req *resty.Request, status int) *resty.Response {
		return &resty.Response{Request: req, RawResponse: &http.Response{StatusCode: status}}
	}

	for _, status := range []int{408, 413, 429, 500, 502, 503, 504} {
		require.True(t, retryable(respond(get, status), nil), status)
		require.False(t, retryable(respond(post, status), nil), status)
	}
	for _, status := range []int{200, 301, 401, 403, 404, 501} {
		require.False(t, retryable(respond(get, status), nil), status)
	}

	require.True(t, retryable(&resty.Response{Request: get}, errors.New("connection reset")))
	require.False(t, retryable(&resty.Response{Request: get}, context.Canceled))
	require.False(t, retryable(nil, errors.New("middleware failed")))
}

func TestRetryDelay(t *testing.T) {
	expected := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, want := range expected {
		res := &resty.Response{Request: &resty.Request{Attempt: i + 1}}
		got, err := retryDelay(nil, res)
		require.NoError(t, err)
		require.Equal(t, want, got, "attempt %d", i+1)
	}

	got, err := retryDelay(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, got)
}

func TestHostLimiter(t *testing.T) {
	limiter := NewHostLimiter(1)

	require.NoError(t, limiter.Wait(context.Background(), "a.test"))
	// every host has its own bucket
	require.NoError(t, limiter.Wait(context.Background(), "b.test"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, limiter.Wait(ctx, "a.test"))
}
