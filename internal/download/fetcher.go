package download

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"

	"bootstrap/internal/errors"
)

// Fetcher opens the resource behind a URL for reading. The caller closes the
// returned body.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// HTTPFetcher fetches http and https URLs with a GET request. Any status
// outside 2xx is a NetworkError.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.NewNetworkError(u.Redacted(), "invalid request", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(u.Redacted(), "request failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, errors.NewStatusError(u.Redacted(), resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

// FTPFetcher retrieves ftp URLs. Credentials come from the URL userinfo,
// anonymous login otherwise. Every control and data connection is closed as
// soon as the context is done, so a deadline bounds the whole transfer.
type FTPFetcher struct {
	DialTimeout time.Duration
}

const ftpDefaultPort = "21"

// Fetch implements Fetcher.
func (f *FTPFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), ftpDefaultPort)
	}

	conns := &connSet{}
	stop := context.AfterFunc(ctx, conns.closeAll)

	conn, err := ftp.Dial(addr, ftp.DialWithDialFunc(conns.dialer(ctx, f.DialTimeout)))
	if err != nil {
		stop()
		return nil, errors.NewNetworkError(u.Redacted(), "connection failed", cause(ctx, err))
	}

	fail := func(message string, err error) (io.ReadCloser, error) {
		stop()
		_ = conn.Quit()
		return nil, errors.NewNetworkError(u.Redacted(), message, cause(ctx, err))
	}

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return fail("login failed", err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return fail("retrieve failed", err)
	}
	return &ftpBody{ctx: ctx, resp: resp, conn: conn, stop: stop}, nil
}

type ftpBody struct {
	ctx  context.Context
	resp *ftp.Response
	conn *ftp.ServerConn
	stop func() bool
}

func (b *ftpBody) Read(p []byte) (int, error) {
	n, err := b.resp.Read(p)
	if err != nil && err != io.EOF {
		err = cause(b.ctx, err)
	}
	return n, err
}

func (b *ftpBody) Close() error {
	b.stop()
	err := b.resp.Close()
	if qerr := b.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

// connSet tracks the connections opened for one FTP session.
type connSet struct {
	mu     sync.Mutex
	conns  []net.Conn
	closed bool
}

func (s *connSet) dialer(ctx context.Context, timeout time.Duration) func(network, address string) (net.Conn, error) {
	return func(network, address string) (net.Conn, error) {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			_ = conn.Close()
			return nil, net.ErrClosed
		}
		s.conns = append(s.conns, conn)
		return conn, nil
	}
}

func (s *connSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, c := range s.conns {
		_ = c.Close()
	}
}

// cause prefers the context error once the context is done, since closed
// connections only report "use of closed network connection".
func cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// FileFetcher opens file URLs from the local file system.
type FileFetcher struct{}

// Fetch implements Fetcher.
func (FileFetcher) Fetch(_ context.Context, u *url.URL) (io.ReadCloser, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapFileError(path, err)
	}
	return f, nil
}
