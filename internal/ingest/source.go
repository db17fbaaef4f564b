// Package ingest loads prospect lists from CSV and XLSX files, reachable
// locally or over HTTP/FTP, and maps the rows into signal bundles for the
// pipeline.
package ingest

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
)

const fetchTimeout = 60 * time.Second

// Open returns a reader for the source, dispatching on its scheme:
// http(s)://, ftp://, or a local file path.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return openHTTP(ctx, source)
	case strings.HasPrefix(source, "ftp://"):
		return openFTP(source)
	default:
		f, err := os.Open(source)
		return f, eris.Wrapf(err, "ingest: open %s", source)
	}
}

func openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: create request")
	}

	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: fetch %s", rawURL)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close() //nolint:errcheck
		return nil, eris.Errorf("ingest: fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

func openFTP(rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: parse ftp url")
	}
	if u.Path == "" {
		return nil, eris.New("ingest: empty path in ftp url")
	}

	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(fetchTimeout))
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: ftp dial %s", host)
	}

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "ingest: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrapf(err, "ingest: ftp retr %s", u.Path)
	}
	return &ftpReader{resp: resp, conn: conn}, nil
}

// ftpReader closes both the transfer and the control connection.
type ftpReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReader) Read(p []byte) (int, error) { return r.resp.Read(p) }

func (r *ftpReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return respErr
	}
	return quitErr
}
