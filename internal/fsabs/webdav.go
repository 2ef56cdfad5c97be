package fsabs

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zarniwp/cuba-go/internal/ppath"
)

// WebDAVConfig configures a WebDAV mount.
type WebDAVConfig struct {
	BaseURL    string
	User       string
	Password   string
	TimeoutSec int
}

// WebDAV is an HTTP/WebDAV-backed filesystem. Block size 128 KiB. Symlinks
// are unsupported (ErrNotSupported on Meta/Mklink with a symlink kind).
type WebDAV struct {
	cfg       WebDAVConfig
	client    *http.Client
	connected bool
}

func NewWebDAV(cfg WebDAVConfig) *WebDAV {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebDAV{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (w *WebDAV) Connect() error    { w.connected = true; return nil }
func (w *WebDAV) Disconnect() error { w.connected = false; return nil }
func (w *WebDAV) IsConnected() bool { return w.connected }

func (w *WebDAV) BlockSize() BlockSize {
	return BlockSize{Recommended: 128 * 1024}
}

// href builds the request URL from a path's NFC-normalized key (never its
// raw display bytes), percent-encoding each segment — two byte-distinct but
// NFC-equal paths (e.g. macOS decomposed vs. precomposed names) must collapse
// to the same URL, or the up-to-date/overwrite invariant breaks.
func (w *WebDAV) href(normKey string) string {
	segments := strings.Split(strings.Trim(normKey, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	base := strings.TrimRight(w.cfg.BaseURL, "/")
	return base + "/" + strings.Join(segments, "/")
}

func (w *WebDAV) newRequest(method, href string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, href, body)
	if err != nil {
		return nil, err
	}
	if w.cfg.User != "" {
		req.SetBasicAuth(w.cfg.User, w.cfg.Password)
	}
	return req, nil
}

// davMultistatus mirrors rclone's webdav/api PROPFIND response shape.
type davMultistatus struct {
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href  string   `xml:"href"`
	Props davProps `xml:"propstat"`
}

type davProps struct {
	Status       []string `xml:"DAV: status"`
	Name         string   `xml:"DAV: prop>displayname,omitempty"`
	IsCollection *xml.Name `xml:"DAV: prop>resourcetype>collection,omitempty"`
	Size         int64    `xml:"DAV: prop>getcontentlength,omitempty"`
	Created      davTime  `xml:"DAV: prop>creationdate,omitempty"`
	Modified     davTime  `xml:"DAV: prop>getlastmodified,omitempty"`
}

func (p *davProps) statusOK() bool {
	if len(p.Status) == 0 {
		return true
	}
	var code int
	if fields := strings.Fields(p.Status[0]); len(fields) >= 2 {
		code, _ = strconv.Atoi(fields[1])
	}
	return code >= 200 && code < 300
}

// davTime parses the RFC-1123 / RFC-2822(Z) / RFC-3339 timestamp formats a
// WebDAV server may emit, in the order spec.md §4.1 names.
type davTime struct {
	t     time.Time
	valid bool
}

var davTimeFormats = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
}

func (t *davTime) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var v string
	if err := d.DecodeElement(&v, &start); err != nil {
		return err
	}
	if v == "" {
		return nil
	}
	for _, format := range davTimeFormats {
		if parsed, err := time.Parse(format, v); err == nil {
			t.t = parsed
			t.valid = true
			return nil
		}
	}
	return nil
}

func (w *WebDAV) propfind(href string, depth string) (*davMultistatus, error) {
	req, err := w.newRequest("PROPFIND", href, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Depth", depth)
	req.Header.Set("Content-Type", "application/xml")
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMultiStatus {
		return nil, fmt.Errorf("webdav: PROPFIND %s: unexpected status %s", href, resp.Status)
	}
	var ms davMultistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, err
	}
	return &ms, nil
}

func (w *WebDAV) Meta(path ppath.UPath[ppath.Abs]) (Meta, error) {
	if !w.connected {
		return Meta{}, ErrNotConnected
	}
	if path.Kind() == ppath.USymlink {
		return Meta{}, ErrNotSupported
	}
	href := w.href(path.NormKey())
	ms, err := w.propfind(href, "0")
	if err != nil {
		return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: err}
	}
	if len(ms.Responses) == 0 {
		return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: fmt.Errorf("webdav: empty PROPFIND response")}
	}
	props := ms.Responses[0].Props
	if !props.statusOK() {
		return Meta{}, &OpError{Op: "meta", Path: path.String(), Cause: fmt.Errorf("webdav: status %v", props.Status)}
	}

	meta := Meta{}
	if props.Created.valid {
		meta.Created = Instant{Unix: props.Created.t.Unix(), Valid: true}
	}
	if props.Modified.valid {
		meta.Modified = Instant{Unix: props.Modified.t.Unix(), Valid: true}
	}
	if path.Kind() == ppath.UFile {
		size := props.Size
		if size == 0 {
			if fallback, err := w.rangeProbeSize(href); err == nil {
				size = fallback
			}
		}
		meta.Size = &size
	}
	return meta, nil
}

// rangeProbeSize issues a Range GET for a single byte and parses the
// Content-Range total, used when a server omits getcontentlength.
func (w *WebDAV) rangeProbeSize(href string) (int64, error) {
	req, err := w.newRequest("GET", href, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	cr := resp.Header.Get("Content-Range")
	parts := strings.Split(cr, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("webdav: no Content-Range in response")
	}
	return strconv.ParseInt(parts[1], 10, 64)
}

func (w *WebDAV) ListDir(dir ppath.Path[ppath.Abs, ppath.Dir]) ([]ppath.UPath[ppath.Abs], error) {
	if !w.connected {
		return nil, ErrNotConnected
	}
	href := w.href(dir.NormKey())
	ms, err := w.propfind(href, "1")
	if err != nil {
		return nil, &OpError{Op: "list_dir", Path: dir.String(), Cause: err}
	}

	selfHref := strings.TrimRight(href, "/")
	var out []ppath.UPath[ppath.Abs]
	for _, resp := range ms.Responses {
		if strings.TrimRight(resp.Href, "/") == selfHref {
			continue
		}
		if !resp.Props.StatusOKCompat() {
			continue
		}
		decoded, err := url.PathUnescape(resp.Href)
		if err != nil {
			decoded = resp.Href
		}
		name := strings.TrimSuffix(decoded, "/")
		name = name[strings.LastIndex(name, "/")+1:]
		full := dir.String()
		if full != "/" {
			full += "/"
		}
		full += name

		kind := ppath.UFile
		if resp.Props.IsCollection != nil {
			kind = ppath.UDir
		}
		u, err := ppath.NewU[ppath.Abs](full, kind)
		if err != nil {
			return nil, &OpError{Op: "list_dir", Path: dir.String(), Cause: err}
		}
		out = append(out, u)
	}
	return out, nil
}

// StatusOKCompat is an exported alias used only within this file's ListDir
// to keep the unexported statusOK reachable without widening davProps.
func (p davProps) StatusOKCompat() bool { return p.statusOK() }

func (w *WebDAV) WalkDirRec(root ppath.Path[ppath.Abs, ppath.Dir], visit Visitor, onError OnError) {
	WalkDirRec(w, root, visit, onError)
}

func (w *WebDAV) do(method, href string) (*http.Response, error) {
	req, err := w.newRequest(method, href, nil)
	if err != nil {
		return nil, err
	}
	return w.client.Do(req)
}

func (w *WebDAV) RemoveFile(path ppath.Path[ppath.Abs, ppath.File]) error {
	return w.remove("remove_file", path.String(), path.NormKey())
}

func (w *WebDAV) RemoveDir(path ppath.Path[ppath.Abs, ppath.Dir]) error {
	return w.remove("remove_dir", path.String(), path.NormKey())
}

func (w *WebDAV) remove(op, displayPath, normKey string) error {
	if !w.connected {
		return ErrNotConnected
	}
	resp, err := w.do("DELETE", w.href(normKey))
	if err != nil {
		return &OpError{Op: op, Path: displayPath, Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OpError{Op: op, Path: displayPath, Cause: fmt.Errorf("webdav: DELETE status %s", resp.Status)}
	}
	return nil
}

func (w *WebDAV) Mkdir(dir ppath.Path[ppath.Abs, ppath.Dir]) error {
	if !w.connected {
		return ErrNotConnected
	}
	resp, err := w.do("MKCOL", w.href(dir.NormKey()))
	if err != nil {
		return &OpError{Op: "mkdir", Path: dir.String(), Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OpError{Op: "mkdir", Path: dir.String(), Cause: fmt.Errorf("webdav: MKCOL status %s", resp.Status)}
	}
	return nil
}

func (w *WebDAV) Mklink(sym ppath.Path[ppath.Abs, ppath.Symlink], target SymlinkMeta) error {
	return ErrNotSupported
}

func (w *WebDAV) ReadData(file ppath.Path[ppath.Abs, ppath.File]) (io.ReadCloser, error) {
	if !w.connected {
		return nil, ErrNotConnected
	}
	resp, err := w.do("GET", w.href(file.NormKey()))
	if err != nil {
		return nil, &OpError{Op: "read_data", Path: file.String(), Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &OpError{Op: "read_data", Path: file.String(), Cause: fmt.Errorf("webdav: GET status %s", resp.Status)}
	}
	return resp.Body, nil
}

// webdavSink pipes written bytes to a background goroutine performing a
// chunked PUT; Finish joins that goroutine and surfaces its error, matching
// the spec's "observe the final HTTP status before control returns"
// contract (and the Rust FSWrite's finish()/Drop join of its thread handle).
type webdavSink struct {
	pw   *io.PipeWriter
	done chan error
}

func (s *webdavSink) Write(p []byte) (int, error) { return s.pw.Write(p) }

func (s *webdavSink) Finish() error {
	closeErr := s.pw.Close()
	putErr := <-s.done
	if putErr != nil {
		return putErr
	}
	return closeErr
}

func (w *WebDAV) WriteData(file ppath.Path[ppath.Abs, ppath.File]) (WriteSink, error) {
	if !w.connected {
		return nil, ErrNotConnected
	}
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	href := w.href(file.NormKey())

	go func() {
		req, err := w.newRequest("PUT", href, pr)
		if err != nil {
			pr.CloseWithError(err)
			done <- err
			return
		}
		req.ContentLength = -1
		resp, err := w.client.Do(req)
		if err != nil {
			pr.CloseWithError(err)
			done <- &OpError{Op: "write_data", Path: file.String(), Cause: err}
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			done <- &OpError{Op: "write_data", Path: file.String(), Cause: fmt.Errorf("webdav: PUT status %s", resp.Status)}
			return
		}
		done <- nil
	}()

	return &webdavSink{pw: pw, done: done}, nil
}
