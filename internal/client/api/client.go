// Package api is the REST client for the storage bucket server, used by
// the upload queue manager and the CLI.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/localbucket/bucketd/internal/model"
)

// Error is the decoded server error envelope.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// UploadFile streams one file to POST /upload as multipart form data. The
// body is piped, never buffered whole. progress receives the percentage of
// bytes sent so far; it may be nil.
func (c *Client) UploadFile(ctx context.Context, name, mimeType string, r io.Reader, size int64, progress func(int)) (*model.File, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
		h.Set("Content-Type", mimeType)

		part, err := mw.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		_, err = io.Copy(part, &progressReader{r: r, total: size, fn: progress})
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	file := &model.File{}
	err = json.NewDecoder(resp.Body).Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return file, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// progressReader reports the percentage of a known-length stream consumed.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.fn != nil && p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		p.fn(pct)
	}
	return n, err
}
