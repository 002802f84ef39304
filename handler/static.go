// Package handler implements request handlers for the server.
package handler

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/ccerve/server"
)

const serverName = "ccerve"

// Static serves files below a root directory.
// Only GET and HEAD are served; "/" and paths ending in "/" map to the index file.
type Static struct {
	root  string
	index string
}

// NewStatic creates a handler rooted at root. The root must be a directory.
func NewStatic(root, index string) (*Static, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("handler: failed to resolve root '%s': %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("handler: root '%s' not accessible: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("handler: root '%s' is not a directory", abs)
	}
	if index == "" {
		index = "index.html"
	}
	return &Static{root: abs, index: index}, nil
}

// Root returns the absolute root directory
func (h *Static) Root() string {
	return h.root
}

// Handle parses one raw request and builds the complete response
func (h *Static) Handle(raw []byte) ([]byte, server.Meta, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	resp.Header.SetServer(serverName)

	if err := req.Read(bufio.NewReader(bytes.NewReader(raw))); err != nil {
		meta := server.Meta{Method: "-", Path: "-", Version: "-", Connection: "close"}
		h.page(resp, fasthttp.StatusBadRequest, badRequestPage)
		resp.SetConnectionClose()
		return finish(resp, meta)
	}

	meta := server.Meta{
		Method:  string(req.Header.Method()),
		Path:    string(req.URI().Path()),
		Version: string(req.Header.Protocol()),
	}
	if req.Header.ConnectionClose() {
		meta.Connection = "close"
		resp.SetConnectionClose()
	} else {
		meta.Connection = string(req.Header.Peek(fasthttp.HeaderConnection))
	}

	switch {
	case req.Header.IsGet():
	case req.Header.IsHead():
		resp.SkipBody = true
	default:
		resp.Header.Set(fasthttp.HeaderAllow, "GET, HEAD")
		h.page(resp, fasthttp.StatusMethodNotAllowed, methodNotAllowedPage)
		return finish(resp, meta)
	}

	h.serveFile(resp, meta.Path)
	return finish(resp, meta)
}

// serveFile fills resp with the file at urlPath or an error page
func (h *Static) serveFile(resp *fasthttp.Response, urlPath string) {
	full, ok := h.resolve(urlPath)
	if !ok {
		h.page(resp, fasthttp.StatusNotFound, notFoundPage)
		return
	}

	body, err := os.ReadFile(full)
	if err != nil {
		// Missing, unreadable and directories all look the same to the client
		h.page(resp, fasthttp.StatusNotFound, notFoundPage)
		return
	}

	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(full))]
	if !ok {
		h.page(resp, fasthttp.StatusNotFound, unsupportedTypePage)
		return
	}

	resp.SetStatusCode(fasthttp.StatusOK)
	resp.Header.SetContentType(contentType)
	resp.SetBody(body)
}

// resolve maps a URL path to a file below root
func (h *Static) resolve(urlPath string) (string, bool) {
	if urlPath == "" || strings.HasSuffix(urlPath, "/") {
		urlPath += h.index
	}
	clean := path.Clean("/" + urlPath)

	full := filepath.Join(h.root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(h.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}

func (h *Static) page(resp *fasthttp.Response, status int, body string) {
	resp.SetStatusCode(status)
	resp.Header.SetContentType(htmlContentType)
	resp.SetBodyString(body)
}

// finish serializes resp and records the status in meta
func finish(resp *fasthttp.Response, meta server.Meta) ([]byte, server.Meta, error) {
	meta.Status = resp.StatusCode()

	var out bytes.Buffer
	if _, err := resp.WriteTo(&out); err != nil {
		return nil, meta, fmt.Errorf("handler: failed to write response: %w", err)
	}
	return out.Bytes(), meta, nil
}
