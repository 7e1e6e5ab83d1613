// Package client talks to the REST backend: offset-paginated list
// fetches and per-item mutations. The backend is a black box; this
// package only shapes requests and classifies responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avencourt/listflow/pkg/api"
)

// DefaultTimeout bounds every request issued by the engine.
const DefaultTimeout = 30 * time.Second

// Client implements the Fetcher and Persister collaborator surfaces
// over HTTP for one resource (e.g. "selections", "schemes").
type Client struct {
	base     string
	resource string
	http     *http.Client
}

// New builds a client for baseURL/resource. timeout <= 0 uses the
// default.
func New(baseURL, resource string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:     strings.TrimRight(baseURL, "/"),
		resource: strings.Trim(resource, "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Items      []api.Item `json:"items"`
	HasMore    bool       `json:"has_more"`
	NextOffset int        `json:"next_offset"`
}

// FetchPage fetches one page: GET <resource>?filters..&limit&offset.
func (c *Client) FetchPage(ctx context.Context, fs api.FilterSet, limit, offset int) (api.Page, error) {
	q := url.Values{}
	for k, v := range fs {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	body, err := c.do(ctx, http.MethodGet, c.base+"/"+c.resource+"?"+q.Encode(), nil)
	if err != nil {
		return api.Page{}, err
	}
	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return api.Page{}, fmt.Errorf("decode list response: %w", err)
	}
	return api.Page{
		Items:  lr.Items,
		Cursor: api.PageCursor{NextOffset: lr.NextOffset, HasMore: lr.HasMore},
	}, nil
}

// SaveField persists one field: PATCH <resource>/<id> {"field": value}.
func (c *Client) SaveField(ctx context.Context, id api.ItemID, field, value string) error {
	payload, _ := json.Marshal(map[string]string{field: value})
	_, err := c.do(ctx, http.MethodPatch, c.itemURL(id), payload)
	return err
}

// SaveItem persists a full record. An item without a locally known
// server id POSTs to the collection; otherwise PATCH <resource>/<id>.
// The canonical record comes back on success (a 204 echoes the input).
func (c *Client) SaveItem(ctx context.Context, it api.Item) (api.Item, error) {
	method := http.MethodPatch
	u := c.itemURL(it.ID)
	wire := it
	if it.ID == "" || api.IsLocalID(it.ID) {
		// Locally generated ids never reach a PATCH route or the wire.
		method = http.MethodPost
		u = c.base + "/" + c.resource
		wire.ID = ""
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return api.Item{}, err
	}
	body, err := c.do(ctx, method, u, payload)
	if err != nil {
		return api.Item{}, err
	}
	if len(body) == 0 {
		return it, nil
	}
	var out api.Item
	if err := json.Unmarshal(body, &out); err != nil {
		return api.Item{}, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

// DeleteItem removes one record: DELETE <resource>/<id>.
func (c *Client) DeleteItem(ctx context.Context, id api.ItemID) error {
	_, err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil)
	return err
}

func (c *Client) itemURL(id api.ItemID) string {
	return c.base + "/" + c.resource + "/" + url.PathEscape(string(id))
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		se := &api.ServerError{Status: resp.StatusCode}
		var ep errorPayload
		if json.Unmarshal(body, &ep) == nil {
			se.Code = ep.Code
			se.Message = ep.Message
		}
		return nil, se
	}
	return body, nil
}
