package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/statsnap/pkg/httputil"
)

// PageStrategy extracts the items of one page and the reference to the next
// page. An empty next ends pagination.
type PageStrategy func(resp *httputil.Response) (items []json.RawMessage, next string, err error)

// LinkHeaderPages reads items from a JSON array body and the next page from
// the Link header (GitHub style). A non-array body is yielded as one item.
func LinkHeaderPages(resp *httputil.Response) ([]json.RawMessage, string, error) {
	next := httputil.ParseLink(resp.Header.Get("Link"))["next"]

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return nil, next, nil
	}
	if body[0] != '[' {
		return []json.RawMessage{json.RawMessage(body)}, next, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, "", fmt.Errorf("decode page: %w", err)
	}
	return items, next, nil
}

// BodyNextPages reads items from itemsField and the next page from the
// body's "next" field (Docker Hub style). A missing itemsField yields no items.
func BodyNextPages(itemsField string) PageStrategy {
	return func(resp *httputil.Response) ([]json.RawMessage, string, error) {
		if !gjson.ValidBytes(resp.Body) {
			return nil, "", fmt.Errorf("decode page: invalid JSON")
		}
		var items []json.RawMessage
		for _, r := range gjson.GetBytes(resp.Body, itemsField).Array() {
			items = append(items, json.RawMessage(r.Raw))
		}
		return items, String(resp.Body, "next", ""), nil
	}
}

// Pager walks a paged collection one item at a time:
//
//	p := client.Paginate("/users/octocat/repos", query, integrations.LinkHeaderPages, 0)
//	for p.Next(ctx) {
//	    item := p.Item()
//	}
//	if err := p.Err(); err != nil { ... }
//
// Pages are fetched lazily through the client's retry policy. A Pager is
// finite and cannot be restarted: once [Pager.Next] returns false it stays
// exhausted. Call [Client.Paginate] again to start over from page one.
type Pager struct {
	client   *Client
	endpoint string
	next     string
	query    url.Values
	strategy PageStrategy
	maxPages int

	page int
	buf  []json.RawMessage
	item json.RawMessage
	err  error
	done bool
}

// Next advances to the next item, fetching the next page when the current one
// is used up. It returns false when the collection is exhausted, the page cap
// is reached, or an error occurred.
func (p *Pager) Next(ctx context.Context) bool {
	if p.done {
		return false
	}
	for len(p.buf) == 0 {
		if p.next == "" || (p.maxPages > 0 && p.page >= p.maxPages) {
			return p.finish(nil)
		}
		if err := p.fetch(ctx); err != nil {
			return p.finish(err)
		}
	}
	p.item, p.buf = p.buf[0], p.buf[1:]
	return true
}

// Item returns the current item. It is only valid after Next returned true.
func (p *Pager) Item() json.RawMessage { return p.item }

// Err returns the error that stopped iteration, if any.
func (p *Pager) Err() error { return p.err }

// Done reports whether the pager is exhausted.
func (p *Pager) Done() bool { return p.done }

// Pages returns the number of pages fetched so far.
func (p *Pager) Pages() int { return p.page }

// All drains the pager into a slice, preserving page order.
func (p *Pager) All(ctx context.Context) ([]json.RawMessage, error) {
	var items []json.RawMessage
	for p.Next(ctx) {
		items = append(items, p.Item())
	}
	return items, p.Err()
}

func (p *Pager) fetch(ctx context.Context) error {
	p.page++
	p.client.logger.Info("fetching page", "page", p.page, "endpoint", p.endpoint)

	req := &httputil.Request{Method: http.MethodGet, Path: p.next}
	if p.page == 1 {
		req.Query = p.query
	}
	resp, err := p.client.exec.Do(ctx, req)
	if err != nil {
		return err
	}
	items, next, err := p.strategy(resp)
	if err != nil {
		return err
	}
	p.buf = items
	p.next = ""
	if next != "" {
		p.next = p.client.exec.Relative(next)
		p.client.logger.Debug("next page", "url", p.next)
	}
	return nil
}

func (p *Pager) finish(err error) bool {
	p.done = true
	p.item = nil
	p.buf = nil
	p.err = err
	return false
}
