package dispatcharr

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/Digital-Shane/vod2strm/internal/media"
)

// page is one decoded list response.
type page struct {
	items []json.RawMessage
	count int
	// more is true when the response says another page exists.
	more bool
	// hasNext reports whether the response carried a "next" field at all.
	hasNext bool
}

// decodePage accepts a bare array or an object wrapping the items in
// "results", "data" or "items", with optional "count" and "next".
func decodePage(body []byte) (page, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return page{items: list}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return page{}, errors.New("response is neither a list nor an object")
	}

	p := page{}
	for _, key := range []string{"results", "data", "items"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
			p.items = items
			break
		}
	}
	if raw, ok := obj["count"]; ok {
		var count media.FlexInt
		if err := json.Unmarshal(raw, &count); err == nil {
			p.count = int(count)
		}
	}
	if raw, ok := obj["next"]; ok {
		p.hasNext = true
		var next any
		if err := json.Unmarshal(raw, &next); err == nil {
			switch v := next.(type) {
			case string:
				p.more = v != ""
			case bool:
				p.more = v
			case float64:
				p.more = v > 0
			}
		}
	}
	return p, nil
}

// Paginate walks page/page_size pages of path until the service reports no
// more data or limit items are collected. Items gathered before an error are
// returned alongside it.
func (c *Client) Paginate(ctx context.Context, path string, query url.Values, limit int) ([]json.RawMessage, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page_size", strconv.Itoa(c.pageSize))

	var all []json.RawMessage
	for pageNum := 1; ; pageNum++ {
		q.Set("page", strconv.Itoa(pageNum))
		body, err := c.Get(ctx, path, q)
		if err != nil {
			return all, err
		}
		p, err := decodePage(body)
		if err != nil {
			return all, err
		}
		if len(p.items) == 0 {
			break
		}

		all = append(all, p.items...)
		c.logger.Debug("fetched page", "path", path, "page", pageNum, "items", len(p.items), "total", len(all))
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}

		switch {
		case p.hasNext:
			if !p.more {
				return all, nil
			}
		case p.count > 0:
			if len(all) >= p.count {
				return all, nil
			}
		default:
			if len(p.items) < c.pageSize {
				return all, nil
			}
		}
	}
	return all, nil
}
