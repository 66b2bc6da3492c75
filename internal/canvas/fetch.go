package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	report_fetch_get_list   = "fetch.get-list"
	report_fetch_get_detail = "fetch.get-detail"
	report_fetch_post       = "fetch.post"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Method string
	Url    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Url, e.Status, e.Body)
}

type navigationLinks struct {
	First   string
	Current string
	Next    string
	Last    string
}

// parseLinkHeader extracts the pagination relations from a `Link` header of the form
// `<url>; rel="current",<url>; rel="next",...`.
func parseLinkHeader(header string) navigationLinks {
	var links navigationLinks
	for _, info := range strings.Split(header, ",") {
		target := strings.Trim(strings.TrimSpace(strings.Split(info, ";")[0]), "<>")
		switch {
		case strings.Contains(info, `rel="first"`):
			links.First = target
		case strings.Contains(info, `rel="current"`):
			links.Current = target
		case strings.Contains(info, `rel="next"`):
			links.Next = target
		case strings.Contains(info, `rel="last"`):
			links.Last = target
		}
	}
	return links
}

// missingParams returns the params whose keys are not already part of the query of rawUrl.
func missingParams(rawUrl string, params url.Values) url.Values {
	if len(params) == 0 {
		return nil
	}
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return params
	}
	existing := parsed.Query()
	out := url.Values{}
	for key, values := range params {
		if _, ok := existing[key]; ok {
			continue
		}
		out[key] = values
	}
	return out
}

func (c Context) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.auth).
		SetHeader("Accept", "application/json")
}

func (c Context) get(ctx context.Context, endpoint string, params url.Values) (*resty.Response, error) {
	res, err := c.request(ctx).
		SetQueryParamsFromValues(missingParams(endpoint, params)).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	if res.IsError() {
		return nil, &StatusError{
			Method: "GET",
			Url:    endpoint,
			Status: res.StatusCode(),
			Body:   res.String(),
		}
	}
	return res, nil
}

// getList fetches every page of a list endpoint by following the `next` relation of the
// `Link` header until the current page is the last one. A response without a `Link`
// header is the whole result.
func (c Context) getList(ctx context.Context, endpoint string, params url.Values) ([]json.RawMessage, error) {
	var out []json.RawMessage

	next := endpoint
	for page := 1; ; page++ {
		res, err := c.get(ctx, next, params)
		if err != nil {
			c.tel.ReportBroken(report_fetch_get_list, err, endpoint, page)
			return nil, err
		}

		var items []json.RawMessage
		err = json.Unmarshal(res.Body(), &items)
		if err != nil {
			err = fmt.Errorf("decode page %d of %s: %w", page, endpoint, err)
			c.tel.ReportBroken(report_fetch_get_list, err)
			return nil, err
		}
		out = append(out, items...)

		header := res.Header().Get("Link")
		if header == "" {
			break
		}
		links := parseLinkHeader(header)
		if links.Current == links.Last || links.Next == "" {
			break
		}
		next = links.Next
	}

	c.tel.ReportDebug("fetched list", endpoint, len(out))
	return out, nil
}

// getPage fetches only the first page of a list endpoint.
func (c Context) getPage(ctx context.Context, endpoint string, params url.Values) ([]json.RawMessage, error) {
	res, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	err = json.Unmarshal(res.Body(), &items)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return items, nil
}

// getDetail fetches a single object and returns its raw bytes.
func (c Context) getDetail(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	res, err := c.get(ctx, endpoint, params)
	if err != nil {
		c.tel.ReportBroken(report_fetch_get_detail, err, endpoint)
		return nil, err
	}
	return res.Body(), nil
}

// post sends a form encoded POST. Unlike get, non-2xx statuses are not turned into
// errors so that callers can decide what a failed send means.
func (c Context) post(ctx context.Context, endpoint string, form url.Values) (*resty.Response, error) {
	res, err := c.request(ctx).
		SetFormDataFromValues(form).
		Post(endpoint)
	if err != nil {
		err = fmt.Errorf("POST %s: %w", endpoint, err)
		c.tel.ReportBroken(report_fetch_post, err)
		return nil, err
	}
	return res, nil
}

func (c Context) endpoint(format string, args ...any) string {
	return c.baseApiUrl + fmt.Sprintf(format, args...)
}

func perPage(n int) url.Values {
	return url.Values{"per_page": {strconv.Itoa(n)}}
}
