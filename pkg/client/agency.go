package client

import (
	"net/url"
	"strconv"
)

// AgencyClient talks to the agency HTTP API. Admin resources live under
// /api/v1; submissions go to the public routes.
type AgencyClient struct {
	http *HttpClient

	DJs           *ResourceClient
	Venues        *ResourceClient
	Bookings      *ResourceClient
	TradeRequests *ResourceClient
	Inquiries     *ResourceClient
}

func NewAgencyClient(baseURL string) *AgencyClient {
	h := NewHttpClient(baseURL)
	return &AgencyClient{
		http:          h,
		DJs:           &ResourceClient{http: h, base: "/api/v1/djs"},
		Venues:        &ResourceClient{http: h, base: "/api/v1/venues"},
		Bookings:      &ResourceClient{http: h, base: "/api/v1/bookings"},
		TradeRequests: &ResourceClient{http: h, base: "/api/v1/trade-requests"},
		Inquiries:     &ResourceClient{http: h, base: "/api/v1/inquiries"},
	}
}

func (c *AgencyClient) HTTP() *HttpClient {
	return c.http
}

func (c *AgencyClient) SubmitInquiry(body any, idempotencyKey string) (*Response, error) {
	return c.submit("/inquiries", body, idempotencyKey)
}

func (c *AgencyClient) SubmitTradeRequest(body any, idempotencyKey string) (*Response, error) {
	return c.submit("/trade-requests", body, idempotencyKey)
}

func (c *AgencyClient) SubmitBookingRequest(body any, idempotencyKey string) (*Response, error) {
	return c.submit("/booking-requests", body, idempotencyKey)
}

func (c *AgencyClient) DJBySlug(slug string) (*Response, error) {
	return c.http.GET("/api/v1/djs/slug/" + url.PathEscape(slug))
}

func (c *AgencyClient) DJBookings(djID string, limit int, offset int64) (*Response, error) {
	return c.http.GET(withPage("/api/v1/djs/id/"+url.PathEscape(djID)+"/bookings", nil, limit, offset))
}

func (c *AgencyClient) submit(path string, body any, idempotencyKey string) (*Response, error) {
	if idempotencyKey == "" {
		return c.http.POST(path, body)
	}
	return c.http.POSTWithHeaders(path, body, map[string]string{"Idempotency-Key": idempotencyKey})
}

// ResourceClient covers the admin CRUD routes shared by every resource.
type ResourceClient struct {
	http *HttpClient
	base string
}

func (c *ResourceClient) Create(body any) (*Response, error) {
	return c.http.POST(c.base, body)
}

func (c *ResourceClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.http.POSTRaw(c.base, rawBody)
}

// List passes filters as query parameters; empty values are dropped.
func (c *ResourceClient) List(filters map[string]string, limit int, offset int64) (*Response, error) {
	return c.http.GET(withPage(c.base, filters, limit, offset))
}

func (c *ResourceClient) GetByID(id string) (*Response, error) {
	return c.http.GET(c.idPath(id))
}

func (c *ResourceClient) Update(id string, body any) (*Response, error) {
	return c.http.PATCH(c.idPath(id), body)
}

func (c *ResourceClient) UpdateRaw(id string, rawBody []byte) (*Response, error) {
	return c.http.PATCHRaw(c.idPath(id), rawBody)
}

func (c *ResourceClient) SetStatus(id, status string) (*Response, error) {
	return c.http.PATCH(c.idPath(id)+"/status", map[string]string{"status": status})
}

func (c *ResourceClient) Delete(id string) (*Response, error) {
	return c.http.DELETE(c.idPath(id))
}

func (c *ResourceClient) idPath(id string) string {
	return c.base + "/id/" + url.PathEscape(id)
}

func withPage(path string, filters map[string]string, limit int, offset int64) string {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
