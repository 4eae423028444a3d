// Package client is the consumer side of the HTTP API: a typed client with
// an offline fallback for catalog reads, the cart, the persisted session
// and route gating.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"medifinder/m/domain"
	"medifinder/m/internal/catalog"
	"medifinder/m/internal/identity"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Label   string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Label != "" {
		return e.Label
	}
	return http.StatusText(e.Status)
}

type Client struct {
	baseURL  string
	http     *http.Client
	fallback []domain.PharmacyView
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithFallback replaces the static dataset served when the API is
// unreachable.
func WithFallback(pharmacies []domain.PharmacyView) Option {
	return func(c *Client) { c.fallback = pharmacies }
}

// New returns a client for the API rooted at baseURL, for example
// "http://localhost:3000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		fallback: FallbackPharmacies(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// unavailable reports whether err means the server could not answer, as
// opposed to answering with a client error.
func unavailable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return err != nil
}

// Search queries the catalog. When the API is unreachable the static
// dataset is filtered locally instead.
func (c *Client) Search(ctx context.Context, f catalog.Filters) ([]domain.PharmacyView, error) {
	q := url.Values{}
	if f.Text != "" {
		q.Set("q", f.Text)
	}
	if f.Locality != "" {
		q.Set("loc", f.Locality)
	}
	if f.Insurance != "" {
		q.Set("insurance", f.Insurance)
	}
	path := "/pharmacies"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []domain.PharmacyView
	err := c.do(ctx, http.MethodGet, path, "", nil, &out)
	if unavailable(err) {
		log.Warn().Err(err).Msg("API unavailable, using fallback catalog")
		return FilterPharmacies(c.fallback, f), nil
	}
	return out, err
}

// Pharmacy fetches one pharmacy; found is false for an unknown id.
func (c *Client) Pharmacy(ctx context.Context, id string) (view domain.PharmacyView, found bool, err error) {
	err = c.do(ctx, http.MethodGet, "/pharmacies/"+url.PathEscape(id), "", nil, &view)
	switch {
	case err == nil:
		return view, true, nil
	case unavailable(err):
		log.Warn().Err(err).Str("pharmacy", id).Msg("API unavailable, using fallback catalog")
		for _, p := range c.fallback {
			if p.ID == id {
				return p, true, nil
			}
		}
		return domain.PharmacyView{}, false, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return domain.PharmacyView{}, false, nil
	}
	return domain.PharmacyView{}, false, err
}

func (c *Client) Login(ctx context.Context, email, password string) (identity.AuthResult, error) {
	var res identity.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &res)
	return res, err
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (identity.AuthResult, error) {
	var res identity.AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &res)
	return res, err
}

type OrderItem struct {
	PharmacyID string `json:"pharmacyId"`
	MedicineID int64  `json:"medicineId"`
	Quantity   int64  `json:"quantity"`
}

type PlaceOrderRequest struct {
	Items           []OrderItem `json:"items"`
	CustomerName    string      `json:"customerName,omitempty"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
	Delivery        bool        `json:"delivery"`
	DeliveryAddress string      `json:"deliveryAddress,omitempty"`
	PrescriptionRef string      `json:"prescriptionRef,omitempty"`
}

// PlaceOrder submits a checkout. Failures are returned as-is; an
// unreachable server is an error, never a fabricated order.
func (c *Client) PlaceOrder(ctx context.Context, token string, req PlaceOrderRequest) ([]domain.OrderView, error) {
	var out []domain.OrderView
	err := c.do(ctx, http.MethodPost, "/orders", token, req, &out)
	return out, err
}

func (c *Client) MyOrders(ctx context.Context, token string) ([]domain.OrderView, error) {
	var out []domain.OrderView
	err := c.do(ctx, http.MethodGet, "/orders", token, nil, &out)
	return out, err
}

func (c *Client) Stock(ctx context.Context, token string) ([]domain.StockView, error) {
	var out []domain.StockView
	err := c.do(ctx, http.MethodGet, "/dashboard/stock", token, nil, &out)
	return out, err
}

func (c *Client) UpdateStock(ctx context.Context, token string, medicineID, quantity int64, priceRWF float64) ([]domain.StockView, error) {
	var out []domain.StockView
	body := map[string]any{"quantity": quantity, "priceRWF": priceRWF}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/dashboard/stock/%d", medicineID), token, body, &out)
	return out, err
}

func (c *Client) PharmacyOrders(ctx context.Context, token string, status *domain.OrderStatus) ([]domain.OrderView, error) {
	path := "/dashboard/orders"
	if status != nil {
		path += "?status=" + url.QueryEscape(string(*status))
	}
	var out []domain.OrderView
	err := c.do(ctx, http.MethodGet, path, token, nil, &out)
	return out, err
}

func (c *Client) SetOrderStatus(ctx context.Context, token, orderID string, status domain.OrderStatus) ([]domain.OrderView, error) {
	var out []domain.OrderView
	err := c.do(ctx, http.MethodPut, "/dashboard/orders/"+url.PathEscape(orderID)+"/status", token,
		map[string]string{"status": string(status)}, &out)
	return out, err
}

func (c *Client) SetPrescriptionStatus(ctx context.Context, token, orderID string, status domain.PrescriptionStatus) ([]domain.OrderView, error) {
	var out []domain.OrderView
	err := c.do(ctx, http.MethodPut, "/dashboard/orders/"+url.PathEscape(orderID)+"/prescription", token,
		map[string]string{"prescriptionStatus": string(status)}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}
