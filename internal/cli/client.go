package cli

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

	"magnate/internal/auth"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Signup(ctx context.Context, email, password, companyName string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"email":        email,
		"password":     password,
		"company_name": companyName,
	}, &out, "")
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/auth/logout", token, map[string]any{}, nil, "")
}

func (c *Client) Dashboard(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/dashboard", token, nil, &out, "")
	return out, err
}

func (c *Client) Company(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/company", token, nil, &out, "")
	return out, err
}

func (c *Client) Credit(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/company/credit", token, nil, &out, "")
	return out, err
}

func (c *Client) Shareholders(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/company/shareholders", token, nil, &out, "")
	return out, err
}

func (c *Client) Dilute(ctx context.Context, token string, pct float64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/company/dilute", token, map[string]any{
		"pct": pct,
	}, &out, idem)
	return out, err
}

func (c *Client) Buyback(ctx context.Context, token string, pct float64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/company/buyback", token, map[string]any{
		"pct": pct,
	}, &out, idem)
	return out, err
}

func (c *Client) Dividend(ctx context.Context, token string, pct float64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/company/dividend", token, map[string]any{
		"pct": pct,
	}, &out, idem)
	return out, err
}

func (c *Client) StockSplit(ctx context.Context, token, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/company/split", token, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) ProposeBuy(ctx context.Context, token, shareholderID string, priceMicros int64, lots int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/negotiations/buy", token, map[string]any{
		"shareholder_id": shareholderID,
		"price_micros":   priceMicros,
		"lots":           lots,
	}, &out, idem)
	return out, err
}

func (c *Client) ProposeSell(ctx context.Context, token, shareholderID string, lots int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/negotiations/sell", token, map[string]any{
		"shareholder_id": shareholderID,
		"lots":           lots,
	}, &out, idem)
	return out, err
}

func (c *Client) Negotiation(ctx context.Context, token, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/negotiations/"+url.PathEscape(id), token, nil, &out, "")
	return out, err
}

func (c *Client) AcceptSell(ctx context.Context, token, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/negotiations/"+url.PathEscape(id)+"/accept", token, map[string]any{}, &out, "")
	return out, err
}

func (c *Client) RejectSell(ctx context.Context, token, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/negotiations/"+url.PathEscape(id)+"/reject", token, map[string]any{}, &out, "")
	return out, err
}

func (c *Client) CancelNegotiation(ctx context.Context, token, id string) error {
	return c.jsonRequest(ctx, http.MethodDelete, "/v1/negotiations/"+url.PathEscape(id), token, nil, nil, "")
}

func (c *Client) Targets(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/acquisitions/targets", token, nil, &out, "")
	return out, err
}

func (c *Client) StartAcquisition(ctx context.Context, token string, targetID, offerMicros int64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/acquisitions", token, map[string]any{
		"target_id":    targetID,
		"offer_micros": offerMicros,
	}, &out, idem)
	return out, err
}

func (c *Client) Acquisition(ctx context.Context, token, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/acquisitions/"+url.PathEscape(id), token, nil, &out, "")
	return out, err
}

func (c *Client) RetryAcquisition(ctx context.Context, token, id string, offerMicros int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/acquisitions/"+url.PathEscape(id)+"/retry", token, map[string]any{
		"offer_micros": offerMicros,
	}, &out, "")
	return out, err
}

func (c *Client) CancelAcquisition(ctx context.Context, token, id string) error {
	return c.jsonRequest(ctx, http.MethodDelete, "/v1/acquisitions/"+url.PathEscape(id), token, nil, nil, "")
}

func (c *Client) Subsidiaries(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/subsidiaries", token, nil, &out, "")
	return out, err
}

func (c *Client) InvestSubsidiary(ctx context.Context, token, id, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/subsidiaries/"+url.PathEscape(id)+"/invest", token, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) RestructureSubsidiary(ctx context.Context, token, id, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/subsidiaries/"+url.PathEscape(id)+"/restructure", token, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) SellSubsidiary(ctx context.Context, token, id, mode, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/subsidiaries/"+url.PathEscape(id)+"/sell", token, map[string]any{
		"mode": mode,
	}, &out, idem)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, token string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
