// Package fakturownia is the HTTP client for the invoicing SaaS. It lists
// and mirrors client/invoice rows and reads/writes the tag-laden note
// fields verbatim: no trimming, no escaping, the stored string is the
// protocol.
package fakturownia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"windykator/internal/common"
	"windykator/internal/models"
)

const defaultPerPage = 100

// Client talks to one Fakturownia account.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewClient builds a Client for the given account. rateLimitRPS bounds all
// outbound calls; writes additionally retry with backoff.
func NewClient(baseURL, apiToken string, rateLimitRPS int) *Client {
	return &Client{
		baseURL:    baseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    NewRateLimiter(rateLimitRPS),
	}
}

// GetAllClients pages through the account's client list.
func (c *Client) GetAllClients(ctx context.Context) ([]*models.Client, error) {
	var all []*models.Client
	for page := 1; ; page++ {
		var batch []apiClient
		if err := c.getJSON(ctx, "/clients.json", page, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return all, nil
		}
		for i := range batch {
			all = append(all, batch[i].toModel())
		}
	}
}

// InvoicePage is one page of invoices plus the raw external-send facts
// needed by the sync reconciliation.
type InvoicePage struct {
	Invoices []*models.Invoice
	// ExternalSends maps invoice id to the SaaS's own email delivery time,
	// present only for documents the SaaS reports as already sent.
	ExternalSends map[int64]time.Time
}

// GetAllInvoices pages through the account's invoice list.
func (c *Client) GetAllInvoices(ctx context.Context) (*InvoicePage, error) {
	out := &InvoicePage{ExternalSends: map[int64]time.Time{}}
	for page := 1; ; page++ {
		var batch []apiInvoice
		if err := c.getJSON(ctx, "/invoices.json", page, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return out, nil
		}
		for i := range batch {
			out.Invoices = append(out.Invoices, batch[i].toModel())
			if sent, at := batch[i].SentExternally(); sent {
				out.ExternalSends[batch[i].ID] = at
			}
		}
	}
}

// GetClient fetches a single client row.
func (c *Client) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	var row apiClient
	if err := c.getJSON(ctx, fmt.Sprintf("/clients/%d.json", id), 0, &row); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetInvoice fetches a single invoice row.
func (c *Client) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	var row apiInvoice
	if err := c.getJSON(ctx, fmt.Sprintf("/invoices/%d.json", id), 0, &row); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// UpdateClientNote pushes a rewritten note to the SaaS, the system of
// record. Fails with common.ErrSaaSWrite after retries are exhausted.
func (c *Client) UpdateClientNote(ctx context.Context, id int64, note string) error {
	body := map[string]any{
		"api_token": c.apiToken,
		"client":    map[string]any{"note": note},
	}
	return c.putJSON(ctx, fmt.Sprintf("/clients/%d.json", id), body)
}

// UpdateInvoiceNote pushes a rewritten internal note to the SaaS.
func (c *Client) UpdateInvoiceNote(ctx context.Context, id int64, internalNote string) error {
	body := map[string]any{
		"api_token": c.apiToken,
		"invoice":   map[string]any{"internal_note": internalNote},
	}
	return c.putJSON(ctx, fmt.Sprintf("/invoices/%d.json", id), body)
}

func (c *Client) getJSON(ctx context.Context, path string, page int, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("api_token", c.apiToken)
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(defaultPerPage))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoicing api get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("invoicing api get %s: status %d: %s", path, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) putJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		default:
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
		}
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", common.ErrSaaSWrite, path, err)
	}
	return nil
}
