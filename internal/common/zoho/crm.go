// Package zoho is a minimal Zoho CRM v3 client for lead conversion.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

var ErrLeadNotFound = errors.New("zoho: lead not found")

type CRMClient struct {
	apiKey     string
	oauthToken string
	baseURL    string
	httpClient *http.Client
}

type Option func(*CRMClient)

func WithBaseURL(url string) Option {
	return func(c *CRMClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *CRMClient) { c.httpClient = hc }
}

func NewCRMClient(apiKey, oauthToken string, opts ...Option) *CRMClient {
	c := &CRMClient{
		apiKey:     apiKey,
		oauthToken: oauthToken,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertOptions controls what the CRM creates when converting a lead.
type ConvertOptions struct {
	Overwrite       bool   `json:"overwrite"`
	NotifyLeadOwner bool   `json:"notify_lead_owner"`
	NotifyNewEntity bool   `json:"notify_new_entity_owner"`
	AssignTo        string `json:"-"`
}

// ConversionResult holds the ids of the records the conversion produced.
type ConversionResult struct {
	ContactID string
	AccountID string
	DealID    string
}

// recordRef decodes both the v2 form ("123") and the v3 form ({"id":"123"}).
type recordRef string

func (r *recordRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = recordRef(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = recordRef(obj.ID)
	return nil
}

type convertResponse struct {
	Data []struct {
		Contacts recordRef `json:"Contacts"`
		Accounts recordRef `json:"Accounts"`
		Deals    recordRef `json:"Deals"`
		Status   string    `json:"status"`
		Message  string    `json:"message"`
	} `json:"data"`
}

// ConvertLead converts a CRM lead into a contact (and account when the lead
// has a company).
func (c *CRMClient) ConvertLead(ctx context.Context, leadID string, opts ConvertOptions) (*ConversionResult, error) {
	entry := map[string]interface{}{
		"overwrite":               opts.Overwrite,
		"notify_lead_owner":       opts.NotifyLeadOwner,
		"notify_new_entity_owner": opts.NotifyNewEntity,
	}
	if opts.AssignTo != "" {
		entry["assign_to"] = map[string]string{"id": opts.AssignTo}
	}

	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/Leads/%s/actions/convert", leadID),
		map[string]interface{}{"data": []interface{}{entry}})
	if err != nil {
		return nil, err
	}

	var resp convertResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no data in response")
	}

	first := resp.Data[0]
	if first.Status != "" && first.Status != "success" {
		return nil, fmt.Errorf("lead conversion failed: %s", first.Message)
	}

	return &ConversionResult{
		ContactID: string(first.Contacts),
		AccountID: string(first.Accounts),
		DealID:    string(first.Deals),
	}, nil
}

func (c *CRMClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrLeadNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("zoho request failed (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
