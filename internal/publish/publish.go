// engine/internal/publish/publish.go
//
// Listing creation against the target marketplace's REST inventory
// API: upsert the inventory item by SKU, create an offer, publish
// the offer. Token comes from the OS keychain, never from config.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"relist-engine/internal/domain"
)

const (
	inventoryAPI  = "/sell/inventory/v1"
	marketplaceID = "EBAY_US"
)

// ErrAuth marks a rejected or expired API token.
var ErrAuth = errors.New("marketplace auth failed")

// TokenFunc supplies the API bearer token per call so a rotated
// keychain entry takes effect without a restart.
type TokenFunc func() (string, error)

type Publisher struct {
	baseURL string
	token   TokenFunc
	client  *http.Client
}

func New(baseURL string, token TokenFunc) *Publisher {
	return &Publisher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish creates a live listing from a draft. The draft's SKU keys
// the inventory item, so republishing the same product revises it
// instead of duplicating.
func (p *Publisher) Publish(ctx context.Context, draft *domain.ListingDraft) (*domain.ListingRef, error) {
	log.Printf("[publish] creating listing for sku %s", draft.SKU)

	item := inventoryItem(draft)
	if _, err := p.request(ctx, http.MethodPut, inventoryAPI+"/inventory_item/"+draft.SKU, item); err != nil {
		return nil, fmt.Errorf("inventory item: %w", err)
	}

	var offerResp struct {
		OfferID string `json:"offerId"`
	}
	body, err := p.request(ctx, http.MethodPost, inventoryAPI+"/offer", offer(draft))
	if err != nil {
		return nil, fmt.Errorf("offer: %w", err)
	}
	_ = json.Unmarshal(body, &offerResp)
	if offerResp.OfferID == "" {
		return nil, errors.New("offer response missing offerId")
	}

	var pubResp struct {
		ListingID string `json:"listingId"`
	}
	body, err = p.request(ctx, http.MethodPost, inventoryAPI+"/offer/"+offerResp.OfferID+"/publish", nil)
	if err != nil {
		return nil, fmt.Errorf("publish offer: %w", err)
	}
	_ = json.Unmarshal(body, &pubResp)
	if pubResp.ListingID == "" {
		return nil, errors.New("publish response missing listingId")
	}

	log.Printf("[publish] sku %s live as item %s", draft.SKU, pubResp.ListingID)
	return &domain.ListingRef{
		ItemID: pubResp.ListingID,
		URL:    "https://www.ebay.com/itm/" + pubResp.ListingID,
	}, nil
}

func (p *Publisher) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := p.token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Language", "en-US")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", marketplaceID)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: token rejected", ErrAuth)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErrorDetail(raw))
	}
	return raw, nil
}

// apiErrorDetail pulls the error messages out of an API error body,
// falling back to the raw text.
func apiErrorDetail(raw []byte) string {
	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		msgs := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			msgs = append(msgs, e.Message)
		}
		return strings.Join(msgs, "; ")
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func inventoryItem(draft *domain.ListingDraft) map[string]any {
	return map[string]any{
		"sku": draft.SKU,
		"availability": map[string]any{
			"shipToLocationAvailability": map[string]any{
				"quantity": draft.Quantity,
			},
		},
		"condition": mapCondition(draft.Condition),
		"product": map[string]any{
			"title":       draft.Title,
			"description": draft.Description,
			"imageUrls":   draft.ImageURLs,
		},
	}
}

func offer(draft *domain.ListingDraft) map[string]any {
	o := map[string]any{
		"sku":                draft.SKU,
		"marketplaceId":      marketplaceID,
		"format":             "FIXED_PRICE",
		"listingDescription": draft.Description,
		"pricingSummary": map[string]any{
			"price": map[string]any{
				"value":    fmt.Sprintf("%.2f", draft.Price),
				"currency": draft.Currency,
			},
		},
	}
	if draft.CategoryID != "" {
		o["categoryId"] = draft.CategoryID
	}
	return o
}

func mapCondition(condition string) string {
	switch strings.ToLower(condition) {
	case "like new":
		return "LIKE_NEW"
	case "very good":
		return "VERY_GOOD"
	case "good":
		return "GOOD"
	case "acceptable":
		return "ACCEPTABLE"
	case "refurbished":
		return "SELLER_REFURBISHED"
	case "for parts":
		return "FOR_PARTS_OR_NOT_WORKING"
	default:
		return "NEW"
	}
}
