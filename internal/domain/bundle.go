package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================
// Item bundles
// ============================================================

// RegionPricing holds the sale/retail price and ban flag of a bundle in one region.
type RegionPricing struct {
	SalePrice   decimal.Decimal `json:"salePrice"`
	RetailPrice decimal.Decimal `json:"retailPrice"`
	Banned      bool            `json:"banned"`
}

// Discounted reports whether the retail price is above the sale price.
func (p RegionPricing) Discounted() bool {
	return p.RetailPrice.GreaterThan(p.SalePrice)
}

// MarshalJSON adds the derived "discounted" flag the list view highlights.
func (p RegionPricing) MarshalJSON() ([]byte, error) {
	type plain RegionPricing
	return json.Marshal(struct {
		plain
		Discounted bool `json:"discounted"`
	}{plain(p), p.Discounted()})
}

// ItemBundle is a product bundle as shown in the bundle list.
type ItemBundle struct {
	ID           int64         `json:"id"`
	ItemID       int64         `json:"itemId"`
	Title        string        `json:"title"`
	StatusTypeID int64         `json:"statusTypeId"`
	Description  string        `json:"description"`
	ImageURL     string        `json:"imageUrl"`

	// US and CA are nil when the pricing is not known, e.g. a save that could not be refetched.
	US *RegionPricing `json:"us,omitempty"`
	CA *RegionPricing `json:"ca,omitempty"`
}

// BundlePage is one page of the vendor bundle listing.
type BundlePage struct {
	Bundles    []ItemBundle `json:"bundles"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

// Find returns the bundle with the given id, if present on this page.
func (p *BundlePage) Find(id int64) (*ItemBundle, bool) {
	for i := range p.Bundles {
		if p.Bundles[i].ID == id {
			return &p.Bundles[i], true
		}
	}
	return nil, false
}

// BundleEdit is the body of PUT /api/bundles/{bundleId}. Pricing and ban flags
// are not writable through SaveItemBundleAll and are not part of an edit.
type BundleEdit struct {
	ItemID       int64  `json:"itemId"`
	Title        string `json:"title"`
	StatusTypeID int64  `json:"statusTypeId"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl"`
}

// Validate checks the edit before it is sent to the vendor.
func (e *BundleEdit) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return &ErrValidation{Field: "title", Message: "title is required"}
	}
	if e.ItemID <= 0 {
		return &ErrValidation{Field: "itemId", Message: "item id must be positive"}
	}
	if e.StatusTypeID < 0 {
		return &ErrValidation{Field: "statusTypeId", Message: "status type id must not be negative"}
	}
	return nil
}

// Apply returns bundle id with the edited fields, used when a refetch is not possible.
// Pricing is left unset since the edit never carried it.
func (e *BundleEdit) Apply(id int64) ItemBundle {
	return ItemBundle{
		ID:           id,
		ItemID:       e.ItemID,
		Title:        e.Title,
		StatusTypeID: e.StatusTypeID,
		Description:  e.Description,
		ImageURL:     e.ImageURL,
	}
}

// BundleSave is what gets written to the vendor.
type BundleSave struct {
	BundleID    int64
	ItemID      int64
	Name        string
	Description string
	ImageURL    string
	Actor       Actor
}

// SaveOutcome is the response body of a confirmed bundle save.
type SaveOutcome struct {
	Bundle     ItemBundle `json:"bundle"`
	Reconciled bool       `json:"reconciled"`
	Message    string     `json:"message"`
}
