package vendorapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const (
	listBundlesPath = "/api/ItemBundleAPI/GetItemBundle"
	saveBundlePath  = "/api/ItemBundleAPI/SaveItemBundleAll"
)

// Fixed values the vendor expects on bundle calls.
const (
	bundleItemQuantity     = 1
	bundleDiscountTypeID   = 1
	bundleDiscountAmount   = 0
	bundleListTotalPagesOn = "1"
)

type bundleRow struct {
	BundleID           flexInt     `json:"ITEM_BUNDLE_SEQ_ID"`
	ItemID             flexInt     `json:"ITEM_SEQ_ID"`
	Title              flexString  `json:"TITLE"`
	StatusTypeID       flexInt     `json:"ITEM_STATUS_TYPE_SEQ_ID"`
	Description        flexString  `json:"DESCRIPTION"`
	ImageURL           flexString  `json:"IMAGE_URL"`
	TotalSalePrice     flexDecimal `json:"TOTAL_SALE_PRICE"`
	TotalRetailPrice   flexDecimal `json:"TOTAL_RETAIL_PRICE"`
	BannedUS           flexBool    `json:"FLAG_BANNED_US"`
	TotalSalePriceCA   flexDecimal `json:"TOTAL_SALE_PRICE_CA"`
	TotalRetailPriceCA flexDecimal `json:"TOTAL_RETAIL_PRICE_CA"`
	BannedCA           flexBool    `json:"FLAG_BANNED_CA"`
}

func (r *bundleRow) toDomain() domain.ItemBundle {
	return domain.ItemBundle{
		ID:           int64(r.BundleID),
		ItemID:       int64(r.ItemID),
		Title:        string(r.Title),
		StatusTypeID: int64(r.StatusTypeID),
		Description:  string(r.Description),
		ImageURL:     string(r.ImageURL),
		US: &domain.RegionPricing{
			SalePrice:   r.TotalSalePrice.Decimal(),
			RetailPrice: r.TotalRetailPrice.Decimal(),
			Banned:      bool(r.BannedUS),
		},
		CA: &domain.RegionPricing{
			SalePrice:   r.TotalSalePriceCA.Decimal(),
			RetailPrice: r.TotalRetailPriceCA.Decimal(),
			Banned:      bool(r.BannedCA),
		},
	}
}

type bundleListResponse struct {
	Cursor       []bundleRow          `json:"pCursor"`
	ErrorMessage domain.VendorMessage `json:"P_ERROR_MESSAGE"`
	TotalPages   flexInt              `json:"P_TOTAL_PAGES"`
}

// bundleSavePayload is serialised into the pJson query parameter.
type bundleSavePayload struct {
	BundleID     int64            `json:"ITEM_BUNDLE_SEQ_ID"`
	Name         string           `json:"ITEM_BUNDLE_NAME"`
	Description  string           `json:"ITEM_BUNDLE_DESCRIPTION"`
	ImageURL     string           `json:"ITEM_BUNDLE_IMAGE_URL"`
	CompanyID    int64            `json:"COMPANY_SEQ_ID"`
	EmployeeID   int64            `json:"EMPLOYEE_SEQ_ID"`
	BanCompanyID *int64           `json:"BAN_COMPANY_SEQ_ID"`
	Items        []bundleSaveItem `json:"ITEMS"`
}

type bundleSaveItem struct {
	ItemID         int64 `json:"ITEM_SEQ_ID"`
	Quantity       int   `json:"QUANTITY"`
	DiscountTypeID int   `json:"DISCOUNT_TYPE_SEQ_ID"`
	DiscountAmount int   `json:"DISCOUNT_AMOUNT"`
}

func newBundleSavePayload(s *domain.BundleSave) bundleSavePayload {
	return bundleSavePayload{
		BundleID:    s.BundleID,
		Name:        s.Name,
		Description: s.Description,
		ImageURL:    s.ImageURL,
		CompanyID:   s.Actor.CompanyID,
		EmployeeID:  s.Actor.EmployeeID,
		Items: []bundleSaveItem{{
			ItemID:         s.ItemID,
			Quantity:       bundleItemQuantity,
			DiscountTypeID: bundleDiscountTypeID,
			DiscountAmount: bundleDiscountAmount,
		}},
	}
}

type bundleSaveResponse struct {
	ErrorMessage domain.VendorMessage `json:"P_ERROR_MESSAGE"`
}

// ListBundles fetches one page of item bundles.
func (c *Client) ListBundles(ctx context.Context, token string, page, pageSize int) (*domain.BundlePage, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.ListBundles")
	defer span.End()
	span.SetAttributes(attribute.Int("bundle.page", page), attribute.Int("bundle.page_size", pageSize))

	q := url.Values{}
	q.Set("pPageNumber", strconv.Itoa(page))
	q.Set("pPageSize", strconv.Itoa(pageSize))
	q.Set("pReturnTotalPages", bundleListTotalPagesOn)

	var resp bundleListResponse
	err := c.fetchJSON(ctx, request{
		operation: "list_bundles",
		method:    http.MethodGet,
		path:      listBundlesPath,
		query:     q,
		token:     token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if res := domain.AccessResult(resp.ErrorMessage); !res.Accepted {
		return nil, &domain.ErrVendorRejected{Operation: "bundle list", Message: res.Message}
	}

	bundles := make([]domain.ItemBundle, 0, len(resp.Cursor))
	for i := range resp.Cursor {
		bundles = append(bundles, resp.Cursor[i].toDomain())
	}
	return &domain.BundlePage{
		Bundles:    bundles,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(resp.TotalPages),
	}, nil
}

// SaveBundle writes a bundle. The result is the interpreted P_ERROR_MESSAGE of the answer.
func (c *Client) SaveBundle(ctx context.Context, token string, save *domain.BundleSave) (domain.Result, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.SaveBundle")
	defer span.End()
	span.SetAttributes(attribute.Int64("bundle.id", save.BundleID))

	payload, err := json.Marshal(newBundleSavePayload(save))
	if err != nil {
		return domain.Result{}, fmt.Errorf("encode bundle payload: %w", err)
	}
	q := url.Values{}
	q.Set("pJson", string(payload))

	var resp bundleSaveResponse
	err = c.fetchJSON(ctx, request{
		operation: "save_bundle",
		method:    http.MethodPost,
		path:      saveBundlePath,
		query:     q,
		token:     token,
	}, &resp)
	if err != nil {
		return domain.Result{}, err
	}

	res := domain.SaveResult(resp.ErrorMessage)
	span.SetAttributes(attribute.Bool("bundle.accepted", res.Accepted))
	return res, nil
}
