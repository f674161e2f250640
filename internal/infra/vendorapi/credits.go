package vendorapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/voyager-admin-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const (
	listVendorsPath    = "/api/VendorBackendCreditAPI/ListBackendCreditVendors"
	listRulesPath      = "/api/VendorBackendCreditAPI/ListBackendCreditVendorRules"
	listConditionsPath = "/api/VendorBackendCreditAPI/ListBackendCreditVendorRuleConditions"
)

// cursorResponse is the REF_CURSOR envelope of the backend-credit endpoints.
type cursorResponse[T any] struct {
	Cursor       []T                  `json:"REF_CURSOR"`
	ErrorMessage domain.VendorMessage `json:"P_ERROR_MESSAGE"`
}

type vendorRow struct {
	ID                       flexInt     `json:"VENDOR_SEQ_ID"`
	Code                     flexString  `json:"VENDOR_CODE"`
	CompanyName              flexString  `json:"COMPANY_NAME"`
	Street                   flexString  `json:"STREET"`
	City                     flexString  `json:"CITY"`
	State                    flexString  `json:"STATE"`
	Zipcode                  flexString  `json:"ZIPCODE"`
	BillingFrequency         flexString  `json:"BILLING_FREQUENCY"`
	CompanyLongName          flexString  `json:"COMPANY_LONG_NAME"`
	CompanyAddress           flexString  `json:"COMPANY_ADDRESS"`
	DiscountThresholdPercent flexDecimal `json:"DISCOUNT_THRESHOLD_PERCENT"`
	NormalBuyDiscountPercent flexDecimal `json:"NORMAL_BUY_DISCOUNT_PERCENT"`
	VendorType               flexString  `json:"VENDOR_TYPE"`
}

func (r *vendorRow) toDomain() domain.Vendor {
	return domain.Vendor{
		ID:                       int64(r.ID),
		Code:                     string(r.Code),
		CompanyName:              string(r.CompanyName),
		Street:                   string(r.Street),
		City:                     string(r.City),
		State:                    string(r.State),
		Zipcode:                  string(r.Zipcode),
		BillingFrequency:         string(r.BillingFrequency),
		CompanyLongName:          string(r.CompanyLongName),
		CompanyAddress:           string(r.CompanyAddress),
		DiscountThresholdPercent: r.DiscountThresholdPercent.Decimal(),
		NormalBuyDiscountPercent: r.NormalBuyDiscountPercent.Decimal(),
		VendorType:               string(r.VendorType),
	}
}

type ruleRow struct {
	ID                         flexInt         `json:"VENDOR_BACKEND_CREDIT_RULE_SEQ_ID"`
	CreditPercent              flexDecimal     `json:"CREDIT_PERCENT"`
	Notes                      flexString      `json:"NOTES"`
	EffectiveFrom              flexString      `json:"EFFECTIVE_FROM"`
	EffectiveTo                flexString      `json:"EFFECTIVE_TO"`
	ExtraCredit                flexBool        `json:"CREDIT_PERCENT_FLAG_EXTRA"`
	FIFOBuyAtDiscountThreshold optionalDecimal `json:"FIFO_BUY_AT_DISCOUNT_THRESHHOLD"`
	TypeID                     flexString      `json:"TYPE_ID"`
	Value                      flexString      `json:"VALUE"`
}

func (r *ruleRow) toDomain() domain.VendorRule {
	return domain.VendorRule{
		ID:                         int64(r.ID),
		CreditPercent:              r.CreditPercent.Decimal(),
		Notes:                      string(r.Notes),
		EffectiveFrom:              string(r.EffectiveFrom),
		EffectiveTo:                string(r.EffectiveTo),
		ExtraCredit:                bool(r.ExtraCredit),
		FIFOBuyAtDiscountThreshold: r.FIFOBuyAtDiscountThreshold.value,
		TypeID:                     string(r.TypeID),
		Value:                      string(r.Value),
	}
}

type conditionRow struct {
	RuleID flexInt    `json:"VENDOR_BACKEND_CREDIT_RULE_SEQ_ID"`
	TypeID flexString `json:"TYPE_ID"`
	Value  flexString `json:"VALUE"`
}

// listCursor fetches a REF_CURSOR endpoint and converts each row.
func listCursor[T, D any](ctx context.Context, c *Client, req request, convert func(*T) D) ([]D, error) {
	var resp cursorResponse[T]
	if err := c.fetchJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if res := domain.ReadResult(resp.ErrorMessage); !res.Accepted {
		return nil, &domain.ErrVendorRejected{Operation: req.operation, Message: res.Message}
	}

	out := make([]D, 0, len(resp.Cursor))
	for i := range resp.Cursor {
		out = append(out, convert(&resp.Cursor[i]))
	}
	return out, nil
}

// ListVendors fetches all backend-credit vendors.
func (c *Client) ListVendors(ctx context.Context, token string) ([]domain.Vendor, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.ListVendors")
	defer span.End()

	return listCursor(ctx, c, request{
		operation: "list_vendors",
		method:    http.MethodGet,
		path:      listVendorsPath,
		token:     token,
	}, (*vendorRow).toDomain)
}

// ListVendorRules fetches the backend-credit rules of a vendor.
func (c *Client) ListVendorRules(ctx context.Context, token string, vendorID int64) ([]domain.VendorRule, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.ListVendorRules")
	defer span.End()
	span.SetAttributes(attribute.Int64("vendor.id", vendorID))

	q := url.Values{}
	q.Set("pVendorSeqId", strconv.FormatInt(vendorID, 10))

	return listCursor(ctx, c, request{
		operation: "list_vendor_rules",
		method:    http.MethodGet,
		path:      listRulesPath,
		query:     q,
		token:     token,
	}, (*ruleRow).toDomain)
}

// ListRuleConditions fetches the sub-conditions of one rule.
// Rows without a rule id are attributed to ruleID.
func (c *Client) ListRuleConditions(ctx context.Context, token string, vendorID, ruleID int64) ([]domain.RuleCondition, error) {
	ctx, span := tracer.Start(ctx, "VendorAPI.ListRuleConditions")
	defer span.End()
	span.SetAttributes(attribute.Int64("vendor.id", vendorID), attribute.Int64("rule.id", ruleID))

	q := url.Values{}
	q.Set("pVendorSeqId", strconv.FormatInt(vendorID, 10))
	q.Set("pVendorBackendCreditRuleSeqId", strconv.FormatInt(ruleID, 10))

	return listCursor(ctx, c, request{
		operation: "list_rule_conditions",
		method:    http.MethodGet,
		path:      listConditionsPath,
		query:     q,
		token:     token,
	}, func(r *conditionRow) domain.RuleCondition {
		id := int64(r.RuleID)
		if id == 0 {
			id = ruleID
		}
		return domain.RuleCondition{RuleID: id, TypeID: string(r.TypeID), Value: string(r.Value)}
	})
}
