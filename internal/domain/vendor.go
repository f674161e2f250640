package domain

import "github.com/shopspring/decimal"

// ============================================================
// Vendor backend credits
// ============================================================

// Vendor is a backend-credit vendor. Read-only.
type Vendor struct {
	ID                       int64           `json:"id"`
	Code                     string          `json:"code"`
	CompanyName              string          `json:"companyName"`
	Street                   string          `json:"street"`
	City                     string          `json:"city"`
	State                    string          `json:"state"`
	Zipcode                  string          `json:"zipcode"`
	BillingFrequency         string          `json:"billingFrequency"`
	CompanyLongName          string          `json:"companyLongName"`
	CompanyAddress           string          `json:"companyAddress"`
	DiscountThresholdPercent decimal.Decimal `json:"discountThresholdPercent"`
	NormalBuyDiscountPercent decimal.Decimal `json:"normalBuyDiscountPercent"`
	VendorType               string          `json:"vendorType"`
}

// VendorRule is a backend-credit rule of a vendor.
type VendorRule struct {
	ID                         int64            `json:"id"`
	CreditPercent              decimal.Decimal  `json:"creditPercent"`
	Notes                      string           `json:"notes"`
	EffectiveFrom              string           `json:"effectiveFrom"`
	EffectiveTo                string           `json:"effectiveTo,omitempty"`
	ExtraCredit                bool             `json:"extraCredit"`
	FIFOBuyAtDiscountThreshold *decimal.Decimal `json:"fifoBuyAtDiscountThreshold,omitempty"`
	TypeID                     string           `json:"typeId"`
	Value                      string           `json:"value"`
}

// RuleCondition is a sub-condition of a vendor rule.
type RuleCondition struct {
	RuleID int64  `json:"ruleId"`
	TypeID string `json:"typeId"`
	Value  string `json:"value"`
}

// VendorSummary condenses a selected vendor for list headers.
type VendorSummary struct {
	VendorName        string          `json:"vendorName"`
	DefaultPercentage decimal.Decimal `json:"defaultPercentage"`
	RuleCount         int             `json:"ruleCount"`
}

// VendorSelection is everything the credit manager shows once a vendor is picked.
type VendorSelection struct {
	Vendor                Vendor                    `json:"vendor"`
	DefaultPercentage     decimal.Decimal           `json:"defaultPercentage"`
	Rules                 []VendorRule              `json:"rules"`
	Conditions            map[int64][]RuleCondition `json:"conditions"`
	ConditionsUnavailable []int64                   `json:"conditionsUnavailable,omitempty"`
	Summary               VendorSummary             `json:"summary"`
}

// FindVendor returns the vendor with the given id.
func FindVendor(vendors []Vendor, id int64) (*Vendor, bool) {
	for i := range vendors {
		if vendors[i].ID == id {
			return &vendors[i], true
		}
	}
	return nil, false
}
