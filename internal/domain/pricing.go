package domain

// Option is a value/label pair for a select input.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PricingOptions is returned by GET /api/pricing/options.
type PricingOptions struct {
	Categories      []Option `json:"categories"`
	PercentageTypes []Option `json:"percentageTypes"`
	RuleTypes       []Option `json:"ruleTypes"`
}

var ruleCategories = []Option{
	{Value: "author", Label: "Author"},
	{Value: "bible_translations", Label: "Bible Translations"},
	{Value: "bible_version", Label: "Bible Version"},
	{Value: "catalog_sections", Label: "Catalog Sections"},
	{Value: "categories", Label: "Categories"},
	{Value: "isbn_13", Label: "ISBN-13"},
	{Value: "item_seq_id", Label: "Item_Seq_ID"},
	{Value: "item_type", Label: "Item Type"},
	{Value: "publisher", Label: "Publisher"},
	{Value: "special", Label: "Special"},
	{Value: "speedy", Label: "Speedy"},
	{Value: "title_keywords", Label: "Title Key Words"},
	{Value: "upc", Label: "UPC"},
}

var percentageTypes = []Option{
	{Value: "flat", Label: "Flat Percentage"},
	{Value: "additive_vendor", Label: "Add Percentage to Vendor Buy Discount"},
	{Value: "additive_publisher", Label: "Add Percentage to Publisher Buy Discount"},
	{Value: "retail_extension", Label: "% of Retail Price Extension"},
}

var ruleTypes = []Option{
	{Value: "keyword", Label: "Keyword"},
	{Value: "category", Label: "Category"},
	{Value: "product", Label: "Product"},
}

// DefaultPricingOptions returns copies of the static option lists.
func DefaultPricingOptions() PricingOptions {
	return PricingOptions{
		Categories:      append([]Option(nil), ruleCategories...),
		PercentageTypes: append([]Option(nil), percentageTypes...),
		RuleTypes:       append([]Option(nil), ruleTypes...),
	}
}
