package domain

import "time"

// RiskLevel grades a compliance verdict.
type RiskLevel string

const (
	RiskClear   RiskLevel = "clear"
	RiskWarning RiskLevel = "warning"
	RiskBlocked RiskLevel = "blocked"
)

// ComplianceVerdict is the outcome of checking a product against the
// restricted brand/keyword ruleset. A blocked verdict is terminal for
// the item: the pipeline never converts or publishes it.
type ComplianceVerdict struct {
	IsCompliant bool      `json:"is_compliant"`
	Brand       string    `json:"brand"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Violations  []string  `json:"violations"`
}

// ListingDraft is a prepared listing derived deterministically from a
// ProductRecord. No network access is involved in producing one.
type ListingDraft struct {
	Title       string   `json:"title"` // <= 80 chars
	Description string   `json:"description_html"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	ImageURLs   []string `json:"image_urls"` // <= 12
	CategoryID  string   `json:"category_id"`
	Condition   string   `json:"condition"`
	SKU         string   `json:"sku"`
	Quantity    int      `json:"quantity"`
}

// ProfitBreakdown itemizes the economics of selling at SellPrice.
type ProfitBreakdown struct {
	Cost         float64 `json:"cost"`
	SellPrice    float64 `json:"sell_price"`
	MarketFee    float64 `json:"market_fee"`
	PaymentFee   float64 `json:"payment_fee"`
	ShippingCost float64 `json:"shipping_cost"`
	Profit       float64 `json:"profit"`
	MarginPct    float64 `json:"margin_pct"`
}

// TotalFees is the sum of every fee component.
func (b ProfitBreakdown) TotalFees() float64 {
	return b.MarketFee + b.PaymentFee + b.ShippingCost
}

// ListingRef points at a published listing on the target marketplace.
type ListingRef struct {
	ItemID string `json:"item_id"`
	URL    string `json:"url,omitempty"`
}

// ConversionStatus is the lifecycle status of one conversion.
type ConversionStatus string

const (
	StatusPending    ConversionStatus = "pending"
	StatusProcessing ConversionStatus = "processing"
	StatusCompleted  ConversionStatus = "completed"
	StatusFailed     ConversionStatus = "failed"
)

// Step names the active pipeline stage of a conversion.
type Step string

const (
	StepScraping   Step = "scraping"
	StepCompliance Step = "compliance"
	StepConverting Step = "converting"
	StepPricing    Step = "pricing"
	StepPublishing Step = "publishing"
	StepComplete   Step = "complete"
	StepFailed     Step = "failed"
)

// ConversionResult aggregates everything one pipeline run produced.
// It is created at start, mutated by the owning executor as stages
// complete, and frozen once Status goes terminal. Stages that ran
// before a publish failure keep their data attached.
type ConversionResult struct {
	URL         string             `json:"url"`
	Status      ConversionStatus   `json:"status"`
	Step        Step               `json:"step"`
	Product     *ProductRecord     `json:"product,omitempty"`
	Compliance  *ComplianceVerdict `json:"compliance,omitempty"`
	Draft       *ListingDraft      `json:"draft,omitempty"`
	Profit      *ProfitBreakdown   `json:"profit,omitempty"`
	Listing     *ListingRef        `json:"listing,omitempty"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at,omitzero"`
}

// Successful reports whether the run reached completed.
func (r *ConversionResult) Successful() bool {
	return r.Status == StatusCompleted
}

// Terminal reports whether the run is finished, either way.
func (r *ConversionResult) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
