// engine/internal/pipeline/pipeline.go
//
// One URL through the conversion pipeline: scrape, compliance,
// convert, price, optionally publish. The executor owns the item's
// ConversionResult and reports stage changes through a callback; it
// never touches job-level state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"relist-engine/internal/compliance"
	"relist-engine/internal/convert"
	"relist-engine/internal/domain"
	"relist-engine/internal/pricing"
	"relist-engine/internal/scrape"
)

// ErrCancelled marks an item stopped by job cancellation, as opposed
// to its own failure.
var ErrCancelled = errors.New("cancelled")

// ErrItemTimeout marks an item that ran past the per-item deadline.
var ErrItemTimeout = errors.New("item timed out")

// Fetcher retrieves a raw product page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// ProductCache short-circuits repeat scrapes of the same canonical
// URL. A nil cache is valid and means every URL is fetched.
type ProductCache interface {
	GetProduct(ctx context.Context, key string) (*domain.ProductRecord, bool)
	SetProduct(ctx context.Context, key string, p *domain.ProductRecord)
}

// Store persists pipeline output. Save failures are logged, never
// fatal to the conversion itself.
type Store interface {
	SaveProduct(ctx context.Context, p *domain.ProductRecord) error
	SaveConversion(ctx context.Context, r *domain.ConversionResult) error
	SavePriceObservation(ctx context.Context, sourceURL string, cost, sellPrice float64) error
}

// Publisher creates the live listing. A nil publisher means draft
// mode: pricing is the last stage and the item completes unpublished.
type Publisher interface {
	Publish(ctx context.Context, draft *domain.ListingDraft) (*domain.ListingRef, error)
}

// Options control one conversion run.
type Options struct {
	Publish   bool
	SellPrice float64 // 0 means solve from the target margin
}

// StepFunc observes stage transitions. May be nil.
type StepFunc func(step domain.Step)

type Executor struct {
	fetcher   Fetcher
	checker   *compliance.Checker
	converter *convert.Converter
	pricer    *pricing.Engine
	cache     ProductCache
	store     Store
	publisher Publisher

	itemTimeout  time.Duration
	targetMargin float64
}

type Deps struct {
	Fetcher   Fetcher
	Checker   *compliance.Checker
	Converter *convert.Converter
	Pricer    *pricing.Engine
	Cache     ProductCache
	Store     Store
	Publisher Publisher
}

func New(d Deps, itemTimeout time.Duration, targetMarginPct float64) *Executor {
	return &Executor{
		fetcher:      d.Fetcher,
		checker:      d.Checker,
		converter:    d.Converter,
		pricer:       d.Pricer,
		cache:        d.Cache,
		store:        d.Store,
		publisher:    d.Publisher,
		itemTimeout:  itemTimeout,
		targetMargin: targetMarginPct,
	}
}

// Run drives one URL to a terminal ConversionResult. The returned
// result is always terminal; errors surface in its Error field, not
// as a second return. Cancellation is honored at stage boundaries:
// the current stage finishes, the next never starts.
func (x *Executor) Run(ctx context.Context, rawURL string, opts Options, onStep StepFunc) *domain.ConversionResult {
	res := &domain.ConversionResult{
		URL:       rawURL,
		Status:    domain.StatusProcessing,
		StartedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, x.itemTimeout)
	defer cancel()

	step := func(s domain.Step) {
		res.Step = s
		if onStep != nil {
			onStep(s)
		}
	}

	if err := x.run(ctx, rawURL, opts, res, step); err != nil {
		// A stage killed mid-flight by the item deadline or a cancel
		// reports the sentinel, not the transport error it died with.
		if cerr := stageCtx(ctx); cerr != nil {
			err = cerr
		}
		res.Status = domain.StatusFailed
		res.Step = domain.StepFailed
		res.Error = err.Error()
	} else {
		res.Status = domain.StatusCompleted
		res.Step = domain.StepComplete
	}
	res.CompletedAt = time.Now().UTC()

	x.persist(res)
	return res
}

func (x *Executor) run(ctx context.Context, rawURL string, opts Options, res *domain.ConversionResult, step StepFunc) error {
	// Scrape
	if err := stageCtx(ctx); err != nil {
		return err
	}
	step(domain.StepScraping)

	scraper, err := scrape.ForURL(rawURL)
	if err != nil {
		return err
	}
	product, err := x.obtainProduct(ctx, scraper, rawURL)
	if err != nil {
		return err
	}
	res.Product = product
	log.Printf("[pipeline] scraped %q ($%.2f) from %s", clip(product.Title, 50), product.Price, product.SourceMarket)

	// Compliance
	if err := stageCtx(ctx); err != nil {
		return err
	}
	step(domain.StepCompliance)

	verdict := x.checker.CheckProduct(product)
	res.Compliance = &verdict
	if verdict.RiskLevel == domain.RiskBlocked {
		return fmt.Errorf("compliance blocked: %s", strings.Join(verdict.Violations, "; "))
	}
	if verdict.RiskLevel == domain.RiskWarning {
		log.Printf("[pipeline] compliance warning for %q: %v", product.Brand, verdict.Violations)
	}

	// Convert
	if err := stageCtx(ctx); err != nil {
		return err
	}
	step(domain.StepConverting)
	res.Draft = x.converter.Convert(product)

	// Price
	if err := stageCtx(ctx); err != nil {
		return err
	}
	step(domain.StepPricing)

	feeCategory := convert.FeeCategory(product.Category)
	sellPrice := opts.SellPrice
	if sellPrice == 0 {
		sellPrice, err = x.pricer.SuggestPrice(product.Price, x.targetMargin, feeCategory)
		if err != nil {
			return err
		}
	}
	res.Draft.Price = sellPrice
	breakdown, err := x.pricer.Breakdown(product.Price, sellPrice, feeCategory)
	if err != nil {
		return err
	}
	res.Profit = &breakdown
	log.Printf("[pipeline] priced %s: cost=$%.2f sell=$%.2f margin=%.1f%%",
		res.Draft.SKU, breakdown.Cost, breakdown.SellPrice, breakdown.MarginPct)

	// Publish
	if opts.Publish && x.publisher != nil {
		if err := stageCtx(ctx); err != nil {
			return err
		}
		step(domain.StepPublishing)

		ref, err := x.publisher.Publish(ctx, res.Draft)
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
		res.Listing = ref
		log.Printf("[pipeline] published %s as item %s", res.Draft.SKU, ref.ItemID)
	}

	return nil
}

// obtainProduct consults the cache before fetching and parsing, and
// fills it after a fresh scrape.
func (x *Executor) obtainProduct(ctx context.Context, scraper scrape.Scraper, rawURL string) (*domain.ProductRecord, error) {
	key := scrape.CanonicalURL(rawURL)
	if x.cache != nil {
		if p, ok := x.cache.GetProduct(ctx, key); ok {
			log.Printf("[pipeline] cache hit for %s", key)
			return p, nil
		}
	}

	page, err := x.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("scraping failed: %w", err)
	}
	product, err := scraper.Parse(page, rawURL)
	if err != nil {
		return nil, err
	}

	if x.cache != nil {
		x.cache.SetProduct(ctx, key, &product)
	}
	if x.store != nil {
		if err := x.store.SaveProduct(ctx, &product); err != nil {
			log.Printf("[pipeline] save product: %v", err)
		}
	}
	return &product, nil
}

// persist writes the terminal result. Uses a fresh context so a
// timed-out item still gets recorded.
func (x *Executor) persist(res *domain.ConversionResult) {
	if x.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := x.store.SaveConversion(ctx, res); err != nil {
		log.Printf("[pipeline] save conversion: %v", err)
	}
	if res.Successful() && res.Profit != nil {
		if err := x.store.SavePriceObservation(ctx, res.URL, res.Profit.Cost, res.Profit.SellPrice); err != nil {
			log.Printf("[pipeline] save price observation: %v", err)
		}
	}
}

// stageCtx translates context state into the pipeline's distinct
// terminal errors at a stage boundary.
func stageCtx(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return ErrItemTimeout
	default:
		return ErrCancelled
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
