package services

import (
	"bytes"
	"context"
	"github.com/PuerkitoBio/goquery"
	"github.com/golang/glog"
	"github.com/shopspring/decimal"
	"strings"
)

// ExtractionStrategy derives a price from one known page layout.
type ExtractionStrategy interface {
	Name() string
	Extract(doc *goquery.Document) (decimal.Decimal, bool)
}

// StatBoxStrategy reads the "Lowest Price" stats widget.
type StatBoxStrategy struct {
	Label      string
	ValueClass string
}

func NewStatBoxStrategy() StatBoxStrategy {
	return StatBoxStrategy{Label: "Lowest Price", ValueClass: "info-stats-number"}
}

func (s StatBoxStrategy) Name() string { return "stat-box" }

func (s StatBoxStrategy) Extract(doc *goquery.Document) (decimal.Decimal, bool) {
	label := doc.Find("div").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		// 允许标签文字包在单个子元素里，例如 <div><span>Lowest Price</span></div>
		if sel.Children().Length() > 1 || sel.Find("div").Length() > 0 {
			return false
		}
		return strings.TrimSpace(sel.Text()) == s.Label
	}).First()
	if label.Length() == 0 {
		return decimal.Decimal{}, false
	}

	value := label.NextAllFiltered("div." + s.ValueClass).First()
	if value.Length() == 0 {
		glog.Warningf("extractor: %q label found without a .%s sibling", s.Label, s.ValueClass)
		return decimal.Decimal{}, false
	}
	price, err := ParsePrice(value.Text())
	if err != nil {
		glog.Warningf("extractor: stat box: %v", err)
		return decimal.Decimal{}, false
	}
	return price, true
}

// TableStrategy 扫描挂单表格，取第二列的最低价
type TableStrategy struct {
	RowSelector string
}

func NewTableStrategy() TableStrategy {
	return TableStrategy{RowSelector: ".games-table tbody tr"}
}

func (s TableStrategy) Name() string { return "table" }

func (s TableStrategy) Extract(doc *goquery.Document) (decimal.Decimal, bool) {
	var (
		lowest decimal.Decimal
		found  bool
	)
	doc.Find(s.RowSelector).Each(func(i int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 2 {
			return
		}
		price, err := ParsePrice(cols.Eq(1).Text())
		if err != nil {
			glog.V(1).Infof("extractor: table row %d skipped: %v", i, err)
			return
		}
		if !found || price.LessThan(lowest) {
			lowest = price
			found = true
		}
	})
	return lowest, found
}

// Extractor fetches a page and tries each strategy in order; the first price wins.
type Extractor struct {
	fetcher    PageFetcher
	strategies []ExtractionStrategy
}

// NewExtractor uses the stat box then the table scan when no strategies are given.
func NewExtractor(fetcher PageFetcher, strategies ...ExtractionStrategy) *Extractor {
	if len(strategies) == 0 {
		strategies = []ExtractionStrategy{NewStatBoxStrategy(), NewTableStrategy()}
	}
	return &Extractor{fetcher: fetcher, strategies: strategies}
}

// Extract never fails: any fetch or parse problem is reported as no price.
func (e *Extractor) Extract(ctx context.Context, url string) (decimal.Decimal, bool) {
	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		glog.Warningf("extractor: %v", err)
		return decimal.Decimal{}, false
	}
	return e.ExtractFromHTML(body)
}

// ExtractFromHTML runs the strategies against an already fetched page body.
func (e *Extractor) ExtractFromHTML(body []byte) (decimal.Decimal, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		glog.Warningf("extractor: parse html: %v", err)
		return decimal.Decimal{}, false
	}
	for _, strategy := range e.strategies {
		if price, ok := strategy.Extract(doc); ok {
			glog.V(1).Infof("extractor: %s strategy found %s", strategy.Name(), price)
			return price, true
		}
	}
	return decimal.Decimal{}, false
}
