package services

import (
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"regexp"
	"strings"
)

var (
	errNegativePrice = errors.New("negative price")
	errPriceFormat   = errors.New("not a plain decimal amount")

	// 只接受普通小数，拒绝 "1e5" 这类指数写法
	plainAmount = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)$`)
)

// ParsePrice 解析 "$1,234.50" 这类带货币格式的价格
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if !plainAmount.MatchString(cleaned) {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", text, errPriceFormat)
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", text, err)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", text, errNegativePrice)
	}
	return price, nil
}
