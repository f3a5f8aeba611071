package wishlist

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"storefront-engine/internal/model"
)

// PriceFormatter renders minor-unit amounts for display.
type PriceFormatter interface {
	FormatPrice(cents int64) string
}

// PriceFormatterFunc adapts a function to PriceFormatter.
type PriceFormatterFunc func(cents int64) string

func (f PriceFormatterFunc) FormatPrice(cents int64) string { return f(cents) }

// DefaultPriceFormatter is the fallback: a fixed two-decimal amount.
var DefaultPriceFormatter PriceFormatter = PriceFormatterFunc(model.FormatCents)

// CurrencyFormatter formats amounts with the currency symbol for a locale,
// rounded to the currency's standard scale.
type CurrencyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewCurrencyFormatter builds a formatter for an ISO 4217 code and a BCP 47
// locale tag.
func NewCurrencyFormatter(code, locale string) (*CurrencyFormatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &CurrencyFormatter{unit: unit, printer: message.NewPrinter(tag)}, nil
}

func (f *CurrencyFormatter) FormatPrice(cents int64) string {
	amount := f.unit.Amount(float64(cents) / 100)
	return f.printer.Sprint(currency.Symbol(amount))
}
