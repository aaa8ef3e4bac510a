package reports

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var copPrinter = message.NewPrinter(language.MustParse("es-CO"))

// FormatCOP renders an amount in Colombian peso convention: dot thousands
// separator, comma decimals, two fixed decimal places.
func FormatCOP(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return copPrinter.Sprintf("$ %v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
