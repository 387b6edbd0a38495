// Package currency renders amounts for notification text. All symbol
// knowledge lives in one table.
package currency

import (
	"fmt"
	"strings"
)

// Default is assumed when a product carries no currency code.
const Default = "RUB"

type symbol struct {
	Sign   string
	Prefix bool // "$12.50" vs "12.50 ₽"
}

var symbols = map[string]symbol{
	"RUB": {Sign: "₽"},
	"USD": {Sign: "$", Prefix: true},
	"EUR": {Sign: "€"},
	"GBP": {Sign: "£", Prefix: true},
	"KZT": {Sign: "₸"},
	"UAH": {Sign: "₴"},
	"BYN": {Sign: "Br"},
	"CNY": {Sign: "¥", Prefix: true},
	"JPY": {Sign: "¥", Prefix: true},
	"INR": {Sign: "₹", Prefix: true},
	"TRY": {Sign: "₺"},
}

// Normalize upper-cases a code and maps empty to Default.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Default
	}
	return code
}

// Symbol returns the display sign for code, or the code itself if unknown.
func Symbol(code string) string {
	code = Normalize(code)
	if s, ok := symbols[code]; ok {
		return s.Sign
	}
	return code
}

// Known reports whether code has a symbol in the table.
func Known(code string) bool {
	_, ok := symbols[Normalize(code)]
	return ok
}

// Format renders amount with two decimals and the currency sign on the
// conventional side.
func Format(amount float64, code string) string {
	code = Normalize(code)
	s, ok := symbols[code]
	if !ok {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	if s.Prefix {
		return fmt.Sprintf("%s%.2f", s.Sign, amount)
	}
	return fmt.Sprintf("%.2f %s", amount, s.Sign)
}
