package model

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
	TWD Currency = "TWD"
	HKD Currency = "HKD"
	GBP Currency = "GBP"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
	SGD Currency = "SGD"
	CNY Currency = "CNY"
)

const (
	// Pivot is the currency every upstream quote is expressed against.
	Pivot = USD
	// Base is the currency the normalized rate table is denominated in.
	Base = TWD
)

// SupportedCurrencies keeps the display order used by the currencies list.
var SupportedCurrencies = []Currency{USD, EUR, JPY, TWD, HKD, GBP, AUD, CAD, SGD, CNY}

var currencySymbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	JPY: "¥",
	TWD: "NT$",
	HKD: "HK$",
	GBP: "£",
	AUD: "A$",
	CAD: "C$",
	SGD: "S$",
	CNY: "¥",
}

// IsSupported reports whether c is one of SupportedCurrencies.
func (c Currency) IsSupported() bool {
	for _, supportedCurrency := range SupportedCurrencies {
		if c == supportedCurrency {
			return true
		}
	}
	return false
}

// Symbol returns the display symbol, or "" for unsupported codes.
func (c Currency) Symbol() string {
	return currencySymbols[c]
}

func (c Currency) String() string {
	return string(c)
}

// SymbolMap returns code -> symbol for every supported currency.
func SymbolMap() map[string]string {
	m := make(map[string]string, len(SupportedCurrencies))
	for _, c := range SupportedCurrencies {
		m[c.String()] = c.Symbol()
	}
	return m
}
