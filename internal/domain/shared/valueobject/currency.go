package valueobject

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	IDR Currency = "IDR" // Indonesian Rupiah (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the default currency for hospital settings
const DefaultCurrency = IDR

// IsValid checks if the currency is one of the supported codes
func (c Currency) IsValid() bool {
	switch c {
	case IDR, USD, EUR:
		return true
	}
	return false
}

// Symbol returns the display symbol for the currency
func (c Currency) Symbol() string {
	switch c {
	case IDR:
		return "Rp"
	case USD:
		return "$"
	case EUR:
		return "€"
	}
	return string(c)
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}
