package models

const (
	PurchaseTypeSingle = "single"
	PurchaseTypeBundle = "bundle"
	PurchaseTypeMega   = "mega"
)

// TokenPackage is a purchasable pack of paint tokens. PriceTON is the
// full pack price; the per-token value is PriceTON / Tokens.
type TokenPackage struct {
	Type     string  `json:"type"`
	Tokens   int     `json:"tokens"`
	PriceTON float64 `json:"price_ton"`
}

// TokenPackages is the purchase catalog. Bundle works out to 0.002 TON
// per token; mega carries a volume discount.
var TokenPackages = map[string]TokenPackage{
	PurchaseTypeSingle: {Type: PurchaseTypeSingle, Tokens: 1, PriceTON: 0.002},
	PurchaseTypeBundle: {Type: PurchaseTypeBundle, Tokens: 10, PriceTON: 0.02},
	PurchaseTypeMega:   {Type: PurchaseTypeMega, Tokens: 50, PriceTON: 0.09},
}

func LookupPackage(purchaseType string) (TokenPackage, bool) {
	p, ok := TokenPackages[purchaseType]
	return p, ok
}

func IsValidPurchaseType(t string) bool {
	_, ok := TokenPackages[t]
	return ok
}
