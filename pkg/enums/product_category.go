package enums

import "fmt"

// ProductCategory groups products by printable garment type.
type ProductCategory string

const (
	ProductCategoryTShirt     ProductCategory = "TSHIRT"
	ProductCategoryHoodie     ProductCategory = "HOODIE"
	ProductCategorySweatshirt ProductCategory = "SWEATSHIRT"
	ProductCategoryMug        ProductCategory = "MUG"
	ProductCategoryAccessory  ProductCategory = "ACCESSORY"
)

var validProductCategories = []ProductCategory{
	ProductCategoryTShirt,
	ProductCategoryHoodie,
	ProductCategorySweatshirt,
	ProductCategoryMug,
	ProductCategoryAccessory,
}

// String implements fmt.Stringer.
func (p ProductCategory) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
