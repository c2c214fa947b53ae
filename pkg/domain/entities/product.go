package entities

import (
	"fmt"
	"strings"
)

// Product represents a harvested wood product
type Product string

const (
	Roundwood Product = "irw"
	Fuelwood  Product = "fw"
)

// ParseProduct converts a raw product label into a Product
func ParseProduct(s string) (Product, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "irw", "roundwood", "industrial_roundwood":
		return Roundwood, nil
	case "fw", "fuelwood":
		return Fuelwood, nil
	default:
		return "", fmt.Errorf("invalid product: %q (expected irw or fw)", s)
	}
}

// String method for Product
func (p Product) String() string {
	return string(p)
}

// ConBroad represents the conifers/broadleaves classifier
type ConBroad string

const (
	Conifer   ConBroad = "con"
	Broadleaf ConBroad = "broad"
)

// ParseConBroad converts a raw conifers/broadleaves classifier value into a ConBroad
func ParseConBroad(s string) (ConBroad, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "con", "conifer", "conifers", "c":
		return Conifer, nil
	case "broad", "broadleaf", "broadleaves", "b":
		return Broadleaf, nil
	default:
		return "", fmt.Errorf("invalid conifers_broadleaves value: %q (expected Con or Broad)", s)
	}
}

// String method for ConBroad
func (c ConBroad) String() string {
	return string(c)
}

func (c ConBroad) suffix() string {
	if c == Broadleaf {
		return "b"
	}
	return "c"
}

// ProductCategory is the harvested wood product key that demand and
// allocation rules are joined on, e.g. irw_c or fw_b
type ProductCategory struct {
	Product  Product
	ConBroad ConBroad
}

// NewProductCategory creates a validated ProductCategory
func NewProductCategory(product Product, conBroad ConBroad) (ProductCategory, error) {
	if product != Roundwood && product != Fuelwood {
		return ProductCategory{}, fmt.Errorf("invalid product: %q", product)
	}
	if conBroad != Conifer && conBroad != Broadleaf {
		return ProductCategory{}, fmt.Errorf("invalid conifers_broadleaves value: %q", conBroad)
	}
	return ProductCategory{Product: product, ConBroad: conBroad}, nil
}

// ParseProductCategory parses the hwp column format (irw_c, irw_b, fw_c, fw_b)
func ParseProductCategory(s string) (ProductCategory, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	idx := strings.LastIndex(raw, "_")
	if idx <= 0 || idx == len(raw)-1 {
		return ProductCategory{}, fmt.Errorf("invalid product category: %q (expected irw_c, irw_b, fw_c or fw_b)", s)
	}
	product, err := ParseProduct(raw[:idx])
	if err != nil {
		return ProductCategory{}, fmt.Errorf("invalid product category %q: %w", s, err)
	}
	conBroad, err := ParseConBroad(raw[idx+1:])
	if err != nil {
		return ProductCategory{}, fmt.Errorf("invalid product category %q: %w", s, err)
	}
	return ProductCategory{Product: product, ConBroad: conBroad}, nil
}

// String returns the hwp form of the category
func (c ProductCategory) String() string {
	return string(c.Product) + "_" + c.ConBroad.suffix()
}

// FuelwoodCoProduct returns the category that receives the sub-merchantable
// and snag pools harvested alongside this category
func (c ProductCategory) FuelwoodCoProduct() ProductCategory {
	return ProductCategory{Product: Fuelwood, ConBroad: c.ConBroad}
}
