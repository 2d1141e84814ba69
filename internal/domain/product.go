package domain

import "github.com/shopspring/decimal"

// Product is a catalog item of the shop.
type Product struct {
	Entity

	ProductNumber     string
	Name              string
	ShortDescription  string
	Description       string
	Manufacturer      string
	EssentialFeatures string
	EAN               string
	TaxClass          string
	ForSale           bool
	Visible           bool
	PriceInfo         PriceInfo
	Images            []Image
	CategoryIDs       []string
	Links             []Link
}

// ProductSchema maps Product onto the products resource. PUT is not offered
// by the platform for products.
var ProductSchema = &Schema[Product]{
	Path:    "products",
	Methods: MethodSet{MethodGet, MethodPost, MethodPatch, MethodDelete},
	New:     func() *Product { return &Product{} },
	Base:    func(p *Product) *Entity { return &p.Entity },
	Fields: []Field[Product]{
		Attr("productNumber", func(p *Product) *string { return &p.ProductNumber }).AsCreatable(),
		Attr("name", func(p *Product) *string { return &p.Name }).AsCreatable(),
		Attr("shortDescription", func(p *Product) *string { return &p.ShortDescription }).AsCreatable(),
		Attr("description", func(p *Product) *string { return &p.Description }).AsCreatable(),
		Attr("manufacturer", func(p *Product) *string { return &p.Manufacturer }).AsCreatable(),
		Attr("essentialFeatures", func(p *Product) *string { return &p.EssentialFeatures }).AsCreatable(),
		Attr("ean", func(p *Product) *string { return &p.EAN }).AsCreatable(),
		Attr("taxClass", func(p *Product) *string { return &p.TaxClass }).AsCreatable(),
		Attr("forSale", func(p *Product) *bool { return &p.ForSale }).AsCreatable(),
		Attr("visible", func(p *Product) *bool { return &p.Visible }),
		Attr("priceInfo", func(p *Product) *PriceInfo { return &p.PriceInfo }).AsCreatable(),
		Attr("images", func(p *Product) *[]Image { return &p.Images }),
		Attr("categoryIds", func(p *Product) *[]string { return &p.CategoryIDs }),
		Attr("links", func(p *Product) *[]Link { return &p.Links }),
	},
}

// NewProduct returns an unsaved product.
func NewProduct(productNumber, name string) *Product {
	p := &Product{}
	p.SetProductNumber(productNumber)
	p.SetName(name)
	return p
}

func (p *Product) SetProductNumber(v string) { assign(&p.Entity, "productNumber", &p.ProductNumber, v) }
func (p *Product) SetName(v string)          { assign(&p.Entity, "name", &p.Name, v) }
func (p *Product) SetShortDescription(v string) {
	assign(&p.Entity, "shortDescription", &p.ShortDescription, v)
}
func (p *Product) SetDescription(v string)  { assign(&p.Entity, "description", &p.Description, v) }
func (p *Product) SetManufacturer(v string) { assign(&p.Entity, "manufacturer", &p.Manufacturer, v) }
func (p *Product) SetEssentialFeatures(v string) {
	assign(&p.Entity, "essentialFeatures", &p.EssentialFeatures, v)
}
func (p *Product) SetEAN(v string)      { assign(&p.Entity, "ean", &p.EAN, v) }
func (p *Product) SetTaxClass(v string) { assign(&p.Entity, "taxClass", &p.TaxClass, v) }
func (p *Product) SetForSale(v bool)    { assign(&p.Entity, "forSale", &p.ForSale, v) }
func (p *Product) SetVisible(v bool)    { assign(&p.Entity, "visible", &p.Visible, v) }

// SetPrice replaces the product's main price, keeping the other price parts.
func (p *Product) SetPrice(amount decimal.Decimal, currency, taxType string) {
	info := p.PriceInfo
	info.Price = Price{Amount: amount, Currency: currency, TaxType: taxType}
	assign(&p.Entity, "priceInfo", &p.PriceInfo, info)
}

// Image returns the first image with the given classifier.
func (p *Product) Image(classifier string) (Image, bool) {
	for _, img := range p.Images {
		if img.Classifier == classifier {
			return img, true
		}
	}
	return Image{}, false
}
