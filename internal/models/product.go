package models

// NA marks a field whose value could not be determined. Record fields are
// always populated; NA stands in for missing data, never an absent key.
const NA = "N/A"

// ProductRecord is one row of scraper output, built once per search-result
// fragment and immutable afterwards.
type ProductRecord struct {
	ProductName string `json:"product_name"`
	BrandName   string `json:"brand_name"`
	PackSize    string `json:"pack_size"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
}

// ProductTable holds records in document order as encountered across pages.
// Repeated products appear multiple times; no deduplication is performed.
type ProductTable []ProductRecord

func (t ProductTable) IsEmpty() bool {
	return len(t) == 0
}

// Columns is the fixed export column order.
func Columns() []string {
	return []string{"Product Name", "Brand Name", "Pack Size", "Price", "Image URL"}
}

// Row returns the record's fields in export column order.
func (r ProductRecord) Row() []string {
	return []string{r.ProductName, r.BrandName, r.PackSize, r.Price, r.ImageURL}
}
