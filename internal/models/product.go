package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Category is one best-seller listing to walk.
type Category struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ProductRecord is the flat set of attributes read from one product page.
// Every field is best-effort and may be empty.
type ProductRecord struct {
	Category       string   `json:"category"`
	Name           string   `json:"name"`
	Price          string   `json:"price"`
	SaleDiscount   string   `json:"sale_discount"`
	Rating         string   `json:"rating"`
	BestSellerRank string   `json:"best_seller_rank"`
	ShipFrom       string   `json:"ship_from"`
	SoldBy         string   `json:"sold_by"`
	Description    string   `json:"description"`
	UnitsSold      string   `json:"units_sold"`
	Images         []string `json:"images"`
}

var recordFields = []string{
	"category",
	"name",
	"price",
	"sale_discount",
	"rating",
	"best_seller_rank",
	"ship_from",
	"sold_by",
	"description",
	"units_sold",
	"images",
}

// NewProductRecord returns a record for the given category with a non-nil image list.
func NewProductRecord(category string) *ProductRecord {
	return &ProductRecord{
		Category: category,
		Images:   make([]string, 0),
	}
}

// Fields returns the record keys in serialization order.
func (p *ProductRecord) Fields() []string {
	fields := make([]string, len(recordFields))
	copy(fields, recordFields)
	return fields
}

// Row returns the CSV cells in the same order as Fields. Images are encoded
// as a JSON array so the column survives a round trip.
func (p *ProductRecord) Row() []string {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(images)
	encoded := strings.TrimSuffix(buf.String(), "\n")

	return []string{
		p.Category,
		p.Name,
		p.Price,
		p.SaleDiscount,
		p.Rating,
		p.BestSellerRank,
		p.ShipFrom,
		p.SoldBy,
		p.Description,
		p.UnitsSold,
		encoded,
	}
}
