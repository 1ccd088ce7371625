package model

// SizeStock tracks remaining inventory for one size variant.
type SizeStock struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Product represents an item in the catalogue. Sized products track
// inventory per variant in Sizes; unsized products use CountInStock.
type Product struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Price        float64     `json:"price" db:"price"`
	Category     string      `json:"category" db:"category"`
	CountInStock int         `json:"countInStock" db:"count_in_stock"`
	Sizes        []SizeStock `json:"sizes,omitempty" db:"sizes"`
}

// StockFor reports the available stock for the given size, or the
// aggregate count when size is empty or not tracked.
func (p *Product) StockFor(size string) int {
	if size != "" {
		for _, s := range p.Sizes {
			if s.Size == size {
				return s.Quantity
			}
		}
	}
	return p.CountInStock
}
