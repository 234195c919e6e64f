package variants

import (
	"fmt"
	"strings"
)

// Row is one sellable combination in the pricing/inventory table.
type Row struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
	Price   int64    `json:"price"`
	Stock   int      `json:"stock"`
	SKU     string   `json:"sku"`
}

// BuildMatrix validates vs and returns one row per combination in generator order.
//
// Price defaults to the highest option price of the tuple and stock to the lowest,
// since a combination can be sold only as often as its scarcest option allows.
// When every option carries a SKU the row SKU joins them; otherwise it is
// baseSKU followed by the 1-based combination index.
func BuildMatrix(baseSKU string, vs []Variant) ([]Row, error) {
	if err := Validate(vs); err != nil {
		return nil, err
	}
	baseSKU = strings.TrimSpace(baseSKU)

	rows := make([]Row, 0, Count(vs))
	i := 0
	for combo := range Combinations(vs) {
		i++
		keys := make([]string, len(combo))
		labels := make([]string, len(combo))
		skus := make([]string, 0, len(combo))
		row := Row{Options: combo, Stock: combo[0].Stock}
		for j, o := range combo {
			keys[j] = o.Name
			labels[j] = o.label()
			if s := strings.TrimSpace(o.SKU); s != "" {
				skus = append(skus, s)
			}
			row.Price = max(row.Price, o.Price)
			row.Stock = min(row.Stock, o.Stock)
		}
		row.Key = strings.Join(keys, "/")
		row.Label = strings.Join(labels, " / ")
		row.SKU = sequenceSKU(baseSKU, skus, len(combo), i)
		rows = append(rows, row)
	}
	return rows, nil
}

func sequenceSKU(base string, skus []string, axes, n int) string {
	if len(skus) == axes {
		return strings.Join(skus, "-")
	}
	if base == "" {
		return fmt.Sprintf("%03d", n)
	}
	return fmt.Sprintf("%s-%03d", base, n)
}
