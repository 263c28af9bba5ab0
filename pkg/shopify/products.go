package shopify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         string
	Title      string
	Handle     string
	MinPrice   decimal.Decimal
	Currency   string
	Metafields []Metafield
}

type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type productNode struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Handle       string `json:"handle"`
	PriceRangeV2 struct {
		MinVariantPrice struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"minVariantPrice"`
	} `json:"priceRangeV2"`
	Metafields struct {
		Nodes []Metafield `json:"nodes"`
	} `json:"metafields"`
}

func (c Client) ListProducts(ctx context.Context, first int) ([]Product, error) {
	if first <= 0 || first > 250 {
		first = 50
	}
	const query = `
query ListProducts($first: Int!) {
  products(first: $first) {
    nodes {
      id
      title
      handle
      priceRangeV2 {
        minVariantPrice { amount currencyCode }
      }
      metafields(first: 10) {
        nodes {
          namespace
          key
          value
          type
        }
      }
    }
  }
}
`
	var data struct {
		Products struct {
			Nodes []productNode `json:"nodes"`
		} `json:"products"`
	}
	if err := c.graphQL(ctx, query, map[string]any{"first": first}, &data); err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(data.Products.Nodes))
	for _, n := range data.Products.Nodes {
		p := Product{
			ID:         n.ID,
			Title:      n.Title,
			Handle:     n.Handle,
			Currency:   n.PriceRangeV2.MinVariantPrice.CurrencyCode,
			Metafields: n.Metafields.Nodes,
		}
		if amt := n.PriceRangeV2.MinVariantPrice.Amount; amt != "" {
			d, err := decimal.NewFromString(amt)
			if err != nil {
				return nil, fmt.Errorf("product %s: invalid price %q: %w", n.ID, amt, err)
			}
			p.MinPrice = d
		}
		out = append(out, p)
	}
	return out, nil
}
