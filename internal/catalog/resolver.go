package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductInactive  = errors.New("product is not available for sale")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrCurrencyMismatch = errors.New("cart mixes currencies")
)

// ItemError identifies which line of a checkout failed to resolve.
type ItemError struct {
	ProductID string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s: %v", e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// LineInput is a (productID, quantity) pair from the visitor's cart. Any
// price the client believes it has is ignored.
type LineInput struct {
	ProductID string
	Quantity  int
}

type ResolvedItem struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
	LineTotal int64
	Digital   bool
}

// Snapshot is the authoritative, server-resolved view of a cart at a single
// instant, immune to client-side tampering.
type Snapshot struct {
	Items            []ResolvedItem
	Total            int64
	Currency         string
	RequiresShipping bool
	TakenAt          time.Time
}

// Resolver reads authoritative product data at checkout time.
type Resolver struct {
	products store.ProductCatalog
}

func NewResolver(products store.ProductCatalog) *Resolver {
	return &Resolver{products: products}
}

// Resolve maps every input line to authoritative price, name and shipping
// classification. Resolution is all-or-nothing: the first failing item aborts
// the whole snapshot with an ItemError naming it.
func (r *Resolver) Resolve(ctx context.Context, inputs []LineInput) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: time.Now()}

	for _, in := range inputs {
		if in.Quantity < 1 {
			return nil, &ItemError{ProductID: in.ProductID, Err: ErrInvalidQuantity}
		}

		p, err := r.products.Get(ctx, in.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ItemError{ProductID: in.ProductID, Err: ErrProductNotFound}
		}
		if err != nil {
			return nil, fmt.Errorf("resolve product %s: %w", in.ProductID, err)
		}
		if !p.Active {
			return nil, &ItemError{ProductID: in.ProductID, Err: ErrProductInactive}
		}

		if snap.Currency == "" {
			snap.Currency = p.Currency
		} else if snap.Currency != p.Currency {
			return nil, &ItemError{ProductID: in.ProductID, Err: ErrCurrencyMismatch}
		}

		item := ResolvedItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  in.Quantity,
			UnitPrice: p.UnitPrice,
			LineTotal: p.UnitPrice * int64(in.Quantity),
			Digital:   p.Digital,
		}
		snap.Items = append(snap.Items, item)
		snap.Total += item.LineTotal
		if !p.Digital {
			snap.RequiresShipping = true
		}
	}

	return snap, nil
}
