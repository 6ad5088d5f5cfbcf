// Package enrichedorder wraps a domain.Order and pre-parses its
// JSON-bearing fields once, so that fitness evaluations which inspect
// color/material sets O(N) times per GA generation don't pay a JSON
// parsing cost on every lookup.
package enrichedorder

import (
	"encoding/json"
	"fmt"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

// Enriched wraps an order with pre-parsed color/material sets and the
// customer id, tolerating malformed JSON by treating it as empty.
type Enriched struct {
	Order      *domain.Order
	Colors     map[string]struct{}
	Materials  map[string]struct{}
	CustomerID interface{} // opaque, comparable by equality; nil if absent/malformed
}

// New parses order's JSON fields into native sets, swallowing parse
// errors into empty containers so fitness evaluation stays total.
func New(order *domain.Order) *Enriched {
	e := &Enriched{
		Order:     order,
		Colors:    map[string]struct{}{},
		Materials: map[string]struct{}{},
	}

	if order.ColorsJSON != "" {
		var colors []string
		if err := json.Unmarshal([]byte(order.ColorsJSON), &colors); err == nil {
			for _, c := range colors {
				e.Colors[c] = struct{}{}
			}
		}
	}

	if order.MaterialsJSON != "" {
		var materials []string
		if err := json.Unmarshal([]byte(order.MaterialsJSON), &materials); err == nil {
			for _, m := range materials {
				e.Materials[m] = struct{}{}
			}
		}
	}

	if order.CustomerDataJSON != "" {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(order.CustomerDataJSON), &data); err == nil {
			if cid, ok := data["customer_id"]; ok {
				e.CustomerID = cid
			}
		}
	}

	return e
}

// NumColors returns the number of distinct color tokens on the order.
func (e *Enriched) NumColors() int {
	return len(e.Colors)
}

// MaterialsEqual reports whether two enriched orders share the same
// material set.
func MaterialsEqual(a, b *Enriched) bool {
	if len(a.Materials) != len(b.Materials) {
		return false
	}
	for m := range a.Materials {
		if _, ok := b.Materials[m]; !ok {
			return false
		}
	}
	return true
}

// ColorDiff returns the colors present in a but not in b (a set
// difference), used for computing ink removal/addition costs.
func ColorDiff(a, b *Enriched) map[string]struct{} {
	diff := map[string]struct{}{}
	for c := range a.Colors {
		if _, ok := b.Colors[c]; !ok {
			diff[c] = struct{}{}
		}
	}
	return diff
}

// ColorIntersect returns the colors shared by both a and b.
func ColorIntersect(a, b *Enriched) map[string]struct{} {
	inter := map[string]struct{}{}
	for c := range a.Colors {
		if _, ok := b.Colors[c]; ok {
			inter[c] = struct{}{}
		}
	}
	return inter
}

// SameCustomer reports whether both enriched orders carry a non-nil,
// equal customer id. customer_id is expected to be a JSON scalar, but
// customer_data is operator-supplied: an object or array in that
// position is not a comparable Go value, so equality falls back to a
// formatted comparison instead of risking a panic on "==".
func SameCustomer(a, b *Enriched) bool {
	if a.CustomerID == nil || b.CustomerID == nil {
		return false
	}
	if comparable(a.CustomerID) && comparable(b.CustomerID) {
		return a.CustomerID == b.CustomerID
	}
	return fmt.Sprintf("%v", a.CustomerID) == fmt.Sprintf("%v", b.CustomerID)
}

// comparable reports whether v's dynamic type supports "==" without
// panicking. json.Unmarshal into interface{} only ever produces
// map[string]interface{} and []interface{} as non-comparable shapes.
func comparable(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return false
	default:
		return true
	}
}

// Index builds a map from order id to its enriched view.
func Index(orders []*domain.Order) map[int64]*Enriched {
	idx := make(map[int64]*Enriched, len(orders))
	for _, o := range orders {
		idx[o.ID] = New(o)
	}
	return idx
}
