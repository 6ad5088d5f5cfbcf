package enrichedorder

import (
	"testing"

	"github.com/pinggolf/m3-planning-tools/internal/domain"
)

func TestNewToleratesMalformedJSON(t *testing.T) {
	o := &domain.Order{ID: 1, ColorsJSON: `not json`, MaterialsJSON: `{broken`, CustomerDataJSON: `[1,2`}
	e := New(o)

	if e.NumColors() != 0 {
		t.Errorf("NumColors() = %d, want 0 for malformed JSON", e.NumColors())
	}
	if len(e.Materials) != 0 {
		t.Errorf("len(Materials) = %d, want 0 for malformed JSON", len(e.Materials))
	}
	if e.CustomerID != nil {
		t.Errorf("CustomerID = %v, want nil for malformed JSON", e.CustomerID)
	}
}

func TestColorDiffAndIntersect(t *testing.T) {
	a := New(&domain.Order{ID: 1, ColorsJSON: `["red","blue","green"]`})
	b := New(&domain.Order{ID: 2, ColorsJSON: `["blue","yellow"]`})

	removed := ColorDiff(a, b)
	if _, ok := removed["red"]; !ok || len(removed) != 2 {
		t.Errorf("ColorDiff(a,b) = %v, want {red, green}", removed)
	}

	added := ColorDiff(b, a)
	if _, ok := added["yellow"]; !ok || len(added) != 1 {
		t.Errorf("ColorDiff(b,a) = %v, want {yellow}", added)
	}

	shared := ColorIntersect(a, b)
	if _, ok := shared["blue"]; !ok || len(shared) != 1 {
		t.Errorf("ColorIntersect(a,b) = %v, want {blue}", shared)
	}
}

func TestMaterialsEqual(t *testing.T) {
	a := New(&domain.Order{ID: 1, MaterialsJSON: `["pet","bopp"]`})
	b := New(&domain.Order{ID: 2, MaterialsJSON: `["bopp","pet"]`})
	c := New(&domain.Order{ID: 3, MaterialsJSON: `["pet"]`})

	if !MaterialsEqual(a, b) {
		t.Errorf("MaterialsEqual(a,b) = false, want true (order-independent set equality)")
	}
	if MaterialsEqual(a, c) {
		t.Errorf("MaterialsEqual(a,c) = true, want false")
	}
}

func TestSameCustomer(t *testing.T) {
	a := New(&domain.Order{ID: 1, CustomerDataJSON: `{"customer_id":42}`})
	b := New(&domain.Order{ID: 2, CustomerDataJSON: `{"customer_id":42}`})
	c := New(&domain.Order{ID: 3, CustomerDataJSON: `{"customer_id":43}`})
	d := New(&domain.Order{ID: 4})

	if !SameCustomer(a, b) {
		t.Errorf("SameCustomer(a,b) = false, want true")
	}
	if SameCustomer(a, c) {
		t.Errorf("SameCustomer(a,c) = true, want false")
	}
	if SameCustomer(a, d) {
		t.Errorf("SameCustomer(a,d) = true, want false (nil customer id)")
	}
}

func TestSameCustomerToleratesNonScalarCustomerID(t *testing.T) {
	obj := New(&domain.Order{ID: 1, CustomerDataJSON: `{"customer_id":{"x":1}}`})
	arr := New(&domain.Order{ID: 2, CustomerDataJSON: `{"customer_id":[1,2]}`})
	scalar := New(&domain.Order{ID: 3, CustomerDataJSON: `{"customer_id":42}`})
	sameObj := New(&domain.Order{ID: 4, CustomerDataJSON: `{"customer_id":{"x":1}}`})

	if SameCustomer(obj, arr) {
		t.Errorf("SameCustomer(obj,arr) = true, want false")
	}
	if SameCustomer(obj, scalar) {
		t.Errorf("SameCustomer(obj,scalar) = true, want false")
	}
	if !SameCustomer(obj, sameObj) {
		t.Errorf("SameCustomer(obj,sameObj) = false, want true (identical non-scalar shapes)")
	}
}
