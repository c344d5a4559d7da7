package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func filterCtx(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest("GET", "/v1/products?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestProductFilterRatingAndDelivery(t *testing.T) {
	h := &PublicCatalogHandler{}

	f, err := h.productFilter(filterCtx("rating=4&delivery_time_option=15-30+days"))
	if err != nil {
		t.Fatalf("productFilter: %v", err)
	}
	if f.RatingMin == nil || *f.RatingMin != 4 {
		t.Fatalf("RatingMin = %v, want 4", f.RatingMin)
	}
	if f.DeliveryTime != "15-30 days" {
		t.Fatalf("DeliveryTime = %q", f.DeliveryTime)
	}

	f, err = h.productFilter(filterCtx("q=steel"))
	if err != nil {
		t.Fatalf("productFilter: %v", err)
	}
	if f.RatingMin != nil || f.DeliveryTime != "" {
		t.Fatal("absent params should leave rating and delivery unset")
	}
}

func TestProductFilterRatingRejectsBadValues(t *testing.T) {
	h := &PublicCatalogHandler{}
	for _, raw := range []string{"rating=six", "rating=9", "rating=-1"} {
		if _, err := h.productFilter(filterCtx(raw)); err == nil {
			t.Fatalf("%s accepted", raw)
		}
	}
}
