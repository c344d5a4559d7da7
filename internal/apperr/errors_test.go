package apperr

import (
	"net/http"
	"strings"
	"testing"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodePermissionDenied, http.StatusForbidden},
		{CodeInvalid, http.StatusBadRequest},
		{CodeRequired, http.StatusBadRequest},
		{CodeUnique, http.StatusBadRequest},
		{CodeSlugTaken, http.StatusBadRequest},
		{CodeTooManyItems, http.StatusBadRequest},
		{CodeTooManyMessages, http.StatusTooManyRequests},
		{CodeCaptureInactivePayment, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.code); got != tc.want {
			t.Fatalf("StatusFor(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestListIsAnError(t *testing.T) {
	var err error = List{Required("name"), Invalid("unit_price", "must be a decimal")}
	if !strings.Contains(err.Error(), "name") {
		t.Fatalf("error text = %q", err.Error())
	}
	if (List{}).Error() != "validation failed" {
		t.Fatal("empty list should still describe itself")
	}
}

func TestFieldErrorBuilders(t *testing.T) {
	if e := Required("email"); e.Code != CodeRequired || e.Field != "email" {
		t.Fatalf("Required = %+v", e)
	}
	if e := Unique("name"); e.Code != CodeUnique {
		t.Fatalf("Unique = %+v", e)
	}
	if e := SlugTaken(); e.Code != CodeSlugTaken || e.Field != "slug" {
		t.Fatalf("SlugTaken = %+v", e)
	}
}
