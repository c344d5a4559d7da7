package utils

import (
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Anatolian Dried Figs", "anatolian-dried-figs"},
		{"  Premium  Olive   Oil ", "premium-olive-oil"},
		{"Grade A+ (2026)", "grade-a-2026"},
		{"---", ""},
		{"Çelik Boru", "çelik-boru"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeactivatedSlug(t *testing.T) {
	a, err := DeactivatedSlug("acme-trading")
	if err != nil {
		t.Fatalf("deactivated slug: %v", err)
	}
	b, _ := DeactivatedSlug("acme-trading")
	if a == b {
		t.Fatal("suffix should differ between calls")
	}
	if len(a) <= len("acme-trading-deactivated-") {
		t.Fatalf("slug %q missing its suffix", a)
	}
}

func TestOpaqueIDRoundTrip(t *testing.T) {
	enc := EncodeID("Product", 42)
	got, err := DecodeID("Product", enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != 42 {
		t.Fatalf("id = %d, want 42", got)
	}
}

func TestDecodeIDRejectsWrongKind(t *testing.T) {
	enc := EncodeID("Product", 42)
	if _, err := DecodeID("Company", enc); err == nil {
		t.Fatal("kind mismatch accepted")
	}
}

func TestDecodeIDRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "%%%", "bm9jb2xvbg", EncodeID("Product", 42) + "x"} {
		if _, err := DecodeID("Product", s); err == nil {
			t.Fatalf("garbage id %q accepted", s)
		}
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken("secret", 7, "SELLER", 15)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, role, err := ParseAccessToken("secret", at.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != 7 || role != "SELLER" {
		t.Fatalf("claims = (%d, %q), want (7, SELLER)", uid, role)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	at, _ := NewAccessToken("secret", 7, "BUYER", 15)
	if _, _, err := ParseAccessToken("other", at.Token); err == nil {
		t.Fatal("mis-signed token accepted")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	at, _ := NewAccessToken("secret", 7, "BUYER", -1)
	if _, _, err := ParseAccessToken("secret", at.Token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestHashRefreshRawIsStable(t *testing.T) {
	if HashRefreshRaw("abc") != HashRefreshRaw("abc") {
		t.Fatal("hash not deterministic")
	}
	if HashRefreshRaw("abc") == HashRefreshRaw("abd") {
		t.Fatal("distinct inputs collided")
	}
	if len(HashRefreshRaw("abc")) != 64 {
		t.Fatal("hash is not hex sha-256")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(h, "hunter22") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(h, "hunter23") {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordClampsBadCost(t *testing.T) {
	h, err := HashPassword("hunter22", 99)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(h, "hunter22") {
		t.Fatal("fallback cost hash did not verify")
	}
}

func TestRandomHexLength(t *testing.T) {
	s, err := RandomHex(24)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
}
