package enrich

import (
	"testing"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

func TestParseUserAgentClasses(t *testing.T) {
	cases := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "googlebot",
			ua:   "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			want: model.DeviceBot,
		},
		{
			name: "thunderbird",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:102.0) Gecko/20100101 Thunderbird/102.13.0",
			want: model.DeviceEmailClient,
		},
		{
			name: "android phone",
			ua:   "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36",
			want: model.DeviceMobile,
		},
		{
			name: "desktop chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			want: model.DevicePC,
		},
		{
			name: "empty",
			ua:   "",
			want: model.DeviceUnknown,
		},
		{
			name: "garbage",
			ua:   "not a real user agent",
			want: model.DeviceUnknown,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseUserAgent(tc.ua)
			if got.DeviceClass != tc.want {
				t.Fatalf("class = %q, want %q", got.DeviceClass, tc.want)
			}
		})
	}
}

func TestParseUserAgentDetails(t *testing.T) {
	got := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	if got.Browser != "Chrome" {
		t.Fatalf("browser = %q, want Chrome", got.Browser)
	}
	if got.OS != "Windows" {
		t.Fatalf("os = %q, want Windows", got.OS)
	}
}

func TestEmailClientBeatsDesktop(t *testing.T) {
	// Outlook announces itself inside a Windows desktop UA. The email
	// class must win over PC.
	got := ParseUserAgent("Mozilla/4.0 (compatible; MSIE 7.0; Windows NT 10.0; Microsoft Outlook 16.0.5387)")
	if got.DeviceClass != model.DeviceEmailClient {
		t.Fatalf("class = %q, want EMAIL_CLIENT", got.DeviceClass)
	}
}

func TestEnricherFailsOpen(t *testing.T) {
	e := New("")
	defer e.Close()

	got := e.Enrich("203.0.113.9", "")
	if got.CountryISO != "" || got.HasCoords {
		t.Fatalf("geo fields should stay empty without a database: %+v", got)
	}
}

func TestEnricherBadPath(t *testing.T) {
	e := New("/does/not/exist.mmdb")
	defer e.Close()

	got := e.Enrich("203.0.113.9", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	if got.CountryISO != "" {
		t.Fatal("unreadable database should disable geo, not fail")
	}
	if got.DeviceClass != model.DevicePC {
		t.Fatalf("ua parsing should still run, class = %q", got.DeviceClass)
	}
}
