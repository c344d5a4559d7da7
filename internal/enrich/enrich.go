// Package enrich resolves a client IP and user-agent string into the
// geo/device context stored on every tracking event. Enrichment fails open:
// whatever cannot be resolved comes back as empty fields, never as an error
// on the recording path.
package enrich

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Context is the enrichment attached to a tracking event.
type Context struct {
	CountryISO     string
	Region         string
	City           string
	Postal         string
	Lat            float64
	Lng            float64
	HasCoords      bool
	DeviceClass    string
	Device         string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
}

// Enricher wraps the GeoIP reader, loaded once at startup and immutable
// afterwards. A nil reader disables geo lookups.
type Enricher struct {
	geo *geoip2.Reader
}

// New opens the mmdb at path. An empty path or open failure yields an
// enricher without geo data rather than an error: tracking must keep
// working without the database.
func New(path string) *Enricher {
	if path == "" {
		return &Enricher{}
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return &Enricher{}
	}
	return &Enricher{geo: r}
}

// Close releases the mmdb handle.
func (e *Enricher) Close() {
	if e.geo != nil {
		_ = e.geo.Close()
	}
}

// Enrich resolves ip and userAgent. Every failure leaves the affected
// fields empty.
func (e *Enricher) Enrich(ip, userAgent string) Context {
	out := ParseUserAgent(userAgent)
	e.lookupIP(ip, &out)
	return out
}

func (e *Enricher) lookupIP(ip string, out *Context) {
	if e.geo == nil {
		return
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return
	}
	rec, err := e.geo.City(parsed)
	if err != nil || rec == nil {
		return
	}
	out.CountryISO = rec.Country.IsoCode
	if len(rec.Subdivisions) > 0 {
		out.Region = rec.Subdivisions[0].Names["en"]
	}
	out.City = rec.City.Names["en"]
	out.Postal = rec.Postal.Code
	if rec.Location.Latitude != 0 || rec.Location.Longitude != 0 {
		out.Lat = rec.Location.Latitude
		out.Lng = rec.Location.Longitude
		out.HasCoords = true
	}
}
