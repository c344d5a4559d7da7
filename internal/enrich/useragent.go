package enrich

import (
	"strings"

	ua "github.com/mileusna/useragent"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// Known email client tokens. The UA library has no email-client notion, so
// the dispatch checks these before the generic classes.
var emailClientTokens = []string{
	"outlook", "thunderbird", "airmail", "lotus notes", "postbox", "superhuman",
}

// ParseUserAgent classifies a user-agent string. Dispatch order is fixed:
// bot, email client, mobile, pc, tablet, touch; the first match wins and
// anything unrecognized is UNKNOWN.
func ParseUserAgent(raw string) Context {
	var out Context
	out.DeviceClass = model.DeviceUnknown
	if strings.TrimSpace(raw) == "" {
		return out
	}

	agent := ua.Parse(raw)
	out.Device = agent.Device
	out.Browser = agent.Name
	out.BrowserVersion = agent.Version
	out.OS = agent.OS
	out.OSVersion = agent.OSVersion

	lower := strings.ToLower(raw)
	switch {
	case agent.Bot:
		out.DeviceClass = model.DeviceBot
	case isEmailClient(lower):
		out.DeviceClass = model.DeviceEmailClient
	case agent.Mobile:
		out.DeviceClass = model.DeviceMobile
	case agent.Desktop:
		out.DeviceClass = model.DevicePC
	case agent.Tablet:
		out.DeviceClass = model.DeviceTablet
	case strings.Contains(lower, "touch"):
		out.DeviceClass = model.DeviceTouch
	}
	return out
}

func isEmailClient(lowerUA string) bool {
	for _, tok := range emailClientTokens {
		if strings.Contains(lowerUA, tok) {
			return true
		}
	}
	return false
}
