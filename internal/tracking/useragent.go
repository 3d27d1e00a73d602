package tracking

import "strings"

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"

	Unknown = "Unknown"
	Other   = "Other"
)

type Agent struct {
	Device  string `json:"deviceType"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

type rule struct {
	name    string
	needles []string
}

// Order matters: Edge, Opera and Samsung UAs also contain "chrome", Chrome
// UAs contain "safari", iPad UAs contain "mac os" and Android UAs "linux".
var (
	browserRules = []rule{
		{"Edge", []string{"edg/", "edge/", "edga/", "edgios/"}},
		{"Opera", []string{"opr/", "opera", "opios/"}},
		{"Samsung Internet", []string{"samsungbrowser"}},
		{"Firefox", []string{"firefox", "fxios"}},
		{"Chrome", []string{"chrome", "crios", "chromium"}},
		{"Safari", []string{"safari"}},
		{"Internet Explorer", []string{"msie", "trident/"}},
	}
	osRules = []rule{
		{"Windows", []string{"windows"}},
		{"iOS", []string{"iphone", "ipad", "ipod", "cpu os"}},
		{"macOS", []string{"mac os", "macintosh"}},
		{"Android", []string{"android"}},
		{"ChromeOS", []string{"cros "}},
		{"Linux", []string{"linux"}},
	}
	tabletNeedles = []string{"ipad", "tablet", "kindle", "silk/", "playbook"}
	mobileNeedles = []string{"mobi", "iphone", "ipod", "android", "blackberry", "windows phone", "opera mini"}
)

// ClassifyUserAgent derives device, browser and OS from a User-Agent
// header with ordered substring rules. An empty header is a desktop with
// unknown browser and OS.
func ClassifyUserAgent(ua string) Agent {
	s := strings.ToLower(strings.TrimSpace(ua))
	if s == "" {
		return Agent{Device: DeviceDesktop, Browser: Unknown, OS: Unknown}
	}

	return Agent{
		Device:  device(s),
		Browser: match(s, browserRules),
		OS:      match(s, osRules),
	}
}

func device(s string) string {
	if containsAny(s, tabletNeedles) || strings.Contains(s, "android") && !strings.Contains(s, "mobile") {
		return DeviceTablet
	}
	if containsAny(s, mobileNeedles) {
		return DeviceMobile
	}
	return DeviceDesktop
}

func match(s string, rules []rule) string {
	for _, r := range rules {
		if containsAny(s, r.needles) {
			return r.name
		}
	}
	return Other
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
