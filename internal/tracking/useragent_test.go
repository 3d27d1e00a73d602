package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Agent
	}{
		{
			name: "empty",
			ua:   "",
			want: Agent{Device: DeviceDesktop, Browser: Unknown, OS: Unknown},
		},
		{
			name: "chrome on windows",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			want: Agent{Device: DeviceDesktop, Browser: "Chrome", OS: "Windows"},
		},
		{
			name: "edge on windows",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36 Edg/124.0",
			want: Agent{Device: DeviceDesktop, Browser: "Edge", OS: "Windows"},
		},
		{
			name: "safari on iphone",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
			want: Agent{Device: DeviceMobile, Browser: "Safari", OS: "iOS"},
		},
		{
			name: "ipad",
			ua:   "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
			want: Agent{Device: DeviceTablet, Browser: "Safari", OS: "iOS"},
		},
		{
			name: "samsung browser on android phone",
			ua:   "Mozilla/5.0 (Linux; Android 14; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) SamsungBrowser/24.0 Chrome/117.0 Mobile Safari/537.36",
			want: Agent{Device: DeviceMobile, Browser: "Samsung Internet", OS: "Android"},
		},
		{
			name: "android tablet",
			ua:   "Mozilla/5.0 (Linux; Android 13; SM-X200) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			want: Agent{Device: DeviceTablet, Browser: "Chrome", OS: "Android"},
		},
		{
			name: "firefox on linux",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
			want: Agent{Device: DeviceDesktop, Browser: "Firefox", OS: "Linux"},
		},
		{
			name: "opera on mac",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36 OPR/108.0",
			want: Agent{Device: DeviceDesktop, Browser: "Opera", OS: "macOS"},
		},
		{
			name: "curl",
			ua:   "curl/8.4.0",
			want: Agent{Device: DeviceDesktop, Browser: Other, OS: Other},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyUserAgent(tt.ua))
		})
	}
}
