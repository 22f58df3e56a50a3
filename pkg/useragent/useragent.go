// Package useragent extracts the coarse device/browser/platform labels the
// session registry stores. It is intentionally rough: the labels are shown to
// users on their own session list, nothing downstream branches on them.
package useragent

import "strings"

type Info struct {
	Device   string
	Browser  string
	Platform string
}

func Parse(ua string) Info {
	lower := strings.ToLower(ua)

	info := Info{
		Device:   "Desktop",
		Browser:  "Unknown",
		Platform: "Unknown",
	}

	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		info.Device = "Tablet"
	case strings.Contains(lower, "mobile") || strings.Contains(lower, "iphone") ||
		strings.Contains(lower, "android"):
		info.Device = "Mobile"
	}

	switch {
	case strings.Contains(lower, "edg/"):
		info.Browser = "Edge"
	case strings.Contains(lower, "opr/") || strings.Contains(lower, "opera"):
		info.Browser = "Opera"
	case strings.Contains(lower, "chrome"):
		info.Browser = "Chrome"
	case strings.Contains(lower, "firefox"):
		info.Browser = "Firefox"
	case strings.Contains(lower, "safari"):
		info.Browser = "Safari"
	}

	switch {
	case strings.Contains(lower, "windows"):
		info.Platform = "Windows"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad"):
		info.Platform = "iOS"
	case strings.Contains(lower, "mac os") || strings.Contains(lower, "macintosh"):
		info.Platform = "macOS"
	case strings.Contains(lower, "android"):
		info.Platform = "Android"
	case strings.Contains(lower, "linux"):
		info.Platform = "Linux"
	}

	return info
}
