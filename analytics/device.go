// api/analytics/device.go
package analytics

import "strings"

// Canonical device categories.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceUnknown = "Unknown"
)

// deviceRule pairs a predicate over a case-folded user agent with the
// category it implies. Rules are evaluated top to bottom; the first match
// wins, which makes precedence explicit instead of buried in a conditional
// cascade.
type deviceRule struct {
	match  func(ua string) bool
	result string
}

func contains(substr string) func(string) bool {
	return func(ua string) bool { return strings.Contains(ua, substr) }
}

// Tablet rules run before mobile rules: tablet tokens are strictly more
// specific, and "android without mobile" is only detectable before the
// generic mobile sweep.
var tabletRules = []deviceRule{
	{contains("ipad"), DeviceTablet},
	{func(ua string) bool {
		return strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")
	}, DeviceTablet},
	{contains("tablet"), DeviceTablet},
	{contains("playbook"), DeviceTablet},
	{contains("kindle"), DeviceTablet},
	{contains("silk"), DeviceTablet},
	{func(ua string) bool {
		if !strings.Contains(ua, "nexus") {
			return false
		}
		rest := ua[strings.Index(ua, "nexus"):]
		return strings.Contains(rest, "7") || strings.Contains(rest, "9") || strings.Contains(rest, "10")
	}, DeviceTablet},
}

var mobileRules = []deviceRule{
	{contains("mobile"), DeviceMobile},
	{contains("iphone"), DeviceMobile},
	{contains("ipod"), DeviceMobile},
	{contains("blackberry"), DeviceMobile},
	{contains("windows phone"), DeviceMobile},
	{contains("opera mini"), DeviceMobile},
	{contains("iemobile"), DeviceMobile},
	{contains("palm"), DeviceMobile},
}

// Desktop tokens are a weak positive signal: OS names plus common browser
// engines that only survive to this point because nothing above matched.
var desktopRules = []deviceRule{
	{contains("windows"), DeviceDesktop},
	{contains("macintosh"), DeviceDesktop},
	{contains("mac os"), DeviceDesktop},
	{contains("linux"), DeviceDesktop},
	{contains("x11"), DeviceDesktop},
	{contains("unix"), DeviceDesktop},
	{contains("chrome"), DeviceDesktop},
	{contains("firefox"), DeviceDesktop},
	{contains("safari"), DeviceDesktop},
	{contains("edge"), DeviceDesktop},
	{contains("opera"), DeviceDesktop},
	{contains("msie"), DeviceDesktop},
	{contains("trident"), DeviceDesktop},
}

var deviceRuleTables = [][]deviceRule{tabletRules, mobileRules, desktopRules}

// ParseDeviceType infers a device category from a raw user-agent string.
// Total: every input maps to exactly one canonical value.
func ParseDeviceType(userAgent string) string {
	if userAgent == "" {
		return DeviceUnknown
	}
	ua := strings.ToLower(userAgent)
	for _, table := range deviceRuleTables {
		for _, rule := range table {
			if rule.match(ua) {
				return rule.result
			}
		}
	}
	return DeviceUnknown
}

// ClassifyDevice resolves the two redundant device hints on a session event.
// An explicit deviceType wins when present and not a sentinel "unknown";
// otherwise the user agent is parsed. Values that normalize to none of the
// canonical categories are returned verbatim, treated as already canonical.
func ClassifyDevice(explicitType, userAgent string) string {
	if explicitType != "" && !strings.EqualFold(explicitType, "unknown") {
		normalized := strings.ToLower(explicitType)
		switch {
		case strings.Contains(normalized, "mobile"):
			return DeviceMobile
		case strings.Contains(normalized, "tablet"):
			return DeviceTablet
		case strings.Contains(normalized, "desktop"):
			return DeviceDesktop
		}
		return explicitType
	}
	return ParseDeviceType(userAgent)
}
