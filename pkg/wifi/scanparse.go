package wifi

import (
	"strconv"
	"strings"
)

// ParseScanResults parses wpa_cli-style `SCAN_RESULTS` output: a header
// line followed by tab-separated `bssid freq signal flags ssid` rows.
// Lines with fewer than five tab-separated fields are skipped (spec E4).
// rssi falls back to 0 when unparseable; channel comes from
// FrequencyToChannel. Only the fifth field is taken as the SSID — extra
// tabs inside an SSID are not rejoined, matching
// original_source/src/backend/wpactrl_backend.rs::parse_scan_results.
func ParseScanResults(output string) []Network {
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // skip header
	}

	var networks []Network
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			continue
		}

		freq, _ := strconv.Atoi(fields[1])
		rssi, err := strconv.Atoi(fields[2])
		if err != nil {
			rssi = 0
		}

		networks = append(networks, Network{
			MAC:     fields[0],
			Channel: FrequencyToChannel(freq),
			RSSI:    int16(rssi),
			SSID:    fields[4],
		})
	}
	return networks
}
