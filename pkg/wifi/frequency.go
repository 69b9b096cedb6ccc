package wifi

// channelsByFrequency is the exact frequency (MHz) to 802.11 channel
// lookup table, grounded on
// original_source/src/backend/wifi_ctrl_backend.rs::frequency_to_channel.
// 5 GHz channel allocation has gaps, so this is a discrete table rather
// than an arithmetic formula: an out-of-table frequency is not a valid
// channel and must map to 0, not to whatever a contiguous formula would
// compute for it.
var channelsByFrequency = map[int]uint16{
	2412: 1,
	2417: 2,
	2422: 3,
	2427: 4,
	2432: 5,
	2437: 6,
	2442: 7,
	2447: 8,
	2452: 9,
	2457: 10,
	2462: 11,
	2467: 12,
	2472: 13,
	2484: 14,
	5180: 36,
	5200: 40,
	5220: 44,
	5240: 48,
	5260: 52,
	5280: 56,
	5300: 60,
	5320: 64,
	5500: 100,
	5520: 104,
	5540: 108,
	5560: 112,
	5580: 116,
	5660: 132,
	5680: 136,
	5700: 140,
	5745: 149,
	5765: 153,
	5785: 157,
	5805: 161,
	5825: 165,
}

// FrequencyToChannel maps a wpa_supplicant-reported frequency in MHz to an
// 802.11 channel number. Unmapped or unparseable frequencies map to 0.
func FrequencyToChannel(freqMHz int) uint16 {
	return channelsByFrequency[freqMHz]
}
