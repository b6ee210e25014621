// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strconv"

// FormatBytes formats a size in human-readable form, e.g. "12.3 KB".
func FormatBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return formatSizeNum(float64(size)/GB) + " GB"
	case size >= MB:
		return formatSizeNum(float64(size)/MB) + " MB"
	case size >= KB:
		return formatSizeNum(float64(size)/KB) + " KB"
	default:
		return strconv.FormatInt(size, 10) + " B"
	}
}

func formatSizeNum(f float64) string {
	s := strconv.FormatFloat(f, 'f', 1, 64)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}
