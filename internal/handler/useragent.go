// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"github.com/mileusna/useragent"
)

// clientInfo is the browser summary stored with login audit events.
type clientInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

func parseUserAgent(uaString string) clientInfo {
	ua := useragent.Parse(uaString)

	info := clientInfo{
		Browser: ua.Name,
		OS:      ua.OS,
	}
	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		info.DeviceType = "mobile"
	case ua.Tablet:
		info.DeviceType = "tablet"
	case ua.Bot:
		info.DeviceType = "bot"
	default:
		info.DeviceType = "desktop"
	}

	return info
}

func (c clientInfo) metadata(email string) map[string]any {
	return map[string]any{
		"email":   email,
		"browser": c.Browser,
		"os":      c.OS,
		"device":  c.DeviceType,
	}
}
