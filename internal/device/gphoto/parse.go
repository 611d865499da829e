package gphoto

import (
	"bufio"
	"bytes"
	"strings"
)

// detectedCamera is one row of gphoto2 --auto-detect output.
type detectedCamera struct {
	Model string
	Port  string
}

// parseAutoDetect extracts camera rows from --auto-detect output, which
// looks like:
//
//	Model                          Port
//	----------------------------------------------------------
//	Nikon DSC D5600                usb:001,007
//
// The port is the last column and never contains spaces; everything before
// it is the model name.
func parseAutoDetect(out []byte) []detectedCamera {
	var cameras []detectedCamera

	seenSeparator := false
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !seenSeparator {
			seenSeparator = strings.HasPrefix(strings.TrimSpace(line), "----")
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		idx := strings.LastIndexAny(trimmed, " \t")
		if idx < 0 {
			continue
		}

		port := trimmed[idx+1:]
		model := strings.TrimSpace(trimmed[:idx])
		if model == "" || !strings.Contains(port, ":") {
			continue
		}

		cameras = append(cameras, detectedCamera{Model: model, Port: port})
	}

	return cameras
}

// parseConfig extracts the current value and the choice list from
// --get-config output, which looks like:
//
//	Label: ISO Speed
//	Readonly: 0
//	Type: RADIO
//	Current: 400
//	Choice: 0 100
//	Choice: 1 200
//	END
//
// Choice values keep their internal spaces ("Auto ISO", "1/4000").
func parseConfig(out []byte) (current string, choices []string) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "Current:"):
			current = strings.TrimSpace(strings.TrimPrefix(line, "Current:"))

		case strings.HasPrefix(line, "Choice:"):
			rest := strings.TrimSpace(strings.TrimPrefix(line, "Choice:"))
			// Drop the leading index, keep the value verbatim.
			if i := strings.IndexAny(rest, " \t"); i >= 0 {
				choices = append(choices, strings.TrimSpace(rest[i+1:]))
			}
		}
	}
	return current, choices
}
