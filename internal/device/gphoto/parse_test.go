package gphoto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAutoDetect_SingleCamera(t *testing.T) {
	out := []byte(`Model                          Port
----------------------------------------------------------
Nikon DSC D5600                usb:001,007
`)

	cameras := parseAutoDetect(out)
	assert.Equal(t, []detectedCamera{
		{Model: "Nikon DSC D5600", Port: "usb:001,007"},
	}, cameras)
}

func TestParseAutoDetect_MultipleCameras(t *testing.T) {
	out := []byte(`Model                          Port
----------------------------------------------------------
Canon EOS 550D                 usb:001,004
Sony Alpha-A7 III              usb:001,009
`)

	cameras := parseAutoDetect(out)
	assert.Equal(t, []detectedCamera{
		{Model: "Canon EOS 550D", Port: "usb:001,004"},
		{Model: "Sony Alpha-A7 III", Port: "usb:001,009"},
	}, cameras)
}

func TestParseAutoDetect_NoCameras(t *testing.T) {
	out := []byte(`Model                          Port
----------------------------------------------------------
`)

	assert.Empty(t, parseAutoDetect(out))
}

func TestParseAutoDetect_EmptyOutput(t *testing.T) {
	assert.Empty(t, parseAutoDetect(nil))
}

func TestParseAutoDetect_IgnoresHeaderRows(t *testing.T) {
	// Everything before the dashed separator is header, even if it has
	// the shape of a camera row.
	out := []byte(`Model                          Port
----------------------------------------------------------
Nikon DSC D5600                usb:001,007
`)

	cameras := parseAutoDetect(out)
	assert.Len(t, cameras, 1)
	assert.NotEqual(t, "Model", cameras[0].Model)
}

func TestParseConfig_CurrentAndChoices(t *testing.T) {
	out := []byte(`Label: ISO Speed
Readonly: 0
Type: RADIO
Current: 400
Choice: 0 100
Choice: 1 200
Choice: 2 400
Choice: 3 800
END
`)

	current, choices := parseConfig(out)
	assert.Equal(t, "400", current)
	assert.Equal(t, []string{"100", "200", "400", "800"}, choices)
}

func TestParseConfig_ChoicesWithSpaces(t *testing.T) {
	out := []byte(`Label: ISO Speed
Type: RADIO
Current: Auto ISO
Choice: 0 Auto ISO
Choice: 1 100
END
`)

	current, choices := parseConfig(out)
	assert.Equal(t, "Auto ISO", current)
	assert.Equal(t, []string{"Auto ISO", "100"}, choices)
}

func TestParseConfig_ShutterSpeedFractions(t *testing.T) {
	out := []byte(`Label: Shutter Speed
Type: RADIO
Current: 1/125
Choice: 0 1/4000
Choice: 1 1/2000
Choice: 2 1/125
Choice: 3 30
END
`)

	current, choices := parseConfig(out)
	assert.Equal(t, "1/125", current)
	assert.Equal(t, []string{"1/4000", "1/2000", "1/125", "30"}, choices)
}

func TestParseConfig_NoChoices(t *testing.T) {
	out := []byte(`Label: Battery Level
Type: TEXT
Current: 82%
END
`)

	current, choices := parseConfig(out)
	assert.Equal(t, "82%", current)
	assert.Empty(t, choices)
}

func TestParseConfig_EmptyOutput(t *testing.T) {
	current, choices := parseConfig(nil)
	assert.Empty(t, current)
	assert.Empty(t, choices)
}
