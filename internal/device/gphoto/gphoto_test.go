package gphoto

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tholee-studio/camera-service/internal/device"
)

const autoDetectOneCamera = `Model                          Port
----------------------------------------------------------
Nikon DSC D5600                usb:001,007
`

const autoDetectNoCameras = `Model                          Port
----------------------------------------------------------
`

const isoConfig = `Label: ISO Speed
Readonly: 0
Type: RADIO
Current: 400
Choice: 0 100
Choice: 1 200
Choice: 2 400
Choice: 3 800
END
`

// fakeRunner records gphoto2 invocations and serves scripted output.
type fakeRunner struct {
	calls   [][]string
	handler func(args []string) ([]byte, error)
}

func (f *fakeRunner) run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	return f.handler(args)
}

func newTestDriver(handler func(args []string) ([]byte, error)) (*Driver, *fakeRunner) {
	runner := &fakeRunner{handler: handler}
	driver := New("gphoto2", "")
	driver.run = runner.run
	return driver, runner
}

// openTestConn opens a connection against a scripted runner and registers
// cleanup of its scratch directory.
func openTestConn(t *testing.T, driver *Driver) *conn {
	t.Helper()

	c, err := driver.Open(context.Background())
	require.NoError(t, err)

	cn, ok := c.(*conn)
	require.True(t, ok)
	t.Cleanup(func() { _ = cn.Close() })
	return cn
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestOpen_BindsFirstDetectedCamera(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		return []byte(autoDetectOneCamera), nil
	})

	cn := openTestConn(t, driver)
	assert.Equal(t, "usb:001,007", cn.port)
	assert.Equal(t, "Nikon DSC D5600", cn.Model())
}

func TestOpen_NoCameraDetected(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		return []byte(autoDetectNoCameras), nil
	})

	_, err := driver.Open(context.Background())
	assert.ErrorIs(t, err, device.ErrNotDetected)
}

func TestOpen_ProbeFailure(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})

	_, err := driver.Open(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, device.ErrNotDetected)
}

func TestOpen_PortHintSelectsMatchingCamera(t *testing.T) {
	out := `Model                          Port
----------------------------------------------------------
Canon EOS 550D                 usb:001,004
Sony Alpha-A7 III              usb:001,009
`
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		return []byte(out), nil
	})
	driver.portHint = "usb:001,009"

	cn := openTestConn(t, driver)
	assert.Equal(t, "usb:001,009", cn.port)
	assert.Equal(t, "Sony Alpha-A7 III", cn.Model())
}

func TestOpen_PortHintWithoutMatch(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		return []byte(autoDetectOneCamera), nil
	})
	driver.portHint = "usb:002,001"

	_, err := driver.Open(context.Background())
	assert.ErrorIs(t, err, device.ErrNotDetected)
}

func TestCaptureStill_ReturnsImageAndCleansUp(t *testing.T) {
	var capturePath string
	driver, runner := newTestDriver(func(args []string) ([]byte, error) {
		if hasFlag(args, "--auto-detect") {
			return []byte(autoDetectOneCamera), nil
		}
		capturePath = flagValue(args, "--filename")
		require.NoError(t, os.WriteFile(capturePath, []byte("jpeg-bytes"), 0o600))
		return nil, nil
	})

	cn := openTestConn(t, driver)

	data, err := cn.CaptureStill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	// The downloaded file must not linger in the scratch directory.
	_, statErr := os.Stat(capturePath)
	assert.True(t, os.IsNotExist(statErr))

	captureArgs := runner.calls[len(runner.calls)-1]
	assert.True(t, hasFlag(captureArgs, "--capture-image-and-download"))
	assert.True(t, hasFlag(captureArgs, "--no-keep"))
	assert.Equal(t, "usb:001,007", flagValue(captureArgs, "--port"))
}

func TestCaptureStill_EmptyDownload(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		if hasFlag(args, "--auto-detect") {
			return []byte(autoDetectOneCamera), nil
		}
		return nil, os.WriteFile(flagValue(args, "--filename"), nil, 0o600)
	})

	cn := openTestConn(t, driver)

	_, err := cn.CaptureStill(context.Background())
	assert.ErrorContains(t, err, "empty image")
}

func TestCaptureStill_CommandFailure(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		if hasFlag(args, "--auto-detect") {
			return []byte(autoDetectOneCamera), nil
		}
		return nil, fmt.Errorf("exit status 1: Could not claim the USB device")
	})

	cn := openTestConn(t, driver)

	_, err := cn.CaptureStill(context.Background())
	assert.ErrorContains(t, err, "failed to capture image")
}

func TestCapturePreview_ReturnsFrame(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		if hasFlag(args, "--auto-detect") {
			return []byte(autoDetectOneCamera), nil
		}
		require.True(t, hasFlag(args, "--capture-preview"))
		return nil, os.WriteFile(flagValue(args, "--filename"), []byte("preview-bytes"), 0o600)
	})

	cn := openTestConn(t, driver)

	data, err := cn.CapturePreview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("preview-bytes"), data)
}

func TestGetConfig_ReturnsCurrentValue(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		if hasFlag(args, "--auto-detect") {
			return []byte(autoDetectOneCamera), nil
		}
		require.Equal(t, "iso", flagValue(args, "--get-config"))
		return []byte(isoConfig), nil
	})

	cn := openTestConn(t, driver)

	value, err := cn.GetConfig(context.Background(), device.KeyISO)
	require.NoError(t, err)
	assert.Equal(t, "400", value)
}

func TestGetConfig_NoCurrentValue(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		if hasFlag(args, "--auto-detect") {
			return []byte(autoDetectOneCamera), nil
		}
		return []byte("Label: ISO Speed\nType: RADIO\nEND\n"), nil
	})

	cn := openTestConn(t, driver)

	_, err := cn.GetConfig(context.Background(), device.KeyISO)
	assert.ErrorContains(t, err, "no current value")
}

func TestListChoices_ReturnsAllChoices(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		if hasFlag(args, "--auto-detect") {
			return []byte(autoDetectOneCamera), nil
		}
		return []byte(isoConfig), nil
	})

	cn := openTestConn(t, driver)

	choices, err := cn.ListChoices(context.Background(), device.KeyISO)
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200", "400", "800"}, choices)
}

func TestSetConfig_AppliesAcceptedValue(t *testing.T) {
	driver, runner := newTestDriver(func(args []string) ([]byte, error) {
		switch {
		case hasFlag(args, "--auto-detect"):
			return []byte(autoDetectOneCamera), nil
		case flagValue(args, "--get-config") != "":
			return []byte(isoConfig), nil
		default:
			return nil, nil
		}
	})

	cn := openTestConn(t, driver)

	err := cn.SetConfig(context.Background(), device.KeyISO, "800")
	require.NoError(t, err)

	setArgs := runner.calls[len(runner.calls)-1]
	assert.Equal(t, "iso=800", flagValue(setArgs, "--set-config"))
}

func TestSetConfig_RejectsUnknownValueWithoutTouchingDevice(t *testing.T) {
	driver, runner := newTestDriver(func(args []string) ([]byte, error) {
		switch {
		case hasFlag(args, "--auto-detect"):
			return []byte(autoDetectOneCamera), nil
		case flagValue(args, "--get-config") != "":
			return []byte(isoConfig), nil
		default:
			t.Fatal("set-config must not run for a rejected value")
			return nil, nil
		}
	})

	cn := openTestConn(t, driver)

	err := cn.SetConfig(context.Background(), device.KeyISO, "12800")
	assert.ErrorIs(t, err, device.ErrInvalidValue)

	// Only auto-detect and the choice lookup ran.
	assert.Len(t, runner.calls, 2)
}

func TestSetConfig_NoChoiceListSkipsValidation(t *testing.T) {
	driver, runner := newTestDriver(func(args []string) ([]byte, error) {
		switch {
		case hasFlag(args, "--auto-detect"):
			return []byte(autoDetectOneCamera), nil
		case flagValue(args, "--get-config") != "":
			return []byte("Label: Artist\nType: TEXT\nCurrent: \nEND\n"), nil
		default:
			return nil, nil
		}
	})

	cn := openTestConn(t, driver)

	err := cn.SetConfig(context.Background(), "artist", "studio")
	require.NoError(t, err)

	setArgs := runner.calls[len(runner.calls)-1]
	assert.Equal(t, "artist=studio", flagValue(setArgs, "--set-config"))
}

func TestClose_RemovesScratchDirectory(t *testing.T) {
	driver, _ := newTestDriver(func(args []string) ([]byte, error) {
		return []byte(autoDetectOneCamera), nil
	})

	cn := openTestConn(t, driver)
	_, err := os.Stat(cn.dir)
	require.NoError(t, err)

	require.NoError(t, cn.Close())

	_, err = os.Stat(cn.dir)
	assert.True(t, os.IsNotExist(err))
}
