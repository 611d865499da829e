package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tholee-studio/camera-service/internal/device/devicetest"
)

func TestHandleCapture_ReturnsJPEG(t *testing.T) {
	driver := devicetest.NewDriver(t)
	srv := newTestServer(t, driver)

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "still-1", rec.Body.String())
	assert.Equal(t, 1, driver.Opens())
	assert.True(t, srv.session.Open())
}

func TestHandleCapture_ReusesOpenSession(t *testing.T) {
	driver := devicetest.NewDriver(t)
	srv := newTestServer(t, driver)

	first := doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))
	second := doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "still-2", second.Body.String())
	assert.Equal(t, 1, driver.Opens())
}

func TestHandleCapture_CameraUnavailable(t *testing.T) {
	driver := devicetest.NewDriver(t)
	driver.FailNextOpen(errors.New("no camera detected"))
	srv := newTestServer(t, driver)

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"unavailable"`)
	assert.False(t, srv.session.Open())
}

func TestHandleCapture_DeviceFailureReleasesSession(t *testing.T) {
	driver := devicetest.NewDriver(t)
	srv := newTestServer(t, driver)

	doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))
	driver.LastConn().FailNext(devicetest.OpCaptureStill, errors.New("usb reset"))

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"device"`)
	assert.False(t, srv.session.Open())
	assert.True(t, driver.LastConn().Closed())
}

func TestHandleCapture_RecoversAfterDeviceFailure(t *testing.T) {
	driver := devicetest.NewDriver(t)
	srv := newTestServer(t, driver)

	doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))
	driver.LastConn().FailNext(devicetest.OpCaptureStill, errors.New("usb reset"))
	doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "still-1", rec.Body.String())
	assert.Equal(t, 2, driver.Opens())
}

func TestHandleCapture_Simulation_BypassesDevice(t *testing.T) {
	driver := devicetest.NewDriver(t)
	srv := newTestServer(t, driver, withSimulation())

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/capture", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0xff, 0xd8}, rec.Body.Bytes()[:2])
	assert.Equal(t, 0, driver.Opens())
}
