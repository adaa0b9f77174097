// Package config provides environment helpers for go-fiducial commands.
package config

import (
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvCameraDevice = "CAMERA_DEVICE"
	EnvModelPath    = "MODEL_PATH"
	EnvModelURL     = "MODEL_URL"
	EnvDataYAML     = "DATA_YAML"
	EnvWebPort      = "WEB_PORT"
	EnvSnapshotDir  = "SNAPSHOT_DIR"
	EnvLogLevel     = "LOG_LEVEL"
	EnvFiducialMM   = "FIDUCIAL_MM"
)

// String returns the value of key, or def if it is unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Float returns key parsed as a float64.
// Falls back to def when unset or unparsable.
func Float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// CameraDevice returns the capture device from CAMERA_DEVICE.
func CameraDevice(def string) string {
	return String(EnvCameraDevice, def)
}

// ModelPath returns the ONNX model path from MODEL_PATH.
func ModelPath(def string) string {
	return String(EnvModelPath, def)
}

// WebPort returns the preview server port from WEB_PORT.
func WebPort(def string) string {
	return String(EnvWebPort, def)
}
