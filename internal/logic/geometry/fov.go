package geometry

import (
	"fmt"
	"math"
)

// FullFrameSensorHeightMm is the height of a 35mm full-frame sensor.
const FullFrameSensorHeightMm = 24.0

// FOVCalculator converts between lens focal length and vertical field of view
// for a given sensor height.
type FOVCalculator struct {
	sensorHeight float64
}

// NewFOVCalculator creates a new FOV calculator.
// Returns an error if the sensor height is not a positive finite number.
func NewFOVCalculator(sensorHeightMm float64) (*FOVCalculator, error) {
	if math.IsNaN(sensorHeightMm) || math.IsInf(sensorHeightMm, 0) || sensorHeightMm <= 0 {
		return nil, fmt.Errorf("sensor height must be > 0, got %g", sensorHeightMm)
	}
	return &FOVCalculator{sensorHeight: sensorHeightMm}, nil
}

// SensorHeight returns the sensor height in millimeters.
func (f *FOVCalculator) SensorHeight() float64 {
	return f.sensorHeight
}

// FieldOfView calculates the vertical field of view in degrees.
// Formula: FOV = 2 × arctan(sensor_height / (2 × focal_length))
func (f *FOVCalculator) FieldOfView(focalLengthMm float64) float64 {
	if focalLengthMm <= 0 {
		return 180
	}
	return 2.0 * math.Atan(f.sensorHeight/(2.0*focalLengthMm)) * 180.0 / math.Pi
}

// FocalLength calculates the focal length in millimeters that yields the
// given vertical field of view in degrees.
// Formula: f = (sensor_height / 2) / tan(FOV / 2)
func (f *FOVCalculator) FocalLength(fovDeg float64) float64 {
	half := fovDeg * math.Pi / 360.0
	t := math.Tan(half)
	if t <= 0 {
		return math.Inf(1)
	}
	return (f.sensorHeight / 2.0) / t
}
