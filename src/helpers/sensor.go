package helpers

import (
	"fmt"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// Sensor Blob Diagnostics
// -----------------------------------------------------------------------------

// SensorInfo is a read-only breakdown of the anti-bot sensor blob, used for
// diagnostics and logging only. The blob itself is always forwarded verbatim;
// the monitor never rebuilds or mutates it.
type SensorInfo struct {
	Version       string
	Type          string
	DeviceFP1     string
	DeviceFP2     string
	PayloadLength int
	Counters      []int
	AuthSuffix    string
}

// -----------------------------------------------------------------------------

// ParseSensorData splits a sensor blob of the form
// "version,type,fp1,fp2$payload$c1,c2,c3$$$authSuffix" into its parts.
func ParseSensorData(blob string) (*SensorInfo, error) {
	if blob == "" {
		return nil, fmt.Errorf("empty sensor data")
	}

	parts := strings.Split(blob, "$")
	if len(parts) < 3 {
		return nil, fmt.Errorf("sensor data has %d segments, want at least 3", len(parts))
	}

	header := strings.Split(parts[0], ",")
	if len(header) < 2 {
		return nil, fmt.Errorf("sensor header has %d fields, want at least 2", len(header))
	}

	info := &SensorInfo{
		Version:       header[0],
		Type:          header[1],
		PayloadLength: len(parts[1]),
		AuthSuffix:    parts[len(parts)-1],
	}
	if len(header) > 2 {
		info.DeviceFP1 = header[2]
	}
	if len(header) > 3 {
		info.DeviceFP2 = header[3]
	}

	for _, c := range strings.Split(parts[2], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("bad sensor counter %q: %w", c, err)
		}
		info.Counters = append(info.Counters, n)
	}

	return info, nil
}
