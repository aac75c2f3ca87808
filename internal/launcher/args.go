package launcher

import (
	"fmt"
	"strconv"
)

// AppOptions captures the tunables for a container-application launch.
type AppOptions struct {
	// DeviceSetPath points the application at a custom device set.
	DeviceSetPath string

	// Scale is the window scale factor (0 means default).
	Scale float64

	// ConnectHardwareKeyboard attaches the host keyboard to the device.
	ConnectHardwareKeyboard bool
}

// BuildSimulatorAppArgs constructs the argument list and environment for
// launching the container application against a specific device. The
// application boots the device itself once it takes ownership of it.
func BuildSimulatorAppArgs(udid string, opts AppOptions) ([]string, map[string]string, error) {
	if udid == "" {
		return nil, nil, fmt.Errorf("cannot build launch arguments without a device UDID")
	}
	if opts.Scale < 0 {
		return nil, nil, fmt.Errorf("invalid window scale %v", opts.Scale)
	}

	args := []string{"-CurrentDeviceUDID", udid}
	if opts.ConnectHardwareKeyboard {
		args = append(args, "-ConnectHardwareKeyboard", "1")
	}
	if opts.Scale > 0 {
		args = append(args, "-SimulatorWindowLastScale-"+udid, strconv.FormatFloat(opts.Scale, 'f', -1, 64))
	}
	if opts.DeviceSetPath != "" {
		args = append(args, "-DeviceSetPath", opts.DeviceSetPath)
	}

	env := map[string]string{}
	if opts.DeviceSetPath != "" {
		env["SIMULATOR_DEVICE_SET_PATH"] = opts.DeviceSetPath
	}

	return args, env, nil
}
