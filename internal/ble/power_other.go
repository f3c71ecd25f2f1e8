//go:build !linux

package ble

// adapterPowered reports true: on macOS and Windows, Enable only returns
// once the radio is powered on.
func adapterPowered() (bool, error) {
	return true, nil
}
