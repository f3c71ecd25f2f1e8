//go:build darwin || windows

package ble

// Write uses a write with response; it returns once the peripheral has
// acknowledged the value.
func (c *tinyGoCharacteristic) Write(data []byte) error {
	_, err := c.char.Write(data)
	return err
}
