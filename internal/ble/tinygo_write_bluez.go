//go:build !darwin && !windows

package ble

// Write hands data to BlueZ. tinygo/bluetooth only exposes
// WriteWithoutResponse here, but on Linux it is a blocking
// GattCharacteristic1.WriteValue call, so the returned error is still the
// transport's result for the write.
func (c *tinyGoCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}
