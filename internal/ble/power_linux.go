//go:build linux

package ble

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBusName     = "org.bluez"
	bluezAdapterPath = "/org/bluez/hci0"
	bluezAdapterIfc  = "org.bluez.Adapter1"
	dbusPropsGet     = "org.freedesktop.DBus.Properties.Get"
)

// adapterPowered reads the Powered property of the default BlueZ adapter.
// tinygo/bluetooth enables the adapter but does not track rfkill or
// bluetoothctl power changes afterwards.
func adapterPowered() (bool, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return false, fmt.Errorf("connect to system bus: %w", err)
	}
	var v dbus.Variant
	obj := conn.Object(bluezBusName, dbus.ObjectPath(bluezAdapterPath))
	if err := obj.Call(dbusPropsGet, 0, bluezAdapterIfc, "Powered").Store(&v); err != nil {
		return false, fmt.Errorf("read %s.Powered: %w", bluezAdapterIfc, err)
	}
	powered, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%s.Powered: unexpected type %T", bluezAdapterIfc, v.Value())
	}
	return powered, nil
}
