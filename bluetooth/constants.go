package bluetooth

import "time"

const (
	// Control service and characteristic UUIDs (must match the pin firmware)
	PillServiceUUID   = "0000ffe0-0000-1000-8000-00805f9b34fb"
	TimeSyncCharUUID  = "0000ffe1-0000-1000-8000-00805f9b34fb" // write
	PillEventCharUUID = "0000ffe2-0000-1000-8000-00805f9b34fb" // notify

	// Device identification
	DeviceNamePrefix = "Xiao"

	// BlueZ D-Bus names
	bluezBusName            = "org.bluez"
	adapterInterface        = "org.bluez.Adapter1"
	deviceInterface         = "org.bluez.Device1"
	serviceInterface        = "org.bluez.GattService1"
	characteristicInterface = "org.bluez.GattCharacteristic1"

	// Time to let BlueZ populate the object tree after StartDiscovery
	// and after Device1.Connect
	discoverySettle = 2 * time.Second
	resolveSettle   = 5 * time.Second
)
