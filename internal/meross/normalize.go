package meross

import (
	"fmt"
	"strings"

	"github.com/prudhvinik1/homesync/internal/models"
)

// Alias sets for canonical device fields. Mapping records and
// attribute-bearing records have historically used different names for the
// device id, so they get separate orders.
var (
	mapDeviceIDAliases   = []string{"uuid", "deviceId", "id"}
	fieldDeviceIDAliases = []string{"uuid", "device_id"}

	deviceNameAliases  = []string{"devName", "dev_name", "name"}
	deviceModelAliases = []string{"deviceType", "device_type", "model"}
	deviceTypeAliases  = []string{"type", "deviceType"}

	onlineStatusAliases = []string{"onlineStatus", "online_status", "online"}
	capabilitiesAliases = []string{"abilities", "capabilities"}
)

// NormalizeDevices maps a raw vendor device list of unknown shape into
// canonical records. It never fails and never returns nil: non-list input and
// unrecognized records degrade to empty values, not errors.
func NormalizeDevices(raw any) []models.Device {
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case []map[string]any:
		list = make([]any, len(v))
		for i, item := range v {
			list[i] = item
		}
	default:
		return []models.Device{}
	}

	devices := make([]models.Device, 0, len(list))
	for _, item := range list {
		devices = append(devices, normalizeDevice(item))
	}
	return devices
}

func normalizeDevice(item any) models.Device {
	switch record := item.(type) {
	case map[string]any:
		return deviceFromFields(record, mapDeviceIDAliases)
	case FieldProvider:
		return deviceFromFields(record.Fields(), fieldDeviceIDAliases)
	default:
		return models.Device{}
	}
}

func deviceFromFields(fields map[string]any, idAliases []string) models.Device {
	device := models.Device{
		DeviceID: firstString(fields, idAliases),
		Name:     firstString(fields, deviceNameAliases),
		Model:    firstString(fields, deviceModelAliases),
		Type:     firstString(fields, deviceTypeAliases),
	}

	// onlineStatus is copied only when the source value is strictly boolean;
	// "online" strings or numeric flags stay absent rather than be guessed.
	for _, alias := range onlineStatusAliases {
		if value, ok := fields[alias]; ok {
			if b, isBool := value.(bool); isBool {
				device.OnlineStatus = &b
			}
			break
		}
	}

	for _, alias := range capabilitiesAliases {
		if value, ok := fields[alias]; ok {
			if caps, isMap := value.(map[string]any); isMap {
				device.Capabilities = caps
			}
			break
		}
	}

	return device
}

// firstString resolves the first alias whose value renders to a non-empty
// string.
func firstString(fields map[string]any, aliases []string) string {
	for _, alias := range aliases {
		value, ok := fields[alias]
		if !ok || value == nil {
			continue
		}
		if s := asString(value); s != "" {
			return s
		}
	}
	return ""
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return strings.ToValidUTF8(string(v), "")
	case int, int32, int64, float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
