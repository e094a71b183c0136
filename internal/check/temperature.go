package check

import (
	"fmt"
	"sort"

	"codeberg.org/mutker/smartmon/internal/smart"
	"codeberg.org/mutker/smartmon/internal/store"
)

// Levels are fixed upper alerting thresholds, warn at or below crit.
type Levels struct {
	Warn float64
	Crit float64
}

// DefaultTempLevels are the default temperature thresholds in °C.
var DefaultTempLevels = Levels{Warn: 35, Crit: 40}

// TemperatureService is one monitored-item proposal from temperature
// discovery.
type TemperatureService struct {
	Item string
	Key  smart.DeviceKey
}

// TemperatureParams are the persisted service parameters supplied back
// on every check call.
type TemperatureParams struct {
	Key    smart.DeviceKey `json:"key"`
	Levels Levels          `json:"levels"`
}

// DiscoverTemperature proposes one item per ATA disk with a current
// temperature reading. Other disks are skipped silently.
func DiscoverTemperature(params DiscoveryParams, section *smart.Section) []TemperatureService {
	var services []TemperatureService
	for key, disk := range section.Devices {
		if disk.IsATA() && disk.Temperature != nil {
			services = append(services, TemperatureService{
				Item: itemName(disk, params.ItemType),
				Key:  key,
			})
		}
	}

	sort.Slice(services, func(i, j int) bool { return services[i].Item < services[j].Item })

	return services
}

// Temperature checks the current reading of a discovered disk against
// the configured levels. A missing disk, a non-ATA record or an absent
// reading produces an empty report: the service goes stale instead of
// failing.
func Temperature(item string, params TemperatureParams, section *smart.Section, values store.ItemStore) *Report {
	rep := &Report{}

	disk := section.Disk(params.Key)
	if disk == nil || !disk.IsATA() || disk.Temperature == nil {
		return rep
	}

	checkTemperature(rep, float64(disk.Temperature.Current), params.Levels, "smart_"+item, values)

	return rep
}

// checkTemperature applies fixed upper levels to a reading. The unique
// name and value store mirror the call shape of the shared temperature
// helper; trend evaluation over the store is not wired up here.
func checkTemperature(rep *Report, reading float64, levels Levels, _ string, _ store.ItemStore) {
	state := StateOK
	switch {
	case reading >= levels.Crit:
		state = StateCrit
	case reading >= levels.Warn:
		state = StateWarn
	}

	summary := fmt.Sprintf("Temperature: %.1f °C", reading)
	if state != StateOK {
		summary += fmt.Sprintf(" (warn/crit at %.1f/%.1f °C)", levels.Warn, levels.Crit)
	}

	rep.result(state, summary)
	rep.metric("temperature", reading)
}
