package check_test

import (
	"testing"

	"codeberg.org/mutker/smartmon/internal/check"
	"codeberg.org/mutker/smartmon/internal/smart"
	"codeberg.org/mutker/smartmon/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDisk(current int) *smart.Disk {
	return smart.NewDisk(
		smart.DeviceInfo{Name: "/dev/sda", Protocol: smart.ProtocolATA},
		testModel, testSerial, &smart.Temperature{Current: current}, nil,
	)
}

func TestDiscoverTemperature(t *testing.T) {
	withTemp := tempDisk(31)
	noTemp := smart.NewDisk(
		smart.DeviceInfo{Name: "/dev/sdb", Protocol: smart.ProtocolATA},
		"ST4000VN008", "ZDH123AB", nil, nil,
	)
	nvme := smart.NewDisk(
		smart.DeviceInfo{Name: "/dev/nvme0n1", Protocol: smart.ProtocolNVMe},
		"Samsung SSD 970", "S4EWNX0M123456", &smart.Temperature{Current: 45}, nil,
	)
	section := sectionWith(withTemp, noTemp, nvme)

	services := check.DiscoverTemperature(check.DiscoveryParams{ItemType: check.ItemDeviceName}, section)
	require.Len(t, services, 1, "disks without a reading and non-ATA disks are not proposed")
	assert.Equal(t, "/dev/sda", services[0].Item)
	assert.Equal(t, testKey, services[0].Key)
}

func TestTemperatureLevels(t *testing.T) {
	tests := []struct {
		name    string
		current int
		state   check.State
		summary string
	}{
		{name: "below warn", current: 34, state: check.StateOK, summary: "Temperature: 34.0 °C"},
		{name: "at warn", current: 35, state: check.StateWarn, summary: "Temperature: 35.0 °C (warn/crit at 35.0/40.0 °C)"},
		{name: "at crit", current: 40, state: check.StateCrit, summary: "Temperature: 40.0 °C (warn/crit at 35.0/40.0 °C)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := sectionWith(tempDisk(tt.current))
			params := check.TemperatureParams{Key: testKey, Levels: check.DefaultTempLevels}

			rep := check.Temperature("sda", params, section, store.NewMemory())
			require.Len(t, rep.Results, 1)
			assert.Equal(t, tt.state, rep.Results[0].State)
			assert.Equal(t, tt.summary, rep.Results[0].Summary)

			require.Len(t, rep.Metrics, 1)
			assert.Equal(t, check.Metric{Name: "temperature", Value: float64(tt.current)}, rep.Metrics[0])
		})
	}
}

func TestTemperatureGoesStaleSilently(t *testing.T) {
	params := check.TemperatureParams{Key: testKey, Levels: check.DefaultTempLevels}

	t.Run("disk gone", func(t *testing.T) {
		rep := check.Temperature("sda", params, smart.NewSection(), store.NewMemory())
		assert.Empty(t, rep.Results)
		assert.Empty(t, rep.Metrics)
	})

	t.Run("reading gone", func(t *testing.T) {
		disk := smart.NewDisk(
			smart.DeviceInfo{Name: "/dev/sda", Protocol: smart.ProtocolATA},
			testModel, testSerial, nil, nil,
		)
		rep := check.Temperature("sda", params, sectionWith(disk), store.NewMemory())
		assert.Empty(t, rep.Results)
	})
}
