// Package check turns a device section into service states and
// metrics: discovery proposes monitored items and freezes their
// baselines, checks compare live data against those baselines and
// fixed thresholds.
package check

import "codeberg.org/mutker/smartmon/internal/smart"

// State is the monitoring outcome of a single evaluation.
type State uint8

const (
	StateOK State = iota
	StateWarn
	StateCrit
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "OK"
	case StateWarn:
		return "WARN"
	case StateCrit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Result pairs a state with its human readable summary.
type Result struct {
	State   State
	Summary string
}

// Metric carries one numeric value for graphing. Metrics are emitted
// regardless of the state of the result they accompany.
type Metric struct {
	Name  string
	Value float64
}

// Report collects everything one check invocation emitted, in
// evaluation order. An empty report means the check skipped silently.
type Report struct {
	Results []Result
	Metrics []Metric
}

func (r *Report) result(state State, summary string) {
	r.Results = append(r.Results, Result{State: state, Summary: summary})
}

func (r *Report) metric(name string, value float64) {
	r.Metrics = append(r.Metrics, Metric{Name: name, Value: value})
}

// Worst returns the most severe state in the report, StateOK for an
// empty one. StateUnknown outranks everything but StateCrit.
func (r *Report) Worst() State {
	worst := StateOK
	for _, res := range r.Results {
		if rank(res.State) > rank(worst) {
			worst = res.State
		}
	}

	return worst
}

func rank(s State) int {
	switch s {
	case StateOK:
		return 0
	case StateWarn:
		return 1
	case StateUnknown:
		return 2
	default:
		return 3
	}
}

// ItemType selects how discovered services are named.
type ItemType string

const (
	ItemDeviceName  ItemType = "device_name"
	ItemModelSerial ItemType = "model_serial"
)

// DiscoveryParams configure discovery; they change service naming,
// never evaluation.
type DiscoveryParams struct {
	ItemType ItemType
}

func itemName(d *smart.Disk, t ItemType) string {
	if t == ItemModelSerial {
		return d.ModelName + " " + d.SerialNumber
	}

	return d.Device.Name
}
