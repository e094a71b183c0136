package check

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"codeberg.org/mutker/smartmon/internal/smart"
	"codeberg.org/mutker/smartmon/internal/store"
)

// Attribute IDs evaluated by the ATA check.
const (
	idReallocatedSectors  = 5
	idPowerOnHours        = 9
	idSpinRetries         = 10
	idPowerCycles         = 12
	idEndToEndErrors      = 184
	idUncorrectableErrors = 187
	idCommandTimeout      = 188
	idReallocatedEvents   = 196
	idPendingSectors      = 197
	idCRCErrors           = 199
)

// maxCommandTimeoutsPerHour is the fixed ceiling for the command
// timeout counter rate.
const maxCommandTimeoutsPerHour = 100

// udmaCRCErrorName is the vendor attribute name that switches ID 199
// to the UDMA specific label and metric.
const udmaCRCErrorName = "UDMA_CRC_Error_Count"

// rateKeyCommandTimeout is the value-store key for the command timeout
// counter sample.
const rateKeyCommandTimeout = "cmd_timeout"

type ruleKind uint8

const (
	// ruleRegression compares the raw value against the baseline
	// captured at discovery.
	ruleRegression ruleKind = iota
	// ruleInformational always reports OK with the rendered raw value.
	ruleInformational
	// ruleRate alerts on the counter's rate of change, never on the
	// baseline.
	ruleRate
)

// ataRule describes how one attribute is evaluated. The table drives
// both discovery (non-informational rules snapshot their raw value)
// and the check dispatch.
type ataRule struct {
	id     int
	label  string
	metric string
	kind   ruleKind

	// render formats the raw value of informational rules; nil renders
	// a plain integer.
	render func(float64) string

	// normalizedFloor additionally alerts when the normalized value
	// falls below its own vendor defined threshold.
	normalizedFloor bool

	// udmaLabel and udmaMetric replace label and metric when the
	// vendor name marks a UDMA CRC counter.
	udmaLabel  string
	udmaMetric string
}

var ataRules = []ataRule{
	{id: idReallocatedSectors, label: "Reallocated sectors", metric: "harddrive_reallocated_sectors", kind: ruleRegression},
	{id: idPowerOnHours, label: "Powered on", metric: "uptime", kind: ruleInformational, render: renderTimespan},
	{id: idSpinRetries, label: "Spin retries", metric: "harddrive_spin_retries", kind: ruleRegression},
	{id: idPowerCycles, label: "Power cycles", metric: "harddrive_power_cycles", kind: ruleInformational},
	{id: idEndToEndErrors, label: "End-to-End Errors", metric: "harddrive_end_to_end_errors", kind: ruleRegression},
	{id: idUncorrectableErrors, label: "Uncorrectable errors", metric: "harddrive_uncorrectable_errors", kind: ruleRegression},
	{id: idCommandTimeout, label: "Command Timeout Counter", metric: "harddrive_cmd_timeouts", kind: ruleRate},
	{id: idReallocatedEvents, label: "Reallocated events", metric: "harddrive_reallocated_events", kind: ruleRegression, normalizedFloor: true},
	{id: idPendingSectors, label: "Pending sectors", metric: "harddrive_pending_sectors", kind: ruleRegression},
	{id: idCRCErrors, label: "CRC errors", metric: "harddrive_crc_errors", kind: ruleRegression, udmaLabel: "UDMA CRC errors", udmaMetric: "harddrive_udma_crc_errors"},
}

// Baseline holds the raw values captured at discovery, keyed by
// attribute ID. A missing key means the attribute was absent when the
// service was discovered; such attributes always report OK.
type Baseline map[int]int64

// AttributeService is one monitored-item proposal from attribute
// discovery.
type AttributeService struct {
	Item   string
	Params AttributeParams
}

// AttributeParams are the persisted service parameters: the disk's
// identity key and its frozen baseline. The check path never rewrites
// them.
type AttributeParams struct {
	Key      smart.DeviceKey `json:"key"`
	Baseline Baseline        `json:"baseline"`
}

// DiscoverAttributes proposes one item per ATA disk exposing a SMART
// attribute table, snapshotting the raw values of the tracked
// attributes as the service's baseline.
func DiscoverAttributes(params DiscoveryParams, section *smart.Section) []AttributeService {
	var services []AttributeService
	for key, disk := range section.Devices {
		if !disk.IsATA() || !disk.HasAttributes() {
			continue
		}

		baseline := Baseline{}
		for _, rule := range ataRules {
			if rule.kind == ruleInformational {
				continue
			}
			if attr := disk.ByID(rule.id); attr != nil {
				baseline[rule.id] = attr.Raw
			}
		}

		services = append(services, AttributeService{
			Item:   itemName(disk, params.ItemType),
			Params: AttributeParams{Key: key, Baseline: baseline},
		})
	}

	sort.Slice(services, func(i, j int) bool { return services[i].Item < services[j].Item })

	return services
}

// Attributes evaluates every tracked attribute present on the disk
// independently. A missing disk or a non-ATA record yields an empty
// report; a missing attribute yields no output for that attribute.
// The value store is only touched by the rate rule.
func Attributes(
	item string,
	params AttributeParams,
	section *smart.Section,
	values store.ItemStore,
	now time.Time,
) (*Report, error) {
	rep := &Report{}

	disk := section.Disk(params.Key)
	if disk == nil || !disk.IsATA() {
		return rep, nil
	}

	for _, rule := range ataRules {
		attr := disk.ByID(rule.id)
		if attr == nil {
			continue
		}

		switch rule.kind {
		case ruleRegression:
			label, metric := rule.label, rule.metric
			if rule.udmaLabel != "" && attr.Name == udmaCRCErrorName {
				label, metric = rule.udmaLabel, rule.udmaMetric
			}

			discovered, recorded := params.Baseline[rule.id]
			checkAgainstDiscovery(rep, attr.Raw, discovered, recorded, label, metric)

			if rule.normalizedFloor {
				checkNormalizedFloor(rep, attr)
			}
		case ruleInformational:
			text := strconv.FormatInt(attr.Raw, 10)
			if rule.render != nil {
				text = rule.render(float64(attr.Raw))
			}
			rep.result(StateOK, fmt.Sprintf("%s: %s", rule.label, text))
			rep.metric(rule.metric, float64(attr.Raw))
		case ruleRate:
			if err := checkCounterRate(rep, rule, attr, values, now); err != nil {
				return nil, err
			}
		}
	}

	return rep, nil
}

// checkAgainstDiscovery is the shared regression rule: CRIT when the
// current raw value strictly exceeds the discovered one, OK otherwise
// or when no baseline was recorded. The metric is emitted regardless
// of state.
func checkAgainstDiscovery(rep *Report, value, discovered int64, recorded bool, label, metric string) {
	if recorded && value > discovered {
		rep.result(StateCrit, fmt.Sprintf("%s: %d (during discovery: %d)", label, value, discovered))
	} else {
		rep.result(StateOK, fmt.Sprintf("%s: %d", label, value))
	}
	rep.metric(metric, float64(value))
}

// checkNormalizedFloor alerts when the normalized value falls below
// the vendor defined threshold. Emitted independently of the
// regression result for the same attribute, never merged with it.
func checkNormalizedFloor(rep *Report, attr *smart.Attribute) {
	if attr.Value < attr.Thresh {
		rep.result(StateCrit, fmt.Sprintf("Normalized value: %d (below threshold %d)", attr.Value, attr.Thresh))
	} else {
		rep.result(StateOK, fmt.Sprintf("Normalized value: %d", attr.Value))
	}
}

// checkCounterRate alerts when the counter's rate of change, scaled to
// counts per hour, reaches the fixed ceiling. The first sample per
// item primes the store and emits only the metric.
func checkCounterRate(rep *Report, rule ataRule, attr *smart.Attribute, values store.ItemStore, now time.Time) error {
	rate, ok, err := getRate(values, rateKeyCommandTimeout, now, float64(attr.Raw))
	if err != nil {
		return err
	}

	if ok {
		if rate >= maxCommandTimeoutsPerHour/3600.0 {
			rep.result(StateCrit, fmt.Sprintf("%s: %d (counter increased more than %d counts / h)",
				rule.label, attr.Raw, maxCommandTimeoutsPerHour))
		} else {
			rep.result(StateOK, fmt.Sprintf("%s: %d", rule.label, attr.Raw))
		}
	}
	rep.metric(rule.metric, float64(attr.Raw))

	return nil
}
