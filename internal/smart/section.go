// Package smart models the device section shared by all checks: one
// record per scanned disk, parsed from smartctl --all --json output.
package smart

import (
	"bufio"
	"encoding/json"
	"io"

	"codeberg.org/mutker/smartmon/internal/errors"
)

// Protocol tags the device class reported by smartctl.
type Protocol string

const (
	ProtocolATA  Protocol = "ATA"
	ProtocolNVMe Protocol = "NVMe"
	ProtocolSCSI Protocol = "SCSI"
)

// DeviceKey identifies a disk across check cycles, independent of the
// device node it happens to be attached to.
type DeviceKey struct {
	Model  string `json:"model"`
	Serial string `json:"serial"`
}

// DeviceInfo names the device node and its protocol.
type DeviceInfo struct {
	Name     string
	Protocol Protocol
}

// Temperature is the current reading in degrees Celsius.
type Temperature struct {
	Current int `json:"current"`
}

// Attribute is one row of the ATA SMART attribute table.
type Attribute struct {
	ID     int
	Name   string
	Value  int   // normalized health indicator, descending toward Thresh
	Thresh int   // vendor defined floor for the normalized value
	Raw    int64 // raw counter or gauge
}

// Disk is an immutable snapshot of one device for a single check
// cycle. Checks never mutate it.
type Disk struct {
	Device       DeviceInfo
	ModelName    string
	SerialNumber string
	Temperature  *Temperature

	attributes map[int]*Attribute
	hasTable   bool
}

// Key returns the identity tuple the section is indexed by.
func (d *Disk) Key() DeviceKey {
	return DeviceKey{Model: d.ModelName, Serial: d.SerialNumber}
}

// IsATA reports whether the disk carries the ATA attribute model.
func (d *Disk) IsATA() bool {
	return d.Device.Protocol == ProtocolATA
}

// HasAttributes reports whether the disk exposed a SMART attribute
// table at all. A disk may be ATA and still omit it.
func (d *Disk) HasAttributes() bool {
	return d.hasTable
}

// ByID returns the attribute with the given ID, or nil if the disk
// does not expose it.
func (d *Disk) ByID(id int) *Attribute {
	return d.attributes[id]
}

// NewDisk assembles a disk record directly, for callers that already
// hold parsed attribute rows. A nil attrs slice means the disk exposes
// no attribute table; an empty non-nil slice means an empty table.
func NewDisk(device DeviceInfo, model, serial string, temp *Temperature, attrs []Attribute) *Disk {
	d := &Disk{
		Device:       device,
		ModelName:    model,
		SerialNumber: serial,
		Temperature:  temp,
	}
	if attrs != nil {
		d.hasTable = true
		d.attributes = make(map[int]*Attribute, len(attrs))
		for i := range attrs {
			attr := attrs[i]
			d.attributes[attr.ID] = &attr
		}
	}

	return d
}

// Section is the collection of scanned devices, keyed by identity.
// Scans that failed (permission denied yields a null device) are
// counted, not treated as errors.
type Section struct {
	Devices  map[DeviceKey]*Disk
	Failures int
}

// NewSection returns an empty section ready for Add.
func NewSection() *Section {
	return &Section{Devices: make(map[DeviceKey]*Disk)}
}

// Disk looks up a device by identity key, nil when absent.
func (s *Section) Disk(key DeviceKey) *Disk {
	return s.Devices[key]
}

// Add inserts a parsed disk; a nil disk records a failed scan.
func (s *Section) Add(d *Disk) {
	if d == nil {
		s.Failures++
		return
	}
	s.Devices[d.Key()] = d
}

// document is the subset of smartctl --all --json this module reads.
type document struct {
	Device *struct {
		Name     string `json:"name"`
		Protocol string `json:"protocol"`
	} `json:"device"`
	ModelName          string       `json:"model_name"`
	SerialNumber       string       `json:"serial_number"`
	Temperature        *Temperature `json:"temperature"`
	ATASmartAttributes *struct {
		Table []struct {
			ID     int    `json:"id"`
			Name   string `json:"name"`
			Value  int    `json:"value"`
			Thresh int    `json:"thresh"`
			Raw    struct {
				Value int64 `json:"value"`
			} `json:"raw"`
		} `json:"table"`
	} `json:"ata_smart_attributes"`
}

// ParseDocument parses a single smartctl JSON document. A document
// without a device block (smartctl could not open the disk) yields a
// nil disk and no error.
func ParseDocument(data []byte) (*Disk, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New().Wrap(errors.ErrParseFailed, err)
	}

	if doc.Device == nil {
		return nil, nil
	}

	disk := &Disk{
		Device: DeviceInfo{
			Name:     doc.Device.Name,
			Protocol: Protocol(doc.Device.Protocol),
		},
		ModelName:    doc.ModelName,
		SerialNumber: doc.SerialNumber,
		Temperature:  doc.Temperature,
	}

	if doc.ATASmartAttributes != nil {
		// Lookup table built once per disk, attribute IDs are sparse.
		disk.hasTable = true
		disk.attributes = make(map[int]*Attribute, len(doc.ATASmartAttributes.Table))
		for _, row := range doc.ATASmartAttributes.Table {
			disk.attributes[row.ID] = &Attribute{
				ID:     row.ID,
				Name:   row.Name,
				Value:  row.Value,
				Thresh: row.Thresh,
				Raw:    row.Raw.Value,
			}
		}
	}

	return disk, nil
}

// maxDocumentSize bounds a single smartctl JSON line.
const maxDocumentSize = 1 << 20

// Parse reads agent output with one smartctl JSON document per line
// and assembles the section. Blank lines are skipped.
func Parse(r io.Reader) (*Section, error) {
	section := NewSection()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDocumentSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		disk, err := ParseDocument(line)
		if err != nil {
			return nil, err
		}
		section.Add(disk)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New().Wrap(errors.ErrReadInput, err)
	}

	return section, nil
}
