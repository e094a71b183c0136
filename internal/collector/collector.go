// Package collector produces the device section consumed by the
// checks, either by running smartctl or by replaying agent output from
// a file.
package collector

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"

	"codeberg.org/mutker/smartmon/internal/errors"
	"codeberg.org/mutker/smartmon/internal/logger"
	"codeberg.org/mutker/smartmon/internal/smart"
)

type Collector struct {
	smartctl string
	input    string
}

// New resolves the smartctl binary unless an input file is given, in
// which case collection replays that file instead of scanning.
func New(smartctl, input string) (*Collector, error) {
	if input != "" {
		return &Collector{input: input}, nil
	}

	path, err := exec.LookPath(smartctl)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrNoSmartctl, err)
	}

	return &Collector{smartctl: path}, nil
}

func (c *Collector) Collect(ctx context.Context) (*smart.Section, error) {
	if c.input != "" {
		return c.collectFile()
	}

	return c.collectDevices(ctx)
}

func (c *Collector) collectFile() (*smart.Section, error) {
	f, err := os.Open(c.input)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrReadInput, err)
	}
	defer f.Close()

	return smart.Parse(f)
}

type scanResult struct {
	Devices []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"devices"`
}

func (c *Collector) collectDevices(ctx context.Context) (*smart.Section, error) {
	errFactory := errors.New()

	out, err := exec.CommandContext(ctx, c.smartctl, "--scan", "--json").Output()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrScanFailed, err)
	}

	var scan scanResult
	if err := json.Unmarshal(out, &scan); err != nil {
		return nil, errFactory.Wrap(errors.ErrScanFailed, err)
	}

	section := smart.NewSection()
	for _, dev := range scan.Devices {
		args := []string{"--all", "--json", dev.Name}
		if dev.Type != "" {
			args = []string{"--all", "--json", "-d", dev.Type, dev.Name}
		}

		// smartctl exits non-zero for many non-fatal reasons, so the
		// output decides, not the exit code.
		out, err := exec.CommandContext(ctx, c.smartctl, args...).Output()
		if err != nil && len(out) == 0 {
			logger.Warn().Err(err).Str("device", dev.Name).Msg("Failed to query device")
			section.Add(nil)
			continue
		}

		disk, err := smart.ParseDocument(out)
		if err != nil {
			logger.Warn().Err(err).Str("device", dev.Name).Msg("Failed to parse device output")
			section.Add(nil)
			continue
		}
		section.Add(disk)
	}

	logger.Debug().
		Int("devices", len(section.Devices)).
		Int("failures", section.Failures).
		Msg("Collected device section")

	return section, nil
}
