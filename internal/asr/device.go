package asr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"batchscribe/internal/config"
)

// Device describes where inference runs.
type Device struct {
	CUDA        bool
	Name        string
	MemoryBytes uint64
}

// CPU is the fallback device.
var CPU = Device{Name: "cpu"}

// Describe renders the device for the run log.
func (d Device) Describe() string {
	if !d.CUDA {
		return "No GPU available, using CPU."
	}
	if d.MemoryBytes == 0 {
		return fmt.Sprintf("GPU: %s", d.Name)
	}
	return fmt.Sprintf("GPU: %s (%s memory)", d.Name, humanize.IBytes(d.MemoryBytes))
}

// ProbeFunc runs a command and returns its standard output.
type ProbeFunc func(ctx context.Context, name string, args ...string) (string, error)

// ErrNoGPU reports that a CUDA device was required but none was found.
var ErrNoGPU = errors.New("no CUDA device found")

// ProbeDevice resolves the configured device preference. "cpu" never probes;
// "auto" falls back to CPU when nvidia-smi is missing or reports nothing;
// "cuda" returns ErrNoGPU in that case.
func ProbeDevice(ctx context.Context, preference string, probe ProbeFunc) (Device, error) {
	if preference == config.DeviceCPU {
		return CPU, nil
	}
	if probe == nil {
		probe = runProbe
	}
	out, err := probe(ctx, "nvidia-smi", "--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	if err == nil {
		if dev, ok := parseNvidiaSMI(out); ok {
			return dev, nil
		}
	}
	if preference == config.DeviceCUDA {
		if err != nil {
			return CPU, fmt.Errorf("%w: %w", ErrNoGPU, err)
		}
		return CPU, ErrNoGPU
	}
	return CPU, nil
}

// parseNvidiaSMI reads the first "name, MiB" line.
func parseNvidiaSMI(out string) (Device, bool) {
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, mem, _ := strings.Cut(line, ",")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dev := Device{CUDA: true, Name: name}
		if mib, err := strconv.ParseUint(strings.TrimSpace(mem), 10, 64); err == nil {
			dev.MemoryBytes = mib * 1024 * 1024
		}
		return dev, true
	}
	return Device{}, false
}

func runProbe(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", err
	}
	out, err := exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}
