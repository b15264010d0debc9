package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Save writes the parameter vector as an opaque little-endian blob:
// a u32 parameter count followed by raw float64 bits.
func (m *Logistic) Save(path string) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(m.params))); err != nil {
		return fmt.Errorf("model: encode header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, m.params); err != nil {
		return fmt.Errorf("model: encode params: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("model: write %s: %w", path, err)
	}
	return nil
}

// Load reads a model back from disk. A missing file is not an error: the
// trader starts from the degenerate zero-weight model and trains its way
// out, so first-run behavior is defined.
func Load(path string) (*Logistic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Logistic{params: make([]float64, FeatureCount)}, nil
		}
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	r := bytes.NewReader(raw)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("model: decode header: %w", err)
	}
	if int(count)*8 != r.Len() {
		return nil, fmt.Errorf("model: blob says %d params but carries %d bytes", count, r.Len())
	}
	params := make([]float64, count)
	if err := binary.Read(r, binary.LittleEndian, params); err != nil {
		return nil, fmt.Errorf("model: decode params: %w", err)
	}
	return &Logistic{params: params}, nil
}
