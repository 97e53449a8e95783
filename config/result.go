package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/lineregistration/registration"
)

// WriteResult writes alignment as indented JSON to path.
func WriteResult(path string, alignment *registration.Alignment) error {
	if alignment == nil {
		return errors.New("no alignment to write")
	}
	data, err := json.MarshalIndent(alignment, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, append(data, '\n'), 0o644), "writing result file %q", path)
}

// ReadResult reads an alignment written by WriteResult.
func ReadResult(path string) (*registration.Alignment, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading result file %q", path)
	}
	var alignment registration.Alignment
	if err := json.Unmarshal(data, &alignment); err != nil {
		return nil, errors.Wrapf(err, "result file %q", path)
	}
	return &alignment, nil
}
