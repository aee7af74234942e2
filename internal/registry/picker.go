// internal/registry/picker.go
package registry

import (
	"fmt"

	"printer-service/internal/model"
)

// Picker chooses the device to connect among the printer candidates.
// It stands in for the operator's choice in a device selection dialog.
type Picker interface {
	Pick(candidates []model.PrinterDevice) (model.PrinterDevice, error)
}

// PickerFunc adapts a function to Picker
type PickerFunc func(candidates []model.PrinterDevice) (model.PrinterDevice, error)

func (f PickerFunc) Pick(candidates []model.PrinterDevice) (model.PrinterDevice, error) {
	return f(candidates)
}

// FirstCandidate picks the first candidate
func FirstCandidate() Picker {
	return PickerFunc(func(candidates []model.PrinterDevice) (model.PrinterDevice, error) {
		if len(candidates) == 0 {
			return model.PrinterDevice{}, model.ErrDeviceNotFound
		}
		return candidates[0], nil
	})
}

// ByID picks the candidate with the given device id
func ByID(deviceID string) Picker {
	return PickerFunc(func(candidates []model.PrinterDevice) (model.PrinterDevice, error) {
		for _, c := range candidates {
			if c.ID == deviceID {
				return c, nil
			}
		}
		return model.PrinterDevice{}, fmt.Errorf("%w: %s is not a printer candidate", model.ErrDeviceNotFound, deviceID)
	})
}
