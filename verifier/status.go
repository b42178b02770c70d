package verifier

import "fmt"

// Status is the outcome of inspecting one block. The ordinal values are
// part of the wire format and must not be reordered.
type Status uint8

const (
	Recovered Status = iota
	Valid
	Tampered
)

var statusNames = [...]string{
	Recovered: "Recovered",
	Valid:     "Valid",
	Tampered:  "Tampered",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// IsKnown reports whether s is one of the three defined statuses.
func (s Status) IsKnown() bool {
	return int(s) < len(statusNames)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.IsKnown() {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus returns the status with the given name.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// StatusFromOrdinal converts a wire ordinal back into a Status.
func StatusFromOrdinal(ordinal uint32) (Status, error) {
	if ordinal >= uint32(len(statusNames)) {
		return 0, fmt.Errorf("unknown status ordinal %d", ordinal)
	}
	return Status(ordinal), nil
}
