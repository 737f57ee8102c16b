package wire

// Status is the single status byte that completes a command or attribute
// request.
type Status uint8

const (
	// StatusSuccess indicates the request completed successfully.
	StatusSuccess Status = 0x00

	// StatusFailure is a generic failure reported by the accessory.
	StatusFailure Status = 0x01

	// StatusInvalidAttribute indicates the attribute ID is unknown.
	StatusInvalidAttribute Status = 0x02

	// StatusInvalidCommand indicates the command is not supported.
	StatusInvalidCommand Status = 0x03

	// StatusInvalidParameter indicates a payload was malformed or out of range.
	StatusInvalidParameter Status = 0x04

	// StatusReadOnly indicates an attempt to write a read-only attribute.
	StatusReadOnly Status = 0x05

	// StatusNotAuthorized indicates the accessory refused the request.
	StatusNotAuthorized Status = 0x06

	// StatusBusy indicates the accessory cannot take the request right now.
	StatusBusy Status = 0x07

	// StatusChecksum indicates an image or packet checksum mismatch.
	StatusChecksum Status = 0x08
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusInvalidAttribute:
		return "INVALID_ATTRIBUTE"
	case StatusInvalidCommand:
		return "INVALID_COMMAND"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusReadOnly:
		return "READ_ONLY"
	case StatusNotAuthorized:
		return "NOT_AUTHORIZED"
	case StatusBusy:
		return "BUSY"
	case StatusChecksum:
		return "CHECKSUM"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}
