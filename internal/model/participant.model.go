package model

import "strings"

// Status is the lifecycle state of a participant row.
type Status string

const (
	StatusUnset         Status = ""
	StatusOptedOut      Status = "Opted Out"
	StatusInvalidFormat Status = "Invalid Format"
	StatusRejected      Status = "Rejected"
	StatusProcessed     Status = "Processed"
	StatusFailed        Status = "Failed"
	StatusError         Status = "Error"
)

// Statuses lists every value a run can write, in reporting order.
var Statuses = []Status{
	StatusOptedOut,
	StatusInvalidFormat,
	StatusRejected,
	StatusProcessed,
	StatusFailed,
	StatusError,
}

// Skippable reports whether a row carrying this status is left untouched on
// later runs. Invalid Format, Failed and Error rows are picked up again.
func (s Status) Skippable() bool {
	switch s {
	case StatusProcessed, StatusRejected, StatusOptedOut:
		return true
	}
	return false
}

// DeliveryStatus is the value of the DM Status column.
type DeliveryStatus string

const (
	DeliveryUnset  DeliveryStatus = ""
	DeliverySent   DeliveryStatus = "✅ Sent"
	DeliveryFailed DeliveryStatus = "❌ Failed"
)

const HandlePrefix = "u/"

// Participant is one sign-up row of the sheet.
type Participant struct {
	Index        int // 1-based, header excluded
	Handle       string
	DMPreference string
	Code         string
	Status       Status
	DMStatus     DeliveryStatus
}

// SheetRow is the row number in the sheet, header included.
func (p Participant) SheetRow() int {
	return p.Index + 1
}

// HasHandlePrefix reports whether the handle starts with u/, ignoring case.
func (p Participant) HasHandlePrefix() bool {
	return HasHandlePrefix(p.Handle)
}

func HasHandlePrefix(handle string) bool {
	return strings.HasPrefix(strings.ToLower(handle), HandlePrefix)
}

// StripHandle returns the bare account name of a u/<name> handle.
func StripHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if HasHandlePrefix(handle) {
		handle = handle[len(HandlePrefix):]
	}
	return strings.TrimSpace(handle)
}
