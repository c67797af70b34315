// AngelaMos | 2026
// status.go

package account

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Status int

const (
	StatusInactive Status = iota
	StatusActive
	StatusBanned
	StatusDeleted
)

var statusNames = map[Status]string{
	StatusInactive: "inactive",
	StatusActive:   "active",
	StatusBanned:   "banned",
	StatusDeleted:  "deleted",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func ParseStatus(v string) (Status, error) {
	for s, name := range statusNames {
		if name == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown account status %q", v)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*s = Status(v)
	case int32:
		*s = Status(v)
	case int16:
		*s = Status(v)
	default:
		return fmt.Errorf("scan account status from %T", src)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid account status %d", int(*s))
	}
	return nil
}

// InitialStatus is the status of a freshly registered account. With mail
// configured the account waits for email verification.
func InitialStatus(mailEnabled bool) Status {
	if mailEnabled {
		return StatusInactive
	}
	return StatusActive
}
