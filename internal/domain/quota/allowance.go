package quota

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const unlimitedToken = "unlimited"

// Allowance is a remaining posting count that may be unbounded.
// The zero value is a finite allowance of 0.
type Allowance struct {
	unlimited bool
	count     int
}

// Unlimited returns the unbounded allowance.
func Unlimited() Allowance { return Allowance{unlimited: true} }

// Limited returns a finite allowance of n.
func Limited(n int) Allowance { return Allowance{count: n} }

// IsUnlimited reports whether a is unbounded.
func (a Allowance) IsUnlimited() bool { return a.unlimited }

// Count returns the finite count. It is meaningless when IsUnlimited is true.
func (a Allowance) Count() int { return a.count }

func (a Allowance) String() string {
	if a.unlimited {
		return unlimitedToken
	}
	return strconv.Itoa(a.count)
}

// MarshalJSON encodes the allowance as the string "unlimited" or a number.
func (a Allowance) MarshalJSON() ([]byte, error) {
	if a.unlimited {
		return []byte(`"` + unlimitedToken + `"`), nil
	}
	return []byte(strconv.Itoa(a.count)), nil
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (a *Allowance) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != unlimitedToken {
			return fmt.Errorf("quota: invalid allowance %q", s)
		}
		*a = Unlimited()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quota: invalid allowance: %w", err)
	}
	*a = Limited(n)
	return nil
}
