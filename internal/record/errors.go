package record

import (
	"fmt"
	"strings"
)

// DecodeError records a field that could not be extracted from a ledger
// record, together with every strategy that was attempted.
type DecodeError struct {
	Field     string
	Attempted []string
	Detail    string
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode field %q: no strategy yielded a value (attempted %s)",
		e.Field, strings.Join(e.Attempted, ", "))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
