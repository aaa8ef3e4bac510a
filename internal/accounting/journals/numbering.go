package journals

import (
	"fmt"
	"strconv"
)

const numberWidth = 6

// FormatNumber renders a sequence value as a zero-padded entry number.
func FormatNumber(n int64) string {
	return fmt.Sprintf("%0*d", numberWidth, n)
}

// NextNumber derives the next entry number from the current per-company
// maximum. An empty maximum starts the sequence. An unparsable maximum
// restarts it at "000001"; reset reports that case so the caller can
// surface a warning, since silently restarting can collide with existing
// numbers.
func NextNumber(lastNumber string) (next string, reset bool) {
	if lastNumber == "" {
		return FormatNumber(1), false
	}
	last, err := strconv.ParseInt(lastNumber, 10, 64)
	if err != nil {
		return FormatNumber(1), true
	}
	return FormatNumber(last + 1), false
}
