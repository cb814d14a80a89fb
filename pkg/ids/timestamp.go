package ids

import "time"

// canonicalTimestampLayout is the ISO-8601 form fed to the signature function.
// Seven fractional digits (100 ns resolution, matching the ".fffffff"
// convention) are always emitted, even when the underlying value is whole
// seconds.
const canonicalTimestampLayout = "2006-01-02T15:04:05.0000000Z"

// Timestamp is a UTC instant whose canonical string form is stable across
// builds and is the exact byte sequence signed by Sign.
type Timestamp struct {
	t time.Time
}

// Now returns the current UTC instant.
func Now() Timestamp { return Timestamp{t: time.Now().UTC()} }

// FromTime wraps an existing time.Time, normalizing it to UTC.
func FromTime(t time.Time) Timestamp { return Timestamp{t: t.UTC()} }

// Time returns the underlying time.Time value.
func (ts Timestamp) Time() time.Time { return ts.t }

// String renders the canonical ISO-8601 form.
func (ts Timestamp) String() string { return ts.t.Format(canonicalTimestampLayout) }

func (ts Timestamp) MarshalText() ([]byte, error) { return []byte(ts.String()), nil }

func (ts *Timestamp) UnmarshalText(text []byte) error {
	parsed, err := time.Parse(canonicalTimestampLayout, string(text))
	if err != nil {
		return err
	}
	ts.t = parsed.UTC()
	return nil
}

func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }
func (ts Timestamp) After(other Timestamp) bool  { return ts.t.After(other.t) }

// ParseTimestamp parses the canonical ISO-8601 string form.
func ParseTimestamp(s string) (Timestamp, error) {
	var ts Timestamp
	if err := ts.UnmarshalText([]byte(s)); err != nil {
		return Timestamp{}, err
	}
	return ts, nil
}
