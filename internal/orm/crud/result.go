package crud

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Record is a single row keyed by column name
type Record map[string]any

// Output selects the row representation returned by Query
type Output int

const (
	// OutputObject returns rows as *Object values
	OutputObject Output = iota
	// OutputAssoc returns rows as Records keyed by column name
	OutputAssoc
	// OutputNumeric returns rows as positional value slices
	OutputNumeric
)

// String returns the string representation of the output shape
func (o Output) String() string {
	switch o {
	case OutputObject:
		return "object"
	case OutputAssoc:
		return "assoc"
	case OutputNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// ParseOutput converts a string to an Output. Empty means OutputObject.
func ParseOutput(s string) (Output, error) {
	switch s {
	case "", "object":
		return OutputObject, nil
	case "assoc":
		return OutputAssoc, nil
	case "numeric":
		return OutputNumeric, nil
	default:
		return 0, fmt.Errorf("unknown output shape: %s", s)
	}
}

// Result is the outcome of a table query. Exactly one of Objects, Rows,
// Values or Count is populated, according to Output and whether the query
// counted rows.
type Result struct {
	Output  Output    `json:"output"`
	Columns []string  `json:"columns,omitempty"`
	Objects []*Object `json:"objects,omitempty"`
	Rows    []Record  `json:"rows,omitempty"`
	Values  [][]any   `json:"values,omitempty"`
	Count   *int64    `json:"count,omitempty"`
}

// Len returns the number of rows, or the aggregate count for count queries
func (r *Result) Len() int {
	if r.Count != nil {
		return int(*r.Count)
	}
	switch r.Output {
	case OutputAssoc:
		return len(r.Rows)
	case OutputNumeric:
		return len(r.Values)
	default:
		return len(r.Objects)
	}
}

// Records returns the rows as Records regardless of the output shape
func (r *Result) Records() []Record {
	switch r.Output {
	case OutputAssoc:
		return r.Rows
	case OutputNumeric:
		records := make([]Record, len(r.Values))
		for i, values := range r.Values {
			rec := make(Record, len(r.Columns))
			for j, col := range r.Columns {
				rec[col] = values[j]
			}
			records[i] = rec
		}
		return records
	default:
		records := make([]Record, len(r.Objects))
		for i, obj := range r.Objects {
			records[i] = obj.Record()
		}
		return records
	}
}

// Object is an object-like row with ordered columns
type Object struct {
	columns []string
	values  Record
}

func newObject(columns []string, values Record) *Object {
	return &Object{columns: columns, values: values}
}

// Get returns the value of a column
func (o *Object) Get(column string) (any, bool) {
	v, ok := o.values[column]
	return v, ok
}

// Columns returns the column names in select order
func (o *Object) Columns() []string {
	return append([]string(nil), o.columns...)
}

// Record returns a copy of the object's values
func (o *Object) Record() Record {
	rec := make(Record, len(o.values))
	for k, v := range o.values {
		rec[k] = v
	}
	return rec
}

// Decode copies the object's values into dst, a pointer to a struct whose
// fields carry `db` tags. Values are converted weakly (e.g. "1" -> 1).
func (o *Object) Decode(dst any) error {
	return DecodeRecord(o.values, dst)
}

// MarshalJSON implements json.Marshaler
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.values)
}

// DecodeRecord copies a record into a struct using `db` tags
func DecodeRecord(rec Record, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "db",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02 15:04:05"),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(rec)); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
