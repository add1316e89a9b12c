package crud

import (
	"database/sql"
)

// scanRows scans every row into the requested output shape
func scanRows(rows *sql.Rows, output Output) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Output: output, Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = normalizeValue(values[i])
		}

		switch output {
		case OutputNumeric:
			result.Values = append(result.Values, values)
		default:
			record := make(Record, len(columns))
			for i, col := range columns {
				record[col] = values[i]
			}
			if output == OutputAssoc {
				result.Rows = append(result.Rows, record)
			} else {
				result.Objects = append(result.Objects, newObject(columns, record))
			}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// normalizeValue converts driver byte slices to strings so records are
// comparable and JSON friendly
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
