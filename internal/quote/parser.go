// Package quote parses raw delimited market data records into typed quote
// records for the aggregation pipeline.
package quote

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Delimiter separates fields on the wire:
// provider|pair|buy_1M|sell_1M|buy_3M|sell_3M|buy_5M|sell_5M|timestamp
const Delimiter = "|"

const numFields = 9

// Record is one provider's full quote across the three volume tiers.
// Buys and Sells are indexed 1M, 3M, 5M and rounded to pip precision.
type Record struct {
	Provider  string
	Pair      string
	Buys      [3]decimal.Decimal
	Sells     [3]decimal.Decimal
	Timestamp uint64
}

// FieldCountError reports a record with fewer fields than the wire format
// requires.
type FieldCountError struct {
	Got int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("market data record has %d fields, need %d", e.Got, numFields)
}

// EmptyFieldError reports a required field that is blank after trimming.
type EmptyFieldError struct {
	Field string
}

func (e *EmptyFieldError) Error() string {
	return fmt.Sprintf("market data field %q is empty", e.Field)
}

// NumericFormatError reports a price or timestamp field that does not parse.
type NumericFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *NumericFormatError) Error() string {
	return fmt.Sprintf("market data field %q: cannot parse %q: %v", e.Field, e.Value, e.Err)
}

func (e *NumericFormatError) Unwrap() error { return e.Err }

// Parse turns one raw record into a Record. It is pure: errors are returned
// for the caller to log and skip, the process never terminates on bad input.
// precision is the instrument's pip precision; prices are rounded to it so
// later equality checks are tolerance-free.
func Parse(raw string, precision int32) (Record, error) {
	fields := strings.Split(raw, Delimiter)
	if len(fields) < numFields {
		return Record{}, &FieldCountError{Got: len(fields)}
	}

	provider := strings.TrimSpace(fields[0])
	if provider == "" {
		return Record{}, &EmptyFieldError{Field: "provider"}
	}
	pair := strings.TrimSpace(fields[1])
	if pair == "" {
		return Record{}, &EmptyFieldError{Field: "currency_pair"}
	}

	rec := Record{Provider: provider, Pair: pair}
	names := [6]string{"buy_1M", "sell_1M", "buy_3M", "sell_3M", "buy_5M", "sell_5M"}
	for i, name := range names {
		price, err := parsePrice(name, fields[2+i], precision)
		if err != nil {
			return Record{}, err
		}
		if i%2 == 0 {
			rec.Buys[i/2] = price
		} else {
			rec.Sells[i/2] = price
		}
	}

	ts, err := strconv.ParseUint(strings.TrimSpace(fields[8]), 10, 64)
	if err != nil {
		return Record{}, &NumericFormatError{Field: "timestamp", Value: fields[8], Err: err}
	}
	rec.Timestamp = ts
	return rec, nil
}

func parsePrice(name, value string, precision int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, &NumericFormatError{Field: name, Value: value, Err: err}
	}
	return d.Round(precision), nil
}
