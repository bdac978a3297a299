package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"difly/internal/core"
)

// wireTimestamp carries a Timestamp Value's full state across the snapshot
// codec. core.Value.ToJSON renders a Timestamp as a plain string for the
// human-facing changeset/report formats, which drops hasOffset/offsetMin;
// the snapshot format needs exact round-tripping (an ancestor row must
// compare Equal to the same row freshly fetched from the source), so it
// carries the offset alongside the text instead of going through ToJSON.
type wireTimestamp struct {
	Value     string `json:"value"`
	HasOffset bool   `json:"has_offset,omitempty"`
	OffsetMin int    `json:"offset_min,omitempty"`
}

func encodeTimestamp(v core.Value) (json.RawMessage, error) {
	text, _ := v.AsText()
	hasOffset, offsetMin := v.TimestampOffset()
	return json.Marshal(wireTimestamp{Value: text, HasOffset: hasOffset, OffsetMin: offsetMin})
}

func decodeTimestamp(raw json.RawMessage, colName string) (core.Value, error) {
	var wt wireTimestamp
	if err := json.Unmarshal(raw, &wt); err != nil {
		return core.Value{}, fmt.Errorf("snapshot: decoding timestamp column %q: %w", colName, err)
	}
	return core.NewTimestamp(wt.Value, wt.HasOffset, wt.OffsetMin), nil
}

// valueFromJSON is the inverse of the snapshot codec's encoding above,
// disambiguated by the column's declared type tag the way the row indexer's
// driver layer disambiguates SQLite's dynamic typing: most kinds render as
// plain JSON strings, so the column's declared_type is authoritative for
// which Kind a string payload becomes; Timestamp is the one kind encoded as
// an object (see wireTimestamp) and is dispatched before the generic string
// path below.
func valueFromJSON(raw json.RawMessage, col core.Column) (core.Value, error) {
	if string(raw) == "null" {
		return core.Null, nil
	}

	lower := strings.ToLower(col.DeclaredType)

	if strings.HasPrefix(lower, "timestamp") || strings.HasPrefix(lower, "datetime") {
		return decodeTimestamp(raw, col.Name)
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return stringValue(asString, lower)
	}

	var asBool bool
	if err := json.Unmarshal(raw, &asBool); err == nil {
		return core.NewBool(asBool), nil
	}

	if strings.HasPrefix(lower, "decimal") || strings.HasPrefix(lower, "numeric") {
		return core.NewDecimal(string(raw)), nil
	}
	if strings.HasPrefix(lower, "float") || strings.HasPrefix(lower, "double") || strings.HasPrefix(lower, "real") {
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return core.Value{}, fmt.Errorf("snapshot: decoding float column %q: %w", col.Name, err)
		}
		return core.NewFloat(f), nil
	}

	i, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return core.Value{}, fmt.Errorf("snapshot: decoding column %q (declared %q): %w", col.Name, col.DeclaredType, err)
	}
	return core.NewInteger(i), nil
}

func stringValue(s string, lowerDeclaredType string) (core.Value, error) {
	if s == "NaN" && (strings.HasPrefix(lowerDeclaredType, "float") || strings.HasPrefix(lowerDeclaredType, "double") || strings.HasPrefix(lowerDeclaredType, "real")) {
		return core.NewFloat(nanValue()), nil
	}

	switch {
	case strings.HasPrefix(lowerDeclaredType, "decimal") || strings.HasPrefix(lowerDeclaredType, "numeric"):
		return core.NewDecimal(s), nil
	case lowerDeclaredType == "date":
		return core.NewDate(s), nil
	case strings.HasPrefix(lowerDeclaredType, "time"):
		// "timestamp"/"datetime" are dispatched to decodeTimestamp before
		// stringValue is ever called; only bare time-of-day reaches here.
		return core.NewTime(s), nil
	case lowerDeclaredType == "uuid":
		return core.NewUUID(s), nil
	case strings.HasPrefix(lowerDeclaredType, "json") || strings.HasPrefix(lowerDeclaredType, "jsonb"):
		return core.NewJSON(s)
	case strings.HasPrefix(lowerDeclaredType, "blob") || strings.HasPrefix(lowerDeclaredType, "bytea") || strings.HasPrefix(lowerDeclaredType, "binary"):
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return core.Value{}, err
		}
		return core.NewBytes(b), nil
	default:
		return core.NewText(s), nil
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
