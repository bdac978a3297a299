package index

import "difly/internal/core"

// dialectQuirks documents each known driver-level value idiosyncrasy and how
// this package's NormalizePair resolves it. Keeping this as a fixed,
// readable table (rather than scattering the logic across call sites)
// matches the specification's requirement that normalization be
// "documented per dialect in a fixed table."
var dialectQuirks = []string{
	"postgres: numeric/decimal columns scan as text and are carried as Decimal; never as float64.",
	"mysql/mariadb: TINYINT(1) is MySQL's conventional boolean encoding but is carried as Integer, never Bool.",
	"sqlite: every INTEGER column (including 0/1 flags) is carried as Integer, never Bool; SQLite's dynamic typing means a column declared BOOLEAN still stores native 0/1 integers.",
	"all dialects: a schema-declared integer column whose driver hands back Decimal text (common for aggregate/computed columns) is normalized to Decimal on both sides before comparison, never demoted through a binary float.",
}

// DialectQuirks returns the fixed documentation table describing the rules
// NormalizePair and the drivers apply.
func DialectQuirks() []string { return dialectQuirks }

// NormalizePair reconciles one known cross-kind idiosyncrasy before
// Value.Equals is applied: if exactly one of a/b is Decimal and the other
// is Integer, the Integer side is promoted to an equivalent Decimal text
// value so the comparison is meaningful instead of an automatic mismatch.
// No other cross-kind coercion is performed — a SQLite/MySQL integer column
// that looks like a boolean is promoted to Bool only if both sides are
// already Bool; this function never manufactures a Bool from an Integer.
func NormalizePair(a, b core.Value) (core.Value, core.Value) {
	if a.Kind() == core.KindDecimal && b.Kind() == core.KindInteger {
		if i, ok := b.AsInteger(); ok {
			return a, core.NewDecimal(formatInt(i))
		}
	}
	if b.Kind() == core.KindDecimal && a.Kind() == core.KindInteger {
		if i, ok := a.AsInteger(); ok {
			return core.NewDecimal(formatInt(i)), b
		}
	}
	return a, b
}

func formatInt(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	u := uint64(i)
	if neg {
		u = uint64(-i)
	}
	var buf [20]byte
	pos := len(buf)
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}
	s := string(buf[pos:])
	if neg {
		return "-" + s
	}
	return s
}
