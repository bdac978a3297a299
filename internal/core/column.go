package core

// Column describes one position in a table's row shape.
type Column struct {
	// Name is the column identifier as reported by the driver.
	Name string
	// Ordinal is the column's position in catalog/declaration order. It
	// defines column order in emitted SQL and in reports; it need not match
	// the order columns are discovered in (drivers are required to report
	// it; the diff and merge sort their compared columns by it).
	Ordinal int
	// DeclaredType is the driver-reported type tag (e.g. "varchar(255)",
	// "numeric(10,2)"), carried for diagnostics; diffing never branches on
	// it directly, only on the normalized Value.Kind of cell contents.
	DeclaredType string
	// Nullable reports whether the column accepts NULL.
	Nullable bool
}

// Row is an ordered sequence of cell values, one per column, in the same
// order as the table's Column list.
type Row []Value

// Columns is an ordered column list, indexed by ordinal position.
type Columns []Column

// Names returns the column names in declared order.
func (cs Columns) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// IndexOf returns the 0-based position of the named column in cs, or -1.
func (cs Columns) IndexOf(name string) int {
	for i, c := range cs {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Intersect returns the column names present (by name) in both column
// lists, in the ordinal order of a, plus the names present only in a and
// only in b (the "phantom" columns of a schema-alignment check).
func (cs Columns) Intersect(other Columns) (common, onlyA, onlyB []string) {
	otherSet := make(map[string]bool, len(other))
	for _, c := range other {
		otherSet[c.Name] = true
	}
	aSet := make(map[string]bool, len(cs))
	for _, c := range cs {
		aSet[c.Name] = true
		if otherSet[c.Name] {
			common = append(common, c.Name)
		} else {
			onlyA = append(onlyA, c.Name)
		}
	}
	for _, c := range other {
		if !aSet[c.Name] {
			onlyB = append(onlyB, c.Name)
		}
	}
	return common, onlyA, onlyB
}
