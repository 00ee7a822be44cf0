package zxmatrix

// Table is the precomputed response for every possible state of the
// 8-bit row-select bus. Select lines are active low: entry S is the
// complement of the OR of all rows whose select bit is 0 in S, which
// models several rows wired onto the same active-low data bus. Entry
// 0xFF (no row selected) is therefore always 0xFF.
type Table [256]uint8

// Compile fills the table from a scan matrix. All 256 entries are
// recomputed; the work is bounded and branch-light so it can run every
// cycle and stay out of the strobe path entirely.
func (t *Table) Compile(m Matrix) {
	for s := 0; s < len(t); s++ {
		var acc uint8
		for r := 0; r < len(m); r++ {
			if s&(1<<r) == 0 {
				acc |= m[r]
			}
		}
		t[s] = ^acc
	}
}

// AnyPressed reports whether the matrix the table was compiled from had
// any bit set. With every select line low, entry 0 accumulates all rows,
// so it reads 0xFF exactly when the matrix was clear.
func (t *Table) AnyPressed() bool {
	return t[0] != 0xFF
}
