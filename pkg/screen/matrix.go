package screen

// RowStatus records what the owning worker did with a row.
type RowStatus uint8

const (
	Pending RowStatus = iota // never dispatched, or not finished
	Screened
	TimedOut
)

func (s RowStatus) String() string {
	switch s {
	case Screened:
		return "screened"
	case TimedOut:
		return "timed-out"
	default:
		return "pending"
	}
}

// FlagMatrix is a rows x refs arena of hit flags. Writes go through Row
// handles, and the matrix hands out each row's handle once, so only the
// worker holding an item can write that item's row. Reads through the
// matrix are only valid after every worker has stopped.
type FlagMatrix struct {
	rows, refs int
	cells      []bool
	status     []RowStatus
	claimed    []bool
}

// NewFlagMatrix allocates an all-false matrix.
func NewFlagMatrix(rows, refs int) *FlagMatrix {
	return &FlagMatrix{
		rows:    rows,
		refs:    refs,
		cells:   make([]bool, rows*refs),
		status:  make([]RowStatus, rows),
		claimed: make([]bool, rows),
	}
}

func (m *FlagMatrix) Rows() int { return m.rows }
func (m *FlagMatrix) Refs() int { return m.refs }

// At returns the flag for (row, ref).
func (m *FlagMatrix) At(row, ref int) bool { return m.cells[row*m.refs+ref] }

// Status returns the row's status.
func (m *FlagMatrix) Status(row int) RowStatus { return m.status[row] }

// Any reports whether any reference accepted a hit for row.
func (m *FlagMatrix) Any(row int) bool {
	for _, v := range m.cells[row*m.refs : (row+1)*m.refs] {
		if v {
			return true
		}
	}
	return false
}

// claim hands out the write handle for row. It is called by the dispatcher
// only, once per row; a second claim is a programming error.
func (m *FlagMatrix) claim(row int) Row {
	if m.claimed[row] {
		panic("screen: flag matrix row claimed twice")
	}
	m.claimed[row] = true
	return Row{
		index:  row,
		cells:  m.cells[row*m.refs : (row+1)*m.refs : (row+1)*m.refs],
		status: &m.status[row],
	}
}

// Row is the exclusive write handle for one matrix row.
type Row struct {
	index  int
	cells  []bool
	status *RowStatus
}

func (r Row) Index() int { return r.index }

func (r Row) reset() {
	for i := range r.cells {
		r.cells[i] = false
	}
	*r.status = Pending
}

func (r Row) set(ref int) { r.cells[ref] = true }

func (r Row) finish(s RowStatus) { *r.status = s }

func (r Row) any() bool {
	for _, v := range r.cells {
		if v {
			return true
		}
	}
	return false
}
