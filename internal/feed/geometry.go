package feed

// minColumns is the fallback while the container has no real measurement.
const minColumns = 1

// columnBufferRows is how many off-screen rows the initial render includes
// beyond the visible ones.
const columnBufferRows = 2

// Columns derives the grid column count from the container width. A zero or
// negative width is a transient measurement and falls back to the minimum.
func Columns(viewportWidth, cardWidth, gutter int) int {
	cell := cardWidth + gutter
	if viewportWidth <= 0 || cell <= 0 {
		return minColumns
	}
	cols := viewportWidth / cell
	if cols < minColumns {
		cols = minColumns
	}
	return cols
}

// initialCursor computes the viewport-derived display count for a fresh
// render: enough rows to fill the client height plus a small buffer, capped
// at the maximum batch size.
func initialCursor(columns, clientHeight, cardHeight, rowsPerBatch, maxBatch int) int {
	rows := rowsPerBatch
	if clientHeight > 0 && cardHeight > 0 {
		rows = (clientHeight+cardHeight-1)/cardHeight + columnBufferRows
	}
	count := columns * rows
	if count > maxBatch {
		count = maxBatch
	}
	if count < 1 {
		count = 1
	}
	return count
}

// advanceStep computes how far one infinite-scroll trigger moves the cursor.
func advanceStep(columns, rowsPerBatch, maxBatch int) int {
	step := columns * rowsPerBatch
	if step > maxBatch {
		step = maxBatch
	}
	if step < 1 {
		step = 1
	}
	return step
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
