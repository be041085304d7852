package resultset

import (
	"fmt"

	"github.com/danthegoodman1/contractors/utils"
)

var (
	ErrMalformedCell    = utils.PermError("malformed cell")
	ErrRowShapeMismatch = utils.PermError("row shape mismatch")
)

type (
	// MalformedCellError is returned by Build when a cell does not decode.
	MalformedCellError struct {
		Entity     string
		Row        int
		Column     int
		ColumnName string
		Err        error
	}

	// RowShapeMismatchError is returned by Build when a row does not have one
	// cell per column.
	RowShapeMismatchError struct {
		Entity   string
		Row      int
		Expected int
		Actual   int
	}
)

func (e *MalformedCellError) Error() string {
	return fmt.Sprintf("%s: malformed cell at row %d column %d (%s): %s", e.Entity, e.Row, e.Column, e.ColumnName, e.Err)
}

func (e *MalformedCellError) Unwrap() error {
	return e.Err
}

func (e *MalformedCellError) IsPermanent() bool {
	return true
}

func (e *RowShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: row %d has %d cells, expected %d", e.Entity, e.Row, e.Actual, e.Expected)
}

func (e *RowShapeMismatchError) Unwrap() error {
	return ErrRowShapeMismatch
}

func (e *RowShapeMismatchError) IsPermanent() bool {
	return true
}
