package resultset

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
)

// Record is one decoded row keyed by column name.
type Record map[string]any

// Build zips column metadata with each row's cells and returns one Record per
// row in input order. entity only labels errors. Either every row is built or
// nil is returned with the first error.
func Build(entity string, metadata []*rdsdataservice.ColumnMetadata, rows [][]*rdsdataservice.Field) ([]Record, error) {
	names := make([]string, len(metadata))
	for i, col := range metadata {
		if col != nil {
			names[i] = aws.StringValue(col.Name)
		}
	}

	records := make([]Record, 0, len(rows))
	for rowIdx, row := range rows {
		if len(row) != len(names) {
			return nil, &RowShapeMismatchError{
				Entity:   entity,
				Row:      rowIdx,
				Expected: len(names),
				Actual:   len(row),
			}
		}

		rec := make(Record, len(names))
		for colIdx, name := range names {
			v, err := Decode(row[colIdx])
			if err != nil {
				return nil, &MalformedCellError{
					Entity:     entity,
					Row:        rowIdx,
					Column:     colIdx,
					ColumnName: name,
					Err:        err,
				}
			}
			rec[name] = Native(v)
		}
		records = append(records, rec)
	}

	return records, nil
}

// BuildResponse is Build over a full ExecuteStatement response.
func BuildResponse(entity string, out *rdsdataservice.ExecuteStatementOutput) ([]Record, error) {
	if out == nil {
		return []Record{}, nil
	}
	return Build(entity, out.ColumnMetadata, out.Records)
}
