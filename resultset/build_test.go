package resultset

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cols(names ...string) []*rdsdataservice.ColumnMetadata {
	out := make([]*rdsdataservice.ColumnMetadata, len(names))
	for i, n := range names {
		out[i] = &rdsdataservice.ColumnMetadata{Name: aws.String(n)}
	}
	return out
}

func rowsFromJSON(t *testing.T, raw string) [][]*rdsdataservice.Field {
	t.Helper()
	var rows [][]*rdsdataservice.Field
	require.NoError(t, json.Unmarshal([]byte(raw), &rows))
	return rows
}

func TestBuildContractorRow(t *testing.T) {
	rows := rowsFromJSON(t, `[[{"longValue":7},{"stringValue":"Acme Roofing"},{"isNull":true}]]`)

	records, err := Build("contractors", cols("contractor_id", "company_name", "hourly_rate_cents"), rows)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, Record{
		"contractor_id":     int64(7),
		"company_name":      "Acme Roofing",
		"hourly_rate_cents": nil,
	}, records[0])

	b, err := json.Marshal(records)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"contractor_id":7,"company_name":"Acme Roofing","hourly_rate_cents":null}]`, string(b))
}

func TestBuildKeepsRowOrder(t *testing.T) {
	var rows [][]*rdsdataservice.Field
	for i := int64(0); i < 50; i++ {
		rows = append(rows, []*rdsdataservice.Field{
			{LongValue: aws.Int64(50 - i)},
			{DoubleValue: aws.Float64(float64(i) / 10)},
		})
	}

	records, err := Build("contractors", cols("contractor_id", "distance"), rows)
	require.NoError(t, err)
	require.Len(t, records, len(rows))
	for i, rec := range records {
		assert.Equal(t, int64(50-i), rec["contractor_id"])
		assert.Equal(t, float64(i)/10, rec["distance"])
		assert.Len(t, rec, 2)
	}

	// reversing the input reverses the output
	reversed := make([][]*rdsdataservice.Field, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}
	again, err := Build("contractors", cols("contractor_id", "distance"), reversed)
	require.NoError(t, err)
	for i := range again {
		assert.Equal(t, records[len(records)-1-i], again[i])
	}
}

func TestBuildNullInAnyColumn(t *testing.T) {
	names := []string{"first_name", "years_in_industry", "distance", "verified_contractor", "trades"}
	for col := range names {
		row := []*rdsdataservice.Field{
			{StringValue: aws.String("Ann")},
			{LongValue: aws.Int64(12)},
			{DoubleValue: aws.Float64(3.5)},
			{BooleanValue: aws.Bool(true)},
			{ArrayValue: &rdsdataservice.ArrayValue{StringValues: aws.StringSlice([]string{"roofing"})}},
		}
		row[col] = &rdsdataservice.Field{IsNull: aws.Bool(true)}

		records, err := Build("contractors", cols(names...), [][]*rdsdataservice.Field{row})
		require.NoError(t, err)
		v, ok := records[0][names[col]]
		assert.True(t, ok)
		assert.Nil(t, v)
	}
}

func TestBuildLongPrecision(t *testing.T) {
	rows := rowsFromJSON(t, `[[{"longValue":9223372036854775807},{"longValue":-9223372036854775808}]]`)

	records, err := Build("contractors", cols("max", "min"), rows)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), records[0]["max"])
	assert.Equal(t, int64(math.MinInt64), records[0]["min"])

	b, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"max":9223372036854775807,"min":-9223372036854775808}`, string(b))
}

func TestBuildStringArray(t *testing.T) {
	rows := rowsFromJSON(t, `[[{"arrayValue":{"stringValues":["roofing","plumbing"]}}]]`)

	records, err := Build("contractors", cols("trades"), rows)
	require.NoError(t, err)
	assert.Equal(t, []any{"roofing", "plumbing"}, records[0]["trades"])
}

func TestBuildShapeMismatch(t *testing.T) {
	rows := [][]*rdsdataservice.Field{
		{{LongValue: aws.Int64(1)}, {StringValue: aws.String("a")}, {IsNull: aws.Bool(true)}},
		{{LongValue: aws.Int64(2)}, {StringValue: aws.String("b")}},
	}

	records, err := Build("contractors", cols("contractor_id", "company_name", "website"), rows)
	assert.Nil(t, records)

	var shapeErr *RowShapeMismatchError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "contractors", shapeErr.Entity)
	assert.Equal(t, 1, shapeErr.Row)
	assert.Equal(t, 3, shapeErr.Expected)
	assert.Equal(t, 2, shapeErr.Actual)
	assert.ErrorIs(t, err, ErrRowShapeMismatch)
}

func TestBuildMalformedCellIsAtomic(t *testing.T) {
	rows := rowsFromJSON(t, `[
		[{"longValue":1},{"stringValue":"ok"}],
		[{"longValue":2},{}],
		[{"longValue":3},{"stringValue":"also ok"}]
	]`)

	records, err := Build("contractors", cols("contractor_id", "company_name"), rows)
	assert.Nil(t, records)

	var cellErr *MalformedCellError
	require.True(t, errors.As(err, &cellErr))
	assert.Equal(t, "contractors", cellErr.Entity)
	assert.Equal(t, 1, cellErr.Row)
	assert.Equal(t, 1, cellErr.Column)
	assert.Equal(t, "company_name", cellErr.ColumnName)
	assert.ErrorIs(t, err, ErrMalformedCell)
}

func TestBuildEmptyResult(t *testing.T) {
	records, err := Build("contractors", cols("a", "b", "c", "d"), nil)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	records, err = Build("contractors", nil, [][]*rdsdataservice.Field{})
	require.NoError(t, err)
	assert.Empty(t, records)

	b, err := json.Marshal(records)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestBuildIsRepeatable(t *testing.T) {
	rows := rowsFromJSON(t, `[
		[{"longValue":1},{"arrayValue":{"arrayValues":[{"longValues":[1,2]},{"longValues":[3]}]}}],
		[{"longValue":2},{"isNull":true}]
	]`)

	first, err := Build("contractors", cols("id", "grid"), rows)
	require.NoError(t, err)
	second, err := Build("contractors", cols("id", "grid"), rows)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []any{[]any{int64(1), int64(2)}, []any{int64(3)}}, first[0]["grid"])
}

func TestBuildDuplicateColumnLastWins(t *testing.T) {
	rows := [][]*rdsdataservice.Field{{{StringValue: aws.String("first")}, {StringValue: aws.String("second")}}}

	records, err := Build("contractors", cols("trades_string", "trades_string"), rows)
	require.NoError(t, err)
	assert.Equal(t, Record{"trades_string": "second"}, records[0])
}

func TestBuildResponse(t *testing.T) {
	records, err := BuildResponse("contractors", nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = BuildResponse("contractors", &rdsdataservice.ExecuteStatementOutput{
		ColumnMetadata: cols("slug"),
		Records:        [][]*rdsdataservice.Field{{{StringValue: aws.String("acme-roofing")}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []Record{{"slug": "acme-roofing"}}, records)
}
