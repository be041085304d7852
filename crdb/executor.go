package crdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/danthegoodman1/contractors/utils"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

var (
	ErrMissingParam     = utils.PermError("statement references a parameter that was not given")
	ErrUnsupportedParam = utils.PermError("unsupported parameter value")
)

// Executor answers statements from a pgx pool in the same shape as the RDS
// Data API so the rest of the service cannot tell the two apart.
type Executor struct {
	pool *pgxpool.Pool
}

func NewExecutor(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool}
}

func (e *Executor) ExecuteStatement(ctx context.Context, sql string, params []*rdsdataservice.SqlParameter) (*rdsdataservice.ExecuteStatementOutput, error) {
	logger := zerolog.Ctx(ctx)

	query, args, err := BindNamed(sql, params)
	if err != nil {
		return nil, fmt.Errorf("error in BindNamed: %w", err)
	}

	var out *rdsdataservice.ExecuteStatementOutput
	s := time.Now()
	err = crdbpgx.ExecuteTx(ctx, e.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// fn may run more than once on serialization failures
		var txErr error
		out, txErr = runInTx(ctx, tx, query, args)
		return txErr
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, fmt.Errorf("error executing statement (SQLSTATE %s): %w", pgErr.Code, err)
		}
		return nil, fmt.Errorf("error in crdbpgx.ExecuteTx: %w", err)
	}

	logger.Debug().Int("records", len(out.Records)).Int64("updated", aws.Int64Value(out.NumberOfRecordsUpdated)).Str("durationHuman", time.Since(s).String()).Msg("executed statement")
	return out, nil
}

func runInTx(ctx context.Context, tx pgx.Tx, query string, args []any) (*rdsdataservice.ExecuteStatementOutput, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error in tx.Query: %w", err)
	}
	defer rows.Close()

	connInfo := tx.Conn().ConnInfo()
	out := &rdsdataservice.ExecuteStatementOutput{
		Records: [][]*rdsdataservice.Field{},
	}
	for _, fd := range rows.FieldDescriptions() {
		col := &rdsdataservice.ColumnMetadata{
			Name:  aws.String(string(fd.Name)),
			Label: aws.String(string(fd.Name)),
		}
		if dt, ok := connInfo.DataTypeForOID(fd.DataTypeOID); ok {
			col.TypeName = aws.String(dt.Name)
		}
		out.ColumnMetadata = append(out.ColumnMetadata, col)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("error in rows.Values: %w", err)
		}
		row := make([]*rdsdataservice.Field, len(values))
		for i, v := range values {
			row[i], err = ToField(v)
			if err != nil {
				return nil, fmt.Errorf("error converting column %d: %w", i, err)
			}
		}
		out.Records = append(out.Records, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in rows.Err: %w", err)
	}

	rows.Close()
	out.NumberOfRecordsUpdated = aws.Int64(rows.CommandTag().RowsAffected())
	if len(out.ColumnMetadata) > 0 {
		// the Data API only reports updates for statements without a result set
		out.NumberOfRecordsUpdated = aws.Int64(0)
	}
	return out, nil
}

// BindNamed rewrites :name placeholders to $n and orders the parameter
// values to match. Casts (::type), quoted text and comments are left alone.
func BindNamed(sql string, params []*rdsdataservice.SqlParameter) (string, []any, error) {
	byName := make(map[string]*rdsdataservice.Field, len(params))
	for _, p := range params {
		if p == nil {
			continue
		}
		byName[aws.StringValue(p.Name)] = p.Value
	}

	var (
		b       strings.Builder
		args    []any
		indexes = map[string]int{}
		quote   byte
	)
	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if quote != 0 {
			b.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"':
			quote = ch
			b.WriteByte(ch)
		case ch == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			b.WriteString(sql[i : i+end])
			i += end - 1
		case ch == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				end = len(sql) - i
			} else {
				end += 4
			}
			b.WriteString(sql[i : i+end])
			i += end - 1
		case ch == ':' && i+1 < len(sql) && sql[i+1] == ':':
			b.WriteString("::")
			i++
		case ch == ':' && i+1 < len(sql) && isIdentStart(sql[i+1]):
			j := i + 1
			for j < len(sql) && isIdentChar(sql[j]) {
				j++
			}
			name := sql[i+1 : j]
			idx, seen := indexes[name]
			if !seen {
				field, ok := byName[name]
				if !ok {
					return "", nil, fmt.Errorf("parameter %q: %w", name, ErrMissingParam)
				}
				v, err := FromField(field)
				if err != nil {
					return "", nil, fmt.Errorf("parameter %q: %w", name, err)
				}
				args = append(args, v)
				idx = len(args)
				indexes[name] = idx
			}
			fmt.Fprintf(&b, "$%d", idx)
			i = j - 1
		default:
			b.WriteByte(ch)
		}
	}

	return b.String(), args, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// FromField converts a Data API parameter value to a pgx argument.
func FromField(f *rdsdataservice.Field) (any, error) {
	switch {
	case f == nil, f.IsNull != nil && *f.IsNull:
		return nil, nil
	case f.StringValue != nil:
		return *f.StringValue, nil
	case f.LongValue != nil:
		return *f.LongValue, nil
	case f.DoubleValue != nil:
		return *f.DoubleValue, nil
	case f.BooleanValue != nil:
		return *f.BooleanValue, nil
	case f.BlobValue != nil:
		return f.BlobValue, nil
	default:
		// the Data API does not accept array parameters either
		return nil, ErrUnsupportedParam
	}
}

// ToField encodes a value from pgx's rows.Values() as a tagged cell, following
// the Data API's choices: numeric, temporal and json columns come back as strings.
func ToField(v any) (*rdsdataservice.Field, error) {
	switch t := v.(type) {
	case nil:
		return &rdsdataservice.Field{IsNull: aws.Bool(true)}, nil
	case string:
		return &rdsdataservice.Field{StringValue: aws.String(t)}, nil
	case int16:
		return &rdsdataservice.Field{LongValue: aws.Int64(int64(t))}, nil
	case int32:
		return &rdsdataservice.Field{LongValue: aws.Int64(int64(t))}, nil
	case int64:
		return &rdsdataservice.Field{LongValue: aws.Int64(t)}, nil
	case float32:
		return &rdsdataservice.Field{DoubleValue: aws.Float64(float64(t))}, nil
	case float64:
		return &rdsdataservice.Field{DoubleValue: aws.Float64(t)}, nil
	case bool:
		return &rdsdataservice.Field{BooleanValue: aws.Bool(t)}, nil
	case []byte:
		return &rdsdataservice.Field{BlobValue: t}, nil
	case time.Time:
		return &rdsdataservice.Field{StringValue: aws.String(t.UTC().Format("2006-01-02 15:04:05.999999"))}, nil
	case pgtype.Numeric:
		return &rdsdataservice.Field{StringValue: aws.String(NumericString(t))}, nil
	case pgtype.TextArray:
		vals := make([]*string, len(t.Elements))
		for i, el := range t.Elements {
			if el.Status == pgtype.Present {
				vals[i] = aws.String(el.String)
			}
		}
		return &rdsdataservice.Field{ArrayValue: &rdsdataservice.ArrayValue{StringValues: vals}}, nil
	case pgtype.VarcharArray:
		vals := make([]*string, len(t.Elements))
		for i, el := range t.Elements {
			if el.Status == pgtype.Present {
				vals[i] = aws.String(el.String)
			}
		}
		return &rdsdataservice.Field{ArrayValue: &rdsdataservice.ArrayValue{StringValues: vals}}, nil
	case pgtype.Int4Array:
		vals := make([]*int64, len(t.Elements))
		for i, el := range t.Elements {
			if el.Status == pgtype.Present {
				vals[i] = aws.Int64(int64(el.Int))
			}
		}
		return &rdsdataservice.Field{ArrayValue: &rdsdataservice.ArrayValue{LongValues: vals}}, nil
	case pgtype.Int8Array:
		vals := make([]*int64, len(t.Elements))
		for i, el := range t.Elements {
			if el.Status == pgtype.Present {
				vals[i] = aws.Int64(el.Int)
			}
		}
		return &rdsdataservice.Field{ArrayValue: &rdsdataservice.ArrayValue{LongValues: vals}}, nil
	case pgtype.Float8Array:
		vals := make([]*float64, len(t.Elements))
		for i, el := range t.Elements {
			if el.Status == pgtype.Present {
				vals[i] = aws.Float64(el.Float)
			}
		}
		return &rdsdataservice.Field{ArrayValue: &rdsdataservice.ArrayValue{DoubleValues: vals}}, nil
	case pgtype.BoolArray:
		vals := make([]*bool, len(t.Elements))
		for i, el := range t.Elements {
			if el.Status == pgtype.Present {
				vals[i] = aws.Bool(el.Bool)
			}
		}
		return &rdsdataservice.Field{ArrayValue: &rdsdataservice.ArrayValue{BooleanValues: vals}}, nil
	case map[string]any, []any:
		// json and jsonb are decoded by pgx, the Data API hands them back as text
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("error in json.Marshal: %w", err)
		}
		return &rdsdataservice.Field{StringValue: aws.String(string(b))}, nil
	default:
		return &rdsdataservice.Field{StringValue: aws.String(fmt.Sprint(t))}, nil
	}
}

// NumericString renders a numeric in plain decimal notation (4.5, not 45e-1).
func NumericString(n pgtype.Numeric) string {
	if n.NaN {
		return "NaN"
	}
	if n.Int == nil {
		return "0"
	}

	digits := n.Int.String()
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	exp := int(n.Exp)
	switch {
	case exp >= 0:
		digits += strings.Repeat("0", exp)
	case -exp >= len(digits):
		digits = "0." + strings.Repeat("0", -exp-len(digits)) + digits
	default:
		digits = digits[:len(digits)+exp] + "." + digits[len(digits)+exp:]
	}

	if neg {
		return "-" + digits
	}
	return digits
}
