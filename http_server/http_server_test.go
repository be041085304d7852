package http_server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
	"github.com/danthegoodman1/contractors/contractors"
	"github.com/danthegoodman1/contractors/geocode"
	"github.com/danthegoodman1/contractors/resultset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	out    *rdsdataservice.ExecuteStatementOutput
	err    error
	calls  int
	params []*rdsdataservice.SqlParameter
}

func (f *fakeExecutor) ExecuteStatement(_ context.Context, _ string, params []*rdsdataservice.SqlParameter) (*rdsdataservice.ExecuteStatementOutput, error) {
	f.calls++
	f.params = params
	return f.out, f.err
}

type fakeGeocoder struct {
	loc geocode.LatLng
	err error
}

func (f *fakeGeocoder) Geocode(context.Context, string) (geocode.LatLng, error) {
	return f.loc, f.err
}

type fakePresigner struct{}

func (fakePresigner) PresignGet(key string) (string, error) {
	if key == "broken" {
		return "", errors.New("no creds")
	}
	return "https://media.example/" + key + "?sig=1", nil
}

func contractorOutput() *rdsdataservice.ExecuteStatementOutput {
	return &rdsdataservice.ExecuteStatementOutput{
		ColumnMetadata: []*rdsdataservice.ColumnMetadata{
			{Name: aws.String("contractor_id")},
			{Name: aws.String("company_name")},
			{Name: aws.String("hourly_rate_cents")},
			{Name: aws.String("profile_picture_s3")},
			{Name: aws.String("trades")},
		},
		Records: [][]*rdsdataservice.Field{
			{
				{LongValue: aws.Int64(7)},
				{StringValue: aws.String("Acme Roofing & Sons")},
				{IsNull: aws.Bool(true)},
				{StringValue: aws.String("profiles/7.jpg")},
				{ArrayValue: &rdsdataservice.ArrayValue{StringValues: aws.StringSlice([]string{"roofing", "plumbing"})}},
			},
			{
				{LongValue: aws.Int64(3)},
				{StringValue: aws.String("Bolt Electric")},
				{LongValue: aws.Int64(9500)},
				{IsNull: aws.Bool(true)},
				{ArrayValue: &rdsdataservice.ArrayValue{StringValues: aws.StringSlice([]string{"electrical"})}},
			},
		},
	}
}

func newTestServer(exec *fakeExecutor, geo geocode.Geocoder, presigner Presigner) *HTTPServer {
	return NewHTTPServer(Options{
		Contractors: contractors.NewService(exec),
		Geocoder:    geo,
		Presigner:   presigner,
	})
}

func do(s *HTTPServer, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := do(newTestServer(&fakeExecutor{}, nil, nil), http.MethodGet, "/hc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSearchContractors(t *testing.T) {
	exec := &fakeExecutor{out: contractorOutput()}
	s := newTestServer(exec, &fakeGeocoder{loc: geocode.LatLng{Lat: 41.88, Lng: -87.63}}, nil)

	rec := do(s, http.MethodGet, "/contractors?q=Chicago", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"data":[
		{"contractor_id":7,"company_name":"Acme Roofing & Sons","hourly_rate_cents":null,"profile_picture_s3":"profiles/7.jpg","trades":["roofing","plumbing"]},
		{"contractor_id":3,"company_name":"Bolt Electric","hourly_rate_cents":9500,"profile_picture_s3":null,"trades":["electrical"]}
	]}`, rec.Body.String())
	// no html escaping of &
	assert.Contains(t, rec.Body.String(), "Acme Roofing & Sons")

	rec = do(s, http.MethodGet, "/contractors?q=Chicago&trades=electrical", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, float64(3), body.Data[0]["contractor_id"])
}

func TestSearchContractorsBadRequests(t *testing.T) {
	exec := &fakeExecutor{out: contractorOutput()}

	rec := do(newTestServer(exec, &fakeGeocoder{}, nil), http.MethodGet, "/contractors", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgMissingLocation, rec.Body.String())

	rec = do(newTestServer(exec, &fakeGeocoder{err: geocode.ErrNoResults}, nil), http.MethodGet, "/contractors?q=atlantis", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(newTestServer(exec, nil, nil), http.MethodGet, "/contractors?q=Chicago", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, exec.calls)
}

func TestSearchContractorsMalformedResult(t *testing.T) {
	out := contractorOutput()
	out.Records[1][2] = &rdsdataservice.Field{}
	s := newTestServer(&fakeExecutor{out: out}, &fakeGeocoder{}, nil)

	rec := do(s, http.MethodGet, "/contractors?q=Chicago", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "internal error, request id: "))
	assert.NotContains(t, rec.Body.String(), "Acme")
}

func TestGetContractor(t *testing.T) {
	out := contractorOutput()
	out.Records = out.Records[:1]
	exec := &fakeExecutor{out: out}
	s := newTestServer(exec, nil, fakePresigner{})

	rec := do(s, http.MethodGet, "/contractors/7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(7), aws.Int64Value(exec.params[0].Value.LongValue))

	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "https://media.example/profiles/7.jpg?sig=1", body.Data[0]["profile_picture_url"])
	assert.Equal(t, "profiles/7.jpg", body.Data[0]["profile_picture_s3"])
	_, hasPortfolio := body.Data[0]["portfolio_picture_url"]
	assert.False(t, hasPortfolio)
}

func TestGetContractorErrors(t *testing.T) {
	rec := do(newTestServer(&fakeExecutor{}, nil, nil), http.MethodGet, "/contractors/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidID, rec.Body.String())

	empty := &fakeExecutor{out: &rdsdataservice.ExecuteStatementOutput{
		ColumnMetadata: []*rdsdataservice.ColumnMetadata{{Name: aws.String("contractor_id")}},
	}}
	rec = do(newTestServer(empty, nil, nil), http.MethodGet, "/contractors/8", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failing := &fakeExecutor{err: errors.New("cluster unavailable")}
	rec = do(newTestServer(failing, nil, nil), http.MethodGet, "/contractors/8", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdateContractor(t *testing.T) {
	exec := &fakeExecutor{out: &rdsdataservice.ExecuteStatementOutput{NumberOfRecordsUpdated: aws.Int64(1)}}
	s := newTestServer(exec, nil, nil)

	rec := do(s, http.MethodPut, "/contractors/7", `{"company_name":"Acme Roofing","service_radius":25,"union_flag":true,"hourly_rate_cents":12000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":{"numberOfRecordsUpdated":1}}`, rec.Body.String())

	byName := map[string]*rdsdataservice.Field{}
	for _, p := range exec.params {
		byName[aws.StringValue(p.Name)] = p.Value
	}
	assert.True(t, aws.BoolValue(byName["union_flag"].BooleanValue))
	assert.Equal(t, int64(12000), aws.Int64Value(byName["hourly_rate_cents"].LongValue))
	assert.Equal(t, rec.Header().Get("X-Request-Id"), aws.StringValue(byName["request_id"].StringValue))
}

func TestUpdateContractorValidation(t *testing.T) {
	exec := &fakeExecutor{out: &rdsdataservice.ExecuteStatementOutput{NumberOfRecordsUpdated: aws.Int64(1)}}
	s := newTestServer(exec, nil, nil)

	rec := do(s, http.MethodPut, "/contractors/7", `{"service_radius":25}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPut, "/contractors/7", `{"company_name":"Acme"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPut, "/contractors/7", `{"company_name":"Acme","service_radius":"far"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPut, "/contractors/x", `{"company_name":"Acme","service_radius":25}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, exec.calls)

	exec.out = &rdsdataservice.ExecuteStatementOutput{NumberOfRecordsUpdated: aws.Int64(0)}
	rec = do(s, http.MethodPut, "/contractors/404", `{"company_name":"Acme","service_radius":25}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteContractor(t *testing.T) {
	exec := &fakeExecutor{out: &rdsdataservice.ExecuteStatementOutput{NumberOfRecordsUpdated: aws.Int64(1)}}
	s := newTestServer(exec, nil, nil)

	rec := do(s, http.MethodDelete, "/contractors/7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":[],"numberOfRecordsUpdated":1}`, rec.Body.String())

	exec.out = &rdsdataservice.ExecuteStatementOutput{NumberOfRecordsUpdated: aws.Int64(0)}
	rec = do(s, http.MethodDelete, "/contractors/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHello(t *testing.T) {
	rec := do(newTestServer(&fakeExecutor{}, nil, nil), http.MethodGet, "/hello?name=ann", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HelloResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Hello World", body.Output)
	assert.Equal(t, map[string]string{"name": "ann"}, body.QueryStringParameters)
	assert.NotEmpty(t, body.Timestamp)
}

func TestPresignPicturesCopies(t *testing.T) {
	s := newTestServer(&fakeExecutor{}, nil, fakePresigner{})
	records := []resultset.Record{
		{"profile_picture_s3": "profiles/1.jpg", "portfolio_picture_s3": "broken"},
		{"profile_picture_s3": nil},
	}

	out := s.presignPictures(context.Background(), records)
	require.Len(t, out, 2)
	assert.Equal(t, "https://media.example/profiles/1.jpg?sig=1", out[0]["profile_picture_url"])
	assert.NotContains(t, out[0], "portfolio_picture_url")
	assert.NotContains(t, out[1], "profile_picture_url")
	// inputs untouched
	assert.NotContains(t, records[0], "profile_picture_url")
}
