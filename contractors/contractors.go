package contractors

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
	"github.com/danthegoodman1/contractors/data_api"
	"github.com/danthegoodman1/contractors/resultset"
	"github.com/danthegoodman1/contractors/utils"
)

const (
	// Entity labels result set errors coming from these statements.
	Entity = "contractors"

	// TradesColumn is the array of trade names on search and get records.
	TradesColumn = "trades"
)

type (
	Service struct {
		exec data_api.Executor
	}

	// UpdateRequest is the editable part of a contractor profile. Pointer
	// fields are optional and fall back to the defaults in Params.
	UpdateRequest struct {
		CompanyName     string  `json:"company_name" validate:"required,max=256"`
		Website         *string `json:"website" validate:"omitempty,url"`
		ServiceRadius   *int64  `json:"service_radius" validate:"required,gte=0,lte=500"`
		DisplayEmail    *bool   `json:"display_email"`
		DisplayPhone    *bool   `json:"display_phone"`
		YearsInIndustry *int64  `json:"years_in_industry" validate:"omitempty,gte=0,lte=100"`
		UnionFlag       *bool   `json:"union_flag"`
		WorkersCompFlag *bool   `json:"workers_comp_flag"`
		LicensingFlag   *bool   `json:"licensing_flag"`
		AboutMe         *string `json:"about_me" validate:"omitempty,max=4000"`

		MinimumServiceChargeCents *int64 `json:"minimum_service_charge_cents" validate:"omitempty,gte=0"`
		HourlyRateCents           *int64 `json:"hourly_rate_cents" validate:"omitempty,gte=0"`
	}
)

func NewService(exec data_api.Executor) *Service {
	return &Service{exec: exec}
}

// Search lists contractors whose service radius covers the point, nearest
// first. When trades is not empty only contractors offering all of them are
// kept.
func (s *Service) Search(ctx context.Context, lat, lng float64, trades []string) ([]resultset.Record, error) {
	out, err := s.exec.ExecuteStatement(ctx, searchSQL, []*rdsdataservice.SqlParameter{
		data_api.DoubleParam("lat", lat),
		data_api.DoubleParam("lng", lng),
	})
	if err != nil {
		return nil, fmt.Errorf("error in ExecuteStatement: %w", err)
	}

	records, err := resultset.BuildResponse(Entity, out)
	if err != nil {
		return nil, fmt.Errorf("error in resultset.BuildResponse: %w", err)
	}

	if len(trades) == 0 {
		return records, nil
	}
	return FilterByTrades(records, trades), nil
}

// Get returns the contractor as a single element slice, or an empty slice if
// it does not exist or was deleted.
func (s *Service) Get(ctx context.Context, id int64) ([]resultset.Record, error) {
	out, err := s.exec.ExecuteStatement(ctx, getByIDSQL, []*rdsdataservice.SqlParameter{
		data_api.LongParam("id", id),
	})
	if err != nil {
		return nil, fmt.Errorf("error in ExecuteStatement: %w", err)
	}

	records, err := resultset.BuildResponse(Entity, out)
	if err != nil {
		return nil, fmt.Errorf("error in resultset.BuildResponse: %w", err)
	}
	return records, nil
}

// Update overwrites the profile and returns how many records changed.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest, requestID string) (int64, error) {
	out, err := s.exec.ExecuteStatement(ctx, updateSQL, req.Params(id, requestID))
	if err != nil {
		return 0, fmt.Errorf("error in ExecuteStatement: %w", err)
	}
	return aws.Int64Value(out.NumberOfRecordsUpdated), nil
}

// Delete soft deletes a contractor.
func (s *Service) Delete(ctx context.Context, id int64) ([]resultset.Record, int64, error) {
	out, err := s.exec.ExecuteStatement(ctx, softDeleteSQL, []*rdsdataservice.SqlParameter{
		data_api.LongParam("id", id),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error in ExecuteStatement: %w", err)
	}

	records, err := resultset.BuildResponse(Entity, out)
	if err != nil {
		return nil, 0, fmt.Errorf("error in resultset.BuildResponse: %w", err)
	}
	return records, aws.Int64Value(out.NumberOfRecordsUpdated), nil
}

// Params binds the request for updateSQL.
func (r UpdateRequest) Params(id int64, requestID string) []*rdsdataservice.SqlParameter {
	return []*rdsdataservice.SqlParameter{
		data_api.LongParam("id", id),
		data_api.StringParam("company_name", r.CompanyName),
		data_api.OptionalString("website", r.Website),
		data_api.LongParam("service_radius", utils.Deref(r.ServiceRadius, 0)),
		data_api.BoolParam("display_email", utils.Deref(r.DisplayEmail, true)),
		data_api.BoolParam("display_phone", utils.Deref(r.DisplayPhone, true)),
		data_api.OptionalLong("years_in_industry", r.YearsInIndustry),
		data_api.BoolParam("union_flag", utils.Deref(r.UnionFlag, false)),
		data_api.BoolParam("workers_comp_flag", utils.Deref(r.WorkersCompFlag, false)),
		data_api.BoolParam("licensing_flag", utils.Deref(r.LicensingFlag, false)),
		data_api.OptionalString("about_me", r.AboutMe),
		data_api.LongParam("minimum_service_charge_cents", utils.Deref(r.MinimumServiceChargeCents, 0)),
		data_api.OptionalLong("hourly_rate_cents", r.HourlyRateCents),
		data_api.StringParam("request_id", requestID),
	}
}

// FilterByTrades keeps records whose trades column holds every wanted trade,
// preserving order.
func FilterByTrades(records []resultset.Record, want []string) []resultset.Record {
	out := make([]resultset.Record, 0, len(records))
	for _, rec := range records {
		if utils.ContainsAllStrings(recordTrades(rec), want) {
			out = append(out, rec)
		}
	}
	return out
}

func recordTrades(rec resultset.Record) []string {
	raw, _ := rec[TradesColumn].([]any)
	trades := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, ok := t.(string); ok {
			trades = append(trades, s)
		}
	}
	return trades
}
