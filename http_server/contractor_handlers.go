package http_server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danthegoodman1/contractors/contractors"
	"github.com/danthegoodman1/contractors/geocode"
	"github.com/danthegoodman1/contractors/resultset"
	"github.com/danthegoodman1/contractors/utils"
	"github.com/rs/zerolog"
)

const (
	msgInvalidID       = "Invalid input, please input an integer"
	msgMissingLocation = `Request must include location query string parameter "q"`
)

var (
	ErrNoGeocoder = utils.PermError("geocoding is not configured")

	// object key column -> presigned url column
	pictureColumns = map[string]string{
		"profile_picture_s3":   "profile_picture_url",
		"portfolio_picture_s3": "portfolio_picture_url",
	}
)

type (
	DataResponse struct {
		Data                   any    `json:"data"`
		NumberOfRecordsUpdated *int64 `json:"numberOfRecordsUpdated,omitempty"`
	}

	UpdateResult struct {
		NumberOfRecordsUpdated int64 `json:"numberOfRecordsUpdated"`
	}
)

func (s *HTTPServer) SearchContractors(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*30)
	defer cancel()

	q := c.QueryParam("q")
	if q == "" {
		return c.String(http.StatusBadRequest, msgMissingLocation)
	}
	trades := c.QueryParams()["trades"]

	if s.geocoder == nil {
		return c.InternalError(ErrNoGeocoder, "search without geocoder")
	}
	loc, err := s.geocoder.Geocode(ctx, q)
	if errors.Is(err, geocode.ErrNoResults) {
		return c.String(http.StatusBadRequest, "could not find location: "+q)
	}
	if err != nil {
		return c.InternalError(err, "error geocoding location")
	}

	records, err := s.contractors.Search(ctx, loc.Lat, loc.Lng, trades)
	if err != nil {
		return c.InternalError(err, "error searching contractors")
	}

	return c.JSON(http.StatusOK, DataResponse{Data: s.presignPictures(ctx, records)})
}

func (s *HTTPServer) GetContractor(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*30)
	defer cancel()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, msgInvalidID)
	}

	records, err := s.contractors.Get(ctx, id)
	if err != nil {
		return c.InternalError(err, "error getting contractor")
	}
	if len(records) == 0 {
		return c.String(http.StatusNotFound, "contractor not found")
	}

	return c.JSON(http.StatusOK, DataResponse{Data: s.presignPictures(ctx, records)})
}

func (s *HTTPServer) UpdateContractor(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*30)
	defer cancel()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, msgInvalidID)
	}

	var reqBody contractors.UpdateRequest
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	n, err := s.contractors.Update(ctx, id, reqBody, c.RequestID)
	if err != nil {
		return c.InternalError(err, "error updating contractor")
	}
	if n == 0 {
		return c.String(http.StatusNotFound, "contractor not found")
	}

	zerolog.Ctx(ctx).Debug().Int64("contractorID", id).Msg("updated contractor")
	return c.JSON(http.StatusOK, DataResponse{Data: UpdateResult{NumberOfRecordsUpdated: n}})
}

func (s *HTTPServer) DeleteContractor(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*30)
	defer cancel()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, msgInvalidID)
	}

	records, n, err := s.contractors.Delete(ctx, id)
	if err != nil {
		return c.InternalError(err, "error deleting contractor")
	}
	if n == 0 {
		return c.String(http.StatusNotFound, "contractor not found")
	}

	zerolog.Ctx(ctx).Debug().Int64("contractorID", id).Msg("soft deleted contractor")
	return c.JSON(http.StatusOK, DataResponse{Data: records, NumberOfRecordsUpdated: &n})
}

// presignPictures returns copies of the records with a url next to each
// stored picture key. A failed presign only drops that url.
func (s *HTTPServer) presignPictures(ctx context.Context, records []resultset.Record) []resultset.Record {
	if s.presigner == nil {
		return records
	}
	logger := zerolog.Ctx(ctx)
	out := make([]resultset.Record, len(records))
	for i, rec := range records {
		withURLs := make(resultset.Record, len(rec)+len(pictureColumns))
		for k, v := range rec {
			withURLs[k] = v
		}
		for keyCol, urlCol := range pictureColumns {
			key, ok := rec[keyCol].(string)
			if !ok || key == "" {
				continue
			}
			url, err := s.presigner.PresignGet(key)
			if err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("error presigning picture")
				continue
			}
			withURLs[urlCol] = url
		}
		out[i] = withURLs
	}
	return out
}
