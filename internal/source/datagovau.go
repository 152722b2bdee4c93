package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	DefaultDataGovAUURL = "https://data.gov.au/api/3/action/"
	dataGovAUQuery      = "anzsco occupation"
	dataGovAURows       = 1000
	maxDataGovAURecords = 500
)

type ckanResource struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

type ckanDataset struct {
	Name      string         `json:"name"`
	Resources []ckanResource `json:"resources"`
}

type ckanSearchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Count   int           `json:"count"`
		Results []ckanDataset `json:"results"`
	} `json:"result"`
}

// DataGovAU searches the CKAN catalogue for ANZSCO datasets and reads their
// JSON and CSV resources.
type DataGovAU struct {
	client  *resty.Client
	baseURL string
	adapter occupation.Adapter
	logger  *zap.Logger
	now     func() time.Time
}

func NewDataGovAU(client *resty.Client, baseURL string, tables occupation.Tables, logger *zap.Logger) *DataGovAU {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultDataGovAUURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataGovAU{
		client:  client,
		baseURL: baseURL,
		adapter: occupation.MustAdapter(occupation.FormatDataGovAU, tables),
		logger:  logger,
		now:     time.Now,
	}
}

func (d *DataGovAU) Name() string { return occupation.SourceDataGovAU }

func (d *DataGovAU) Fetch(ctx context.Context) ([]occupation.Record, error) {
	if d == nil || d.client == nil {
		return []occupation.Record{}, nil
	}
	ctx, span := tracer.Start(ctx, "DataGovAU.Fetch")
	defer span.End()

	var search ckanSearchResponse
	res, err := d.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"q":    dataGovAUQuery,
			"rows": fmt.Sprint(dataGovAURows),
			"sort": "metadata_modified desc",
		}).
		Get(d.baseURL + "package_search")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("data.gov.au search: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("%w: data.gov.au %d", ErrBadStatus, res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := json.Unmarshal(res.Body(), &search); err != nil {
		return nil, fmt.Errorf("decode data.gov.au search: %w", err)
	}
	if !search.Success {
		return nil, fmt.Errorf("data.gov.au search unsuccessful")
	}

	var raws []occupation.Raw
	for _, ds := range search.Result.Results {
		for _, rsc := range ds.Resources {
			if len(raws) >= maxDataGovAURecords {
				break
			}
			format := strings.ToUpper(strings.TrimSpace(rsc.Format))
			if (format != "CSV" && format != "JSON") || strings.TrimSpace(rsc.URL) == "" {
				continue
			}
			items, err := d.resource(ctx, format, rsc.URL)
			if err != nil {
				d.logger.Warn("[DataGovAU] resource skipped",
					zap.String("dataset", ds.Name),
					zap.String("url", rsc.URL),
					zap.Error(err),
				)
				continue
			}
			raws = append(raws, items...)
		}
	}

	records := mapAll(d.adapter, raws)
	valid := records[:0]
	now := d.now().UTC()
	for _, r := range records {
		if !occupation.ValidCode(r.AnzscoCode) {
			continue
		}
		if r.LastUpdated.IsZero() {
			r.LastUpdated = now
		}
		valid = append(valid, r)
	}
	records = occupation.MergeAll(valid)
	span.SetAttributes(
		attribute.Int("datasets", len(search.Result.Results)),
		attribute.Int("records", len(records)),
	)
	d.logger.Info("[DataGovAU] fetched",
		zap.Int("datasets", len(search.Result.Results)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (d *DataGovAU) resource(ctx context.Context, format, url string) ([]occupation.Raw, error) {
	res, err := d.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, res.StatusCode())
	}
	if len(res.Body()) > maxBodyBytes {
		return nil, fmt.Errorf("resource too large")
	}
	if format == "JSON" {
		return decodeItems(res.Body()), nil
	}
	return parseCSV(res.Body())
}

// parseCSV reads a header row followed by data rows. Headers are
// lower-cased; rows shorter than the header are skipped.
func parseCSV(body []byte) ([]occupation.Raw, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF")))
	}

	var out []occupation.Raw
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read csv row: %w", err)
		}
		if len(row) < len(header) {
			continue
		}
		item := make(occupation.Raw, len(header))
		for i, h := range header {
			if h != "" {
				item[h] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, item)
	}
	return out, nil
}
