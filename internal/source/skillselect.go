package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const DefaultSkillSelectURL = "https://api.dynamic.reports.employment.gov.au/anonap/extensions/hSKLS02_SkillSelect_EOI_Data/hSKLS02_SkillSelect_EOI_Data.html"

// SkillSelect reads the EOI report page. The page either returns JSON, embeds
// the occupation array in a script, or renders an HTML table; when none of
// those yield items and a Renderer is configured, the page is rendered
// headless and parsed again.
type SkillSelect struct {
	client   *resty.Client
	url      string
	tables   occupation.Tables
	adapter  occupation.Adapter
	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
}

func NewSkillSelect(client *resty.Client, url string, tables occupation.Tables, renderer Renderer, logger *zap.Logger) *SkillSelect {
	if strings.TrimSpace(url) == "" {
		url = DefaultSkillSelectURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkillSelect{
		client:   client,
		url:      strings.TrimSpace(url),
		tables:   tables,
		adapter:  occupation.MustAdapter(occupation.FormatSkillSelect, tables),
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SkillSelect) Name() string { return occupation.SourceImmigration }

func (s *SkillSelect) Fetch(ctx context.Context) ([]occupation.Record, error) {
	if s == nil || s.client == nil {
		return []occupation.Record{}, nil
	}
	ctx, span := tracer.Start(ctx, "SkillSelect.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", s.url))

	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json, text/html").
		Get(s.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("skillselect request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("%w: skillselect %d", ErrBadStatus, res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	body := res.Body()
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("skillselect response too large")
	}

	raws := s.parse(string(body))
	if len(raws) == 0 && s.renderer != nil {
		html, err := s.renderer.Render(ctx, s.url)
		if err != nil {
			s.logger.Warn("[SkillSelect] headless render failed", zap.Error(err))
		} else {
			raws = s.parse(html)
		}
	}

	records := mapAll(s.adapter, raws)
	now := s.now().UTC()
	for i := range records {
		records[i] = occupation.FillPlaceholders(records[i], s.tables)
		if records[i].LastUpdated.IsZero() {
			records[i].LastUpdated = now
		}
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	s.logger.Info("[SkillSelect] fetched",
		zap.Int("items", len(raws)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (s *SkillSelect) parse(page string) []occupation.Raw {
	trimmed := strings.TrimSpace(page)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		if items := decodeItems([]byte(trimmed)); len(items) > 0 {
			return items
		}
	}
	if items := extractEmbedded(page); len(items) > 0 {
		return items
	}
	return extractTables(page)
}
