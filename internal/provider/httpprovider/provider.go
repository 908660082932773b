package httpprovider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"dataframe-gateway/internal/logging"
	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
)

// Provider loads dataframes from HTTP source configurations
type Provider struct {
	builder     *Builder
	fetcher     *Fetcher
	parallelism int
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewProvider creates a provider. parallelism above 1 fetches that many
// schemas at a time; anything else fetches sequentially.
func NewProvider(builder *Builder, fetcher *Fetcher, parallelism int) *Provider {
	if parallelism < 1 {
		parallelism = 1
	}

	return &Provider{
		builder:     builder,
		fetcher:     fetcher,
		parallelism: parallelism,
		tracer:      otel.Tracer(tracerName),
		logger:      logging.New("provider"),
	}
}

// Type returns the source type handled by this provider
func (p *Provider) Type() string {
	return model.SourceTypeHTTP
}

// LoadData fetches every schema in config and returns one dataframe per
// schema in declaration order. All schemas are built before the first
// request; any failure discards the whole result.
func (p *Provider) LoadData(ctx context.Context, config map[string]interface{}) ([]*model.Dataframe, error) {
	schemas, err := ExpandSchemas(config)
	if err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return []*model.Dataframe{}, nil
	}

	ctx, span := p.tracer.Start(ctx, "httpprovider.LoadData", trace.WithAttributes(
		attribute.Int("schemas", len(schemas)),
	))
	defer span.End()

	specs, err := p.buildAll(schemas)
	if err != nil {
		span.SetStatus(codes.Error, "invalid schema")
		return nil, err
	}

	start := time.Now()
	var frames []*model.Dataframe
	if p.parallelism > 1 && len(specs) > 1 {
		frames, err = p.fetchParallel(ctx, specs)
	} else {
		frames, err = p.fetchSequential(ctx, specs)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	p.logger.Info("source loaded", "schemas", len(specs), "elapsed", time.Since(start))
	return frames, nil
}

// Validate checks that every schema in config builds, without fetching
func (p *Provider) Validate(config map[string]interface{}) error {
	schemas, err := ExpandSchemas(config)
	if err != nil {
		return err
	}
	_, err = p.buildAll(schemas)
	return err
}

func (p *Provider) buildAll(schemas []map[string]interface{}) ([]*RequestSpec, error) {
	specs := make([]*RequestSpec, len(schemas))
	for i, schema := range schemas {
		spec, err := p.builder.Build(schema)
		if err != nil {
			return nil, &provider.SchemaError{Index: i, Table: TableName(schema), Err: err}
		}
		specs[i] = spec
	}
	return specs, nil
}

func (p *Provider) fetchSequential(ctx context.Context, specs []*RequestSpec) ([]*model.Dataframe, error) {
	frames := make([]*model.Dataframe, 0, len(specs))
	for i, spec := range specs {
		df, err := p.fetcher.Fetch(ctx, spec)
		if err != nil {
			return nil, &provider.SchemaError{Index: i, Table: spec.Table, Err: err}
		}
		df.Name = dataframeName(spec)
		frames = append(frames, df)
	}
	return frames, nil
}

// fetchParallel writes each result into its own slot, so output order
// follows the specs regardless of completion order
func (p *Provider) fetchParallel(ctx context.Context, specs []*RequestSpec) ([]*model.Dataframe, error) {
	frames := make([]*model.Dataframe, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			df, err := p.fetcher.Fetch(gctx, spec)
			if err != nil {
				return &provider.SchemaError{Index: i, Table: spec.Table, Err: err}
			}
			df.Name = dataframeName(spec)
			frames[i] = df
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// ExpandSchemas splits a source configuration into schema maps. Without a
// schemas key the configuration itself is the only schema, so an empty
// configuration is one schema missing its required keys.
func ExpandSchemas(config map[string]interface{}) ([]map[string]interface{}, error) {
	if config == nil {
		return nil, nil
	}

	raw, batch := config[KeySchemas]
	if !batch {
		return []map[string]interface{}{config}, nil
	}

	switch list := raw.(type) {
	case nil:
		return nil, nil
	case []map[string]interface{}:
		return list, nil
	case []interface{}:
		schemas := make([]map[string]interface{}, 0, len(list))
		for i, item := range list {
			schema, ok := item.(map[string]interface{})
			if !ok {
				return nil, &provider.SchemaError{
					Index: i,
					Err:   provider.NewConfigurationError(KeySchemas, fmt.Sprintf("entry %d is not an object", i), nil),
				}
			}
			schemas = append(schemas, schema)
		}
		return schemas, nil
	default:
		return nil, provider.NewConfigurationError(KeySchemas, "must be a list of schema objects", fmt.Errorf("got %T", raw))
	}
}

func dataframeName(spec *RequestSpec) string {
	if strings.TrimSpace(spec.Table) != "" {
		return spec.Table
	}
	return GenerateTableName()
}

// GenerateTableName returns a unique placeholder dataframe name
func GenerateTableName() string {
	return "table_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
