package httpprovider

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
	"dataframe-gateway/internal/provider/parsers"
)

// requiredKeys are read first, in this order, so the first missing key is
// always the one reported
var requiredKeys = []string{KeyURL, KeyUsername, KeyPassword, KeyProperty}

// Builder turns raw schema maps into request specs
type Builder struct {
	registry       *parsers.Registry
	validate       *validator.Validate
	defaultTimeout time.Duration
}

// NewBuilder creates a builder resolving parsers from registry. A
// non-positive defaultTimeout falls back to DefaultTimeout.
func NewBuilder(registry *parsers.Registry, defaultTimeout time.Duration) *Builder {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Builder{
		registry:       registry,
		validate:       validate,
		defaultTimeout: defaultTimeout,
	}
}

// Build validates schema and resolves it into a RequestSpec. No network
// activity happens here.
func (b *Builder) Build(schema map[string]interface{}) (*RequestSpec, error) {
	desc, err := b.Describe(schema)
	if err != nil {
		return nil, err
	}

	parser, err := b.registry.Get(desc.ResponseParser)
	if err != nil {
		return nil, provider.NewConfigurationError(KeyResponseParser, "is not a registered parser", err)
	}

	columns := make([]model.Column, len(desc.Columns))
	seen := make(map[string]struct{}, len(desc.Columns))
	for i, col := range desc.Columns {
		colType, err := model.ParseColumnType(col.Type)
		if err != nil {
			return nil, provider.NewConfigurationError(fmt.Sprintf("%s[%d].type", KeyColumns, i), "is not a column type", err)
		}
		if _, dup := seen[col.Name]; dup {
			return nil, provider.NewConfigurationError(fmt.Sprintf("%s[%d].name", KeyColumns, i), fmt.Sprintf("duplicates column %q", col.Name), nil)
		}
		seen[col.Name] = struct{}{}
		columns[i] = model.Column{Name: col.Name, Type: colType}
	}

	return &RequestSpec{
		URL:         desc.URL,
		Method:      desc.Method,
		Timeout:     time.Duration(desc.TimeoutMillis) * time.Millisecond,
		ContentType: desc.ContentType,
		Body:        desc.Body,
		Headers:     desc.Headers,
		QueryParam:  desc.QueryParam,
		Username:    desc.Username,
		Password:    desc.Password,
		Property:    desc.Property,
		Parser:      parser,
		Columns:     columns,
		OAuth2:      desc.OAuth2,
		Table:       desc.Table,
	}, nil
}

// Describe decodes schema into its typed form with defaults applied and
// validates it. Parser identifiers are not resolved here.
func (b *Builder) Describe(schema map[string]interface{}) (*SchemaDescription, error) {
	if schema == nil {
		return nil, provider.NewConfigurationError(KeyURL, "is required", nil)
	}

	required := make(map[string]string, len(requiredKeys))
	for _, key := range requiredKeys {
		value, err := requiredString(schema, key)
		if err != nil {
			return nil, err
		}
		required[key] = value
	}

	desc := &SchemaDescription{
		URL:            strings.TrimSpace(required[KeyURL]),
		Username:       required[KeyUsername],
		Password:       required[KeyPassword],
		Property:       required[KeyProperty],
		Method:         DefaultMethod,
		TimeoutMillis:  b.defaultTimeout.Milliseconds(),
		ContentType:    DefaultContentType,
		ResponseParser: parsers.DefaultParser,
	}

	if method, ok, err := optionalString(schema, KeyMethod); err != nil {
		return nil, err
	} else if ok && strings.TrimSpace(method) != "" {
		desc.Method = strings.ToUpper(strings.TrimSpace(method))
	}

	if raw, ok := schema[KeyTimeout]; ok && raw != nil {
		millis, err := toInt64(raw)
		if err != nil {
			return nil, provider.NewConfigurationError(KeyTimeout, "is not an integer number of milliseconds", err)
		}
		desc.TimeoutMillis = millis
	}

	if contentType, ok, err := optionalString(schema, KeyContentType); err != nil {
		return nil, err
	} else if ok && strings.TrimSpace(contentType) != "" {
		desc.ContentType = strings.TrimSpace(contentType)
	}

	if parser, ok, err := optionalString(schema, KeyResponseParser); err != nil {
		return nil, err
	} else if ok && strings.TrimSpace(parser) != "" {
		desc.ResponseParser = strings.TrimSpace(parser)
	}

	body, err := bodyValue(schema[KeyBody])
	if err != nil {
		return nil, provider.NewConfigurationError(KeyBody, "cannot be encoded", err)
	}
	desc.Body = body

	if desc.QueryParam, err = stringMap(schema, KeyQueryParam); err != nil {
		return nil, err
	}
	if desc.Headers, err = stringMap(schema, KeyHeaders); err != nil {
		return nil, err
	}
	if desc.Columns, err = columnSpecs(schema); err != nil {
		return nil, err
	}
	if desc.OAuth2, err = oauth2Config(schema); err != nil {
		return nil, err
	}
	desc.Table = TableName(schema)

	if err := b.validate.Struct(desc); err != nil {
		return nil, validationError(err)
	}

	return desc, nil
}

// TableName returns the explicit, non-blank dataframe name of a schema
func TableName(schema map[string]interface{}) string {
	for _, key := range []string{KeyTable, KeyTableName} {
		if value, ok := schema[key]; ok && value != nil {
			if name := strings.TrimSpace(fmt.Sprint(value)); name != "" {
				return fmt.Sprint(value)
			}
		}
	}
	return ""
}

// validationError reports the first failed rule under its schema key
func validationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return provider.NewConfigurationError("", "is invalid", err)
	}

	fe := validationErrs[0]
	key := fe.Namespace()
	if idx := strings.Index(key, "."); idx >= 0 {
		key = key[idx+1:]
	}

	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "http_url":
		reason = "must be an absolute http or https URL"
	case "oneof":
		reason = fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		reason = fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		reason = fmt.Sprintf("failed %s validation", fe.Tag())
	}

	return provider.NewConfigurationError(key, reason, nil)
}

func requiredString(schema map[string]interface{}, key string) (string, error) {
	raw, ok := schema[key]
	if !ok || raw == nil {
		return "", provider.NewConfigurationError(key, "is required", nil)
	}
	value, err := scalarString(raw)
	if err != nil {
		return "", provider.NewConfigurationError(key, "must be a string", err)
	}
	return value, nil
}

func optionalString(schema map[string]interface{}, key string) (string, bool, error) {
	raw, ok := schema[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	value, err := scalarString(raw)
	if err != nil {
		return "", false, provider.NewConfigurationError(key, "must be a string", err)
	}
	return value, true, nil
}

// scalarString renders strings, numbers and booleans; structured values are rejected
func scalarString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("got %T", raw)
	}
}

func toInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		return strconv.ParseInt(v.String(), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("got %T", raw)
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int64(f), nil
}

// bodyValue keeps strings as-is and JSON-encodes structured bodies
func bodyValue(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]interface{}, []interface{}, map[string]string:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	default:
		return scalarString(v)
	}
}

func stringMap(schema map[string]interface{}, key string) (map[string]string, error) {
	raw, ok := schema[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch m := raw.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, v := range m {
			if v == nil {
				out[k] = ""
				continue
			}
			s, err := scalarString(v)
			if err != nil {
				return nil, provider.NewConfigurationError(key+"."+k, "must be a string", err)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, provider.NewConfigurationError(key, "must be a map of strings", fmt.Errorf("got %T", raw))
	}
}

func columnSpecs(schema map[string]interface{}) ([]ColumnSpec, error) {
	raw, ok := schema[KeyColumns]
	if !ok || raw == nil {
		return nil, nil
	}

	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	case []map[string]interface{}:
		for _, item := range v {
			items = append(items, item)
		}
	case []ColumnSpec:
		return append([]ColumnSpec(nil), v...), nil
	default:
		return nil, provider.NewConfigurationError(KeyColumns, "must be a list of columns", fmt.Errorf("got %T", raw))
	}

	specs := make([]ColumnSpec, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, provider.NewConfigurationError(fmt.Sprintf("%s[%d]", KeyColumns, i), "must be an object with name and type", fmt.Errorf("got %T", item))
		}
		var spec ColumnSpec
		if name, ok := m["name"]; ok && name != nil {
			spec.Name, _ = scalarString(name)
		}
		if colType, ok := m["type"]; ok && colType != nil {
			spec.Type, _ = scalarString(colType)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func oauth2Config(schema map[string]interface{}) (*OAuth2Config, error) {
	raw, ok := schema[KeyOAuth2]
	if !ok || raw == nil {
		return nil, nil
	}

	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, provider.NewConfigurationError(KeyOAuth2, "must be an object", fmt.Errorf("got %T", raw))
	}

	cfg := &OAuth2Config{}
	for key, target := range map[string]*string{
		"tokenUrl":     &cfg.TokenURL,
		"clientId":     &cfg.ClientID,
		"clientSecret": &cfg.ClientSecret,
	} {
		if v, ok := m[key]; ok && v != nil {
			s, err := scalarString(v)
			if err != nil {
				return nil, provider.NewConfigurationError(KeyOAuth2+"."+key, "must be a string", err)
			}
			*target = s
		}
	}

	switch scopes := m["scopes"].(type) {
	case nil:
	case string:
		cfg.Scopes = strings.Fields(scopes)
	case []interface{}:
		for _, scope := range scopes {
			s, err := scalarString(scope)
			if err != nil {
				return nil, provider.NewConfigurationError(KeyOAuth2+".scopes", "must be a list of strings", err)
			}
			cfg.Scopes = append(cfg.Scopes, s)
		}
	case []string:
		cfg.Scopes = append([]string(nil), scopes...)
	default:
		return nil, provider.NewConfigurationError(KeyOAuth2+".scopes", "must be a list of strings", fmt.Errorf("got %T", scopes))
	}

	return cfg, nil
}
