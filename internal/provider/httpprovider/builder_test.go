package httpprovider

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
	"dataframe-gateway/internal/provider/parsers"
)

func newTestBuilder() *Builder {
	return NewBuilder(parsers.NewRegistry(), 0)
}

func validSchema() map[string]interface{} {
	return map[string]interface{}{
		"url":      "http://example.com/api",
		"username": "",
		"password": "",
		"property": "data",
	}
}

func configKey(t *testing.T, err error) string {
	t.Helper()
	var cfgErr *provider.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
	return cfgErr.Key
}

func TestBuildAppliesDefaults(t *testing.T) {
	spec, err := newTestBuilder().Build(validSchema())
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/api", spec.URL)
	assert.Equal(t, "GET", spec.Method)
	assert.Equal(t, 30*time.Second, spec.Timeout)
	assert.Equal(t, "application/json", spec.ContentType)
	assert.Equal(t, parsers.ParserJSON, spec.Parser.Name())
	assert.Equal(t, "data", spec.Property)
	assert.Empty(t, spec.Columns)
	assert.False(t, spec.HasBasicAuth())
	assert.False(t, spec.HasBody())
	assert.Nil(t, spec.OAuth2)
}

func TestBuildReadsAllKeys(t *testing.T) {
	schema := validSchema()
	schema["username"] = "ann"
	schema["password"] = "secret"
	schema["method"] = "post"
	schema["timeout"] = "1500"
	schema["contentType"] = "text/csv"
	schema["responseParser"] = "CSV"
	schema["body"] = map[string]interface{}{"q": "x"}
	schema["queryParam"] = map[string]interface{}{"page": 2}
	schema["headers"] = map[string]string{"X-Trace": "1"}
	schema["columns"] = []interface{}{
		map[string]interface{}{"name": "id", "type": "numeric"},
		map[string]interface{}{"name": "name"},
	}
	schema["tableName"] = "people"

	spec, err := newTestBuilder().Build(schema)
	require.NoError(t, err)

	assert.Equal(t, "POST", spec.Method)
	assert.Equal(t, 1500*time.Millisecond, spec.Timeout)
	assert.Equal(t, "text/csv", spec.ContentType)
	assert.Equal(t, parsers.ParserCSV, spec.Parser.Name())
	assert.JSONEq(t, `{"q":"x"}`, spec.Body)
	assert.Equal(t, map[string]string{"page": "2"}, spec.QueryParam)
	assert.Equal(t, map[string]string{"X-Trace": "1"}, spec.Headers)
	assert.Equal(t, []model.Column{
		{Name: "id", Type: model.ColumnTypeNumeric},
		{Name: "name", Type: model.ColumnTypeString},
	}, spec.Columns)
	assert.Equal(t, "people", spec.Table)
	assert.True(t, spec.HasBasicAuth())
}

func TestBuildRequiredKeysInOrder(t *testing.T) {
	for _, key := range []string{"url", "username", "password", "property"} {
		t.Run(key, func(t *testing.T) {
			schema := validSchema()
			delete(schema, key)

			_, err := newTestBuilder().Build(schema)
			require.Error(t, err)
			assert.True(t, errors.Is(err, provider.ErrConfiguration))
			assert.Equal(t, key, configKey(t, err))
		})
	}

	_, err := newTestBuilder().Build(map[string]interface{}{"property": "data"})
	assert.Equal(t, "url", configKey(t, err))

	schema := validSchema()
	schema["password"] = nil
	_, err = newTestBuilder().Build(schema)
	assert.Equal(t, "password", configKey(t, err))
}

func TestBuildRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		want  string
	}{
		{"unknown method", "method", "FETCH", "method"},
		{"non-numeric timeout", "timeout", "soon", "timeout"},
		{"fractional timeout", "timeout", 1.5, "timeout"},
		{"zero timeout", "timeout", 0, "timeout"},
		{"relative url", "url", "/api/data", "url"},
		{"unknown parser", "responseParser", "com.example.XmlParser", "responseParser"},
		{"headers not a map", "headers", "X-A: 1", "headers"},
		{"columns not a list", "columns", "id", "columns"},
		{"unknown column type", "columns", []interface{}{map[string]interface{}{"name": "id", "type": "blob"}}, "columns[0].type"},
		{"column without name", "columns", []interface{}{map[string]interface{}{"type": "string"}}, "columns[0].name"},
		{"duplicate column", "columns", []interface{}{
			map[string]interface{}{"name": "id"},
			map[string]interface{}{"name": "id"},
		}, "columns[1].name"},
		{"oauth2 without token url", "oauth2", map[string]interface{}{"clientId": "c"}, "oauth2.tokenUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := validSchema()
			schema[tt.key] = tt.value

			_, err := newTestBuilder().Build(schema)
			require.Error(t, err)
			assert.Equal(t, tt.want, configKey(t, err))
		})
	}
}

func TestBuildUnknownParserKeepsCause(t *testing.T) {
	schema := validSchema()
	schema["responseParser"] = "xml"

	_, err := newTestBuilder().Build(schema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrConfiguration))
	assert.True(t, errors.Is(err, provider.ErrParserNotFound))
}

func TestBuildBlankParserUsesDefault(t *testing.T) {
	schema := validSchema()
	schema["responseParser"] = "  "

	spec, err := newTestBuilder().Build(schema)
	require.NoError(t, err)
	assert.Equal(t, parsers.DefaultParser, spec.Parser.Name())
}

func TestBuildOAuth2(t *testing.T) {
	schema := validSchema()
	schema["oauth2"] = map[string]interface{}{
		"tokenUrl":     "https://auth.example.com/token",
		"clientId":     "client",
		"clientSecret": "s3cret",
		"scopes":       "read write",
	}

	spec, err := newTestBuilder().Build(schema)
	require.NoError(t, err)
	require.NotNil(t, spec.OAuth2)
	assert.Equal(t, []string{"read", "write"}, spec.OAuth2.Scopes)
	assert.Equal(t, "client", spec.OAuth2.ClientID)
}

func TestBuildDefaultTimeoutFromConfig(t *testing.T) {
	spec, err := NewBuilder(parsers.NewRegistry(), 5*time.Second).Build(validSchema())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, spec.Timeout)
}

func TestBuildDoesNotModifySchema(t *testing.T) {
	headers := map[string]interface{}{"A": "1"}
	schema := validSchema()
	schema["headers"] = headers

	spec, err := newTestBuilder().Build(schema)
	require.NoError(t, err)

	spec.Headers["B"] = "2"
	assert.Len(t, headers, 1)
	assert.Len(t, schema, 5)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "orders", TableName(map[string]interface{}{"table": "orders"}))
	assert.Equal(t, "legacy", TableName(map[string]interface{}{"tableName": "legacy"}))
	assert.Equal(t, "", TableName(map[string]interface{}{"table": "   "}))
	assert.Equal(t, "", TableName(map[string]interface{}{}))
}
