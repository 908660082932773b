package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSourceFileYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.yaml", `
url: http://example.com/orders
username: ""
password: ""
property: data
timeout: 5000
headers:
  X-Tenant: acme
`)

	config, err := readSourceFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/orders", config["url"])
	assert.Equal(t, 5000, config["timeout"])
	assert.Equal(t, map[string]interface{}{"X-Tenant": "acme"}, config["headers"])
}

func TestReadSourceFileJSON5(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.json5", `{
  // comments and trailing commas are allowed
  url: "http://example.com/orders",
  property: "data",
  timeout: 1500,
}`)

	config, err := readSourceFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/orders", config["url"])
	assert.Equal(t, float64(1500), config["timeout"])
}

func TestReadSourceFileLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orders.json", `{"url":"http://prod.example.com","property":"data","password":""}`)
	writeFile(t, dir, "orders.local.json", `{"url":"http://localhost:8080","password":"dev"}`)

	config, err := readSourceFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", config["url"])
	assert.Equal(t, "dev", config["password"])
	assert.Equal(t, "data", config["property"])
}

func TestReadSourceFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := readSourceFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, os.IsNotExist(err))

	_, err = readSourceFile(writeFile(t, dir, "orders.toml", `url = "x"`))
	assert.ErrorContains(t, err, "unsupported source file extension")

	_, err = readSourceFile(writeFile(t, dir, "broken.json", `{"url":`))
	assert.ErrorContains(t, err, "failed to decode")
}

func TestLocalOverridePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "orders.local.yaml"), localOverridePath(filepath.Join("a", "orders.yaml")))
	assert.Equal(t, "batch.v2.local.json", localOverridePath("batch.v2.json"))
}

func TestApplySet(t *testing.T) {
	config := map[string]interface{}{
		"schemas": []interface{}{
			map[string]interface{}{"url": "http://a"},
			map[string]interface{}{"url": "http://b"},
		},
	}

	require.NoError(t, applySet(config, "schemas.1.url=http://c"))
	require.NoError(t, applySet(config, "schemas.0.timeout=250"))
	require.NoError(t, applySet(config, "headers.X-Trace=true"))
	require.NoError(t, applySet(config, "password="))

	schemas := config["schemas"].([]interface{})
	assert.Equal(t, "http://c", schemas[1].(map[string]interface{})["url"])
	assert.Equal(t, 250, schemas[0].(map[string]interface{})["timeout"])
	assert.Equal(t, map[string]interface{}{"X-Trace": true}, config["headers"])
	assert.Equal(t, "", config["password"])
}

func TestApplySetErrors(t *testing.T) {
	config := map[string]interface{}{
		"url":     "http://a",
		"schemas": []interface{}{map[string]interface{}{}},
	}

	assert.ErrorContains(t, applySet(config, "url"), "expected key=value")
	assert.ErrorContains(t, applySet(config, "=x"), "expected key=value")
	assert.ErrorContains(t, applySet(config, "schemas.3.url=x"), "invalid index")
	assert.ErrorContains(t, applySet(config, "url.host=x"), "not an object or list")
}
