package httpprovider

import (
	"time"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider/parsers"
)

// Schema description keys
const (
	KeySchemas        = "schemas"
	KeyURL            = "url"
	KeyUsername       = "username"
	KeyPassword       = "password"
	KeyProperty       = "property"
	KeyMethod         = "method"
	KeyTimeout        = "timeout"
	KeyContentType    = "contentType"
	KeyResponseParser = "responseParser"
	KeyBody           = "body"
	KeyQueryParam     = "queryParam"
	KeyHeaders        = "headers"
	KeyColumns        = "columns"
	KeyTable          = "table"
	KeyTableName      = "tableName"
	KeyOAuth2         = "oauth2"
)

// Defaults applied to optional keys
const (
	DefaultMethod      = "GET"
	DefaultTimeout     = 30 * time.Second
	DefaultContentType = "application/json"
)

// SchemaDescription is the typed form of one schema configuration
type SchemaDescription struct {
	URL            string            `json:"url" validate:"required,http_url"`
	Username       string            `json:"username"`
	Password       string            `json:"password"`
	Property       string            `json:"property"`
	Method         string            `json:"method" validate:"required,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS TRACE"`
	TimeoutMillis  int64             `json:"timeout" validate:"gt=0"`
	ContentType    string            `json:"contentType" validate:"required"`
	ResponseParser string            `json:"responseParser" validate:"required"`
	Body           string            `json:"body,omitempty"`
	QueryParam     map[string]string `json:"queryParam,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Columns        []ColumnSpec      `json:"columns,omitempty" validate:"dive"`
	Table          string            `json:"table,omitempty"`
	OAuth2         *OAuth2Config     `json:"oauth2,omitempty" validate:"omitempty"`
}

// ColumnSpec is a declared output column
type ColumnSpec struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type"`
}

// OAuth2Config holds client-credentials settings for bearer authentication
type OAuth2Config struct {
	TokenURL     string   `json:"tokenUrl" validate:"required,http_url"`
	ClientID     string   `json:"clientId" validate:"required"`
	ClientSecret string   `json:"clientSecret"`
	Scopes       []string `json:"scopes,omitempty"`
}

// RequestSpec holds the validated parameters of one fetch.
// It is built once and must not be modified afterwards.
type RequestSpec struct {
	URL         string
	Method      string
	Timeout     time.Duration
	ContentType string
	Body        string
	Headers     map[string]string
	QueryParam  map[string]string
	Username    string
	Password    string
	Property    string
	Parser      parsers.ResponseParser
	Columns     []model.Column
	OAuth2      *OAuth2Config
	Table       string
}

// HasBasicAuth reports whether credentials should be sent
func (s *RequestSpec) HasBasicAuth() bool {
	return s.Username != "" || s.Password != ""
}

// HasBody reports whether the request carries a payload
func (s *RequestSpec) HasBody() bool {
	return s.Body != ""
}
