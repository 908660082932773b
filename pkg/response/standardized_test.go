package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataframe-gateway/internal/utils"
)

func TestListResponseCarriesCount(t *testing.T) {
	resp := ListResponse([]string{"json", "csv"}, 2, "cid-1")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, float64(2), decoded["count"])
	assert.Equal(t, "cid-1", decoded["correlationId"])
	assert.NotContains(t, decoded, "error")
}

func TestSuccessResponseOmitsCount(t *testing.T) {
	data, err := json.Marshal(SuccessResponse(map[string]string{"id": "x"}, ""))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"count"`)
}

func TestErrorResponseFromAppError(t *testing.T) {
	appErr := utils.NewErrorBuilder(utils.ErrCodeFetchFailed).
		WithDetails("status 500").
		Build()

	resp := ErrorResponseFromAppError(appErr, "cid-2")
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, utils.ErrCodeFetchFailed, resp.Error.Code)
	assert.Equal(t, "status 500", resp.Error.Details)
	assert.Nil(t, resp.Data)
}

func TestDefaultAuthMessages(t *testing.T) {
	assert.Equal(t, "Authentication required", UnauthorizedResponse("", "").Error.Message)
	assert.Equal(t, "Insufficient permissions", ForbiddenResponse("", "").Error.Message)
	assert.Equal(t, "token expired", UnauthorizedResponse("token expired", "").Error.Message)
}
