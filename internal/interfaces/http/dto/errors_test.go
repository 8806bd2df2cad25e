package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeInvalidStateTransition, http.StatusUnprocessableEntity},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeOverPayment, http.StatusUnprocessableEntity},
		{shared.CodeInsufficientBalance, http.StatusUnprocessableEntity},
		{shared.CodeContended, http.StatusConflict},
		{shared.CodeAlreadyExists, http.StatusConflict},
		{shared.CodeReferenceNotFound, http.StatusNotFound},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeInvariantViolation, http.StatusInternalServerError},
		{shared.CodeForbidden, http.StatusForbidden},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(shared.CodeInsufficientStock))
	assert.True(t, IsClientError(shared.CodeContended))
	assert.False(t, IsClientError(shared.CodeInvariantViolation))
	assert.False(t, IsClientError("SOMETHING_NEW"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	details := []map[string]string{{"product_id": "p1", "shortfall": "3"}}
	resp := NewErrorResponseWithRequestID(shared.CodeInsufficientStock, "Insufficient stock available", "req-123", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeInsufficientStock, resp.Error.Code)
	assert.Equal(t, "Insufficient stock available", resp.Error.Message)
	assert.Equal(t, details, resp.Error.Details)
	assert.Equal(t, "req-123", resp.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "quantity", Message: "Must be a positive decimal"},
		{Field: "warehouse_id", Message: "This field is required"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(shared.CodeNotFound, "transfer not found", "req-test-123", nil)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "req-test-123", decoded["request_id"])
	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, shared.CodeNotFound, errObj["code"])
	assert.NotContains(t, errObj, "details")
	assert.NotContains(t, decoded, "data")
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"name": "test"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestNewSuccessResponseWithMetaPagination(t *testing.T) {
	tests := []struct {
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{100, 10, 10, 10},
		{101, 10, 11, 10},
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		{11, 10, 2, 10},
		{3, 0, 3, 1},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
	}
}

func TestListRequestNormalize(t *testing.T) {
	assert.Equal(t, ListRequest{Page: 1, PageSize: 20}, ListRequest{}.Normalize())
	assert.Equal(t, ListRequest{Page: 3, PageSize: 50}, ListRequest{Page: 3, PageSize: 50}.Normalize())
}
