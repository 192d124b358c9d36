package termsmap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusUnknown, "UnknownError"},
		{StatusXMLRead, "XmlReadError"},
		{StatusAllocation, "AllocationError"},
		{StatusSuccessful, "Successful"},
		{Status(200), "Status(200)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestStatus_ZeroValueIsNotSuccess(t *testing.T) {
	var r Result
	assert.False(t, r.Ok())
	assert.Equal(t, StatusUnknown, r.Status)
}

func TestResult_Description(t *testing.T) {
	assert.Equal(t, "Success", Success().Description())

	r := Result{Status: StatusInvalidArguments, Message: "bad filepath @ /nope"}
	assert.Equal(t, "Bad arguments with msg: bad filepath @ /nope", r.Description())

	r = Result{Status: StatusEmptyNodeData}
	assert.Equal(t, "Failed to resolve node data", r.Description())
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Success().Err())

	err := Result{Status: StatusFileNotFound, Message: "x.csv"}.Err()
	require.Error(t, err)
	assert.Equal(t, StatusFileNotFound, StatusOf(err))
	assert.Equal(t, "x.csv", ResultOf(err).Message)
}

func TestError_Wrapping(t *testing.T) {
	cause := errors.New("disk on fire")
	err := fmt.Errorf("loading: %w", WrapError(StatusLineRead, cause))

	assert.True(t, IsStatus(err, StatusLineRead))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "disk on fire", ResultOf(err).Message)
	assert.Contains(t, err.Error(), "Failed to read line with msg: disk on fire")
}

func TestNewError(t *testing.T) {
	err := NewError(StatusInvalidArguments, "expected non-empty xref target")
	assert.Equal(t, "Bad arguments with msg: expected non-empty xref target", err.Error())

	err = NewError(StatusPolicy, "row %d", 7)
	assert.Equal(t, "row 7", err.Message)
	assert.Nil(t, err.Unwrap())
}

func TestStatusOf_Foreign(t *testing.T) {
	assert.Equal(t, StatusSuccessful, StatusOf(nil))
	assert.Equal(t, StatusUnknown, StatusOf(errors.New("boom")))
	assert.Equal(t, Result{Status: StatusUnknown, Message: "boom"}, ResultOf(errors.New("boom")))
	assert.True(t, ResultOf(nil).Ok())
}
