package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-08")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", d.String())

	_, err = ParseDate("08/01/2024")
	assert.Error(t, err)

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestDateAddDays(t *testing.T) {
	d := NewDate(2024, time.January, 31)
	assert.Equal(t, "2024-02-01", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(30).String())
	assert.Equal(t, "2024-01-30", d.AddDays(-1).String())
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		IssueDate Date `json:"issueDate"`
	}

	t.Run("marshal", func(t *testing.T) {
		out, err := json.Marshal(payload{IssueDate: NewDate(2024, time.June, 5)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"issueDate":"2024-06-05"}`, string(out))
	})

	t.Run("marshal zero value", func(t *testing.T) {
		out, err := json.Marshal(payload{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"issueDate":""}`, string(out))
	})

	t.Run("unmarshal", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"issueDate":"2024-06-05"}`), &p))
		assert.Equal(t, NewDate(2024, time.June, 5), p.IssueDate)
	})

	t.Run("unmarshal empty and null", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"issueDate":""}`), &p))
		assert.True(t, p.IssueDate.IsZero())

		require.NoError(t, json.Unmarshal([]byte(`{"issueDate":null}`), &p))
		assert.True(t, p.IssueDate.IsZero())
	})

	t.Run("unmarshal rejects other layouts", func(t *testing.T) {
		var p payload
		assert.Error(t, json.Unmarshal([]byte(`{"issueDate":"2024-06-05T00:00:00Z"}`), &p))
	})
}

func TestDateScan(t *testing.T) {
	t.Run("time value", func(t *testing.T) {
		var d Date
		// A driver timestamp in a non UTC zone still scans to the
		// same calendar day.
		loc := time.FixedZone("UTC+11", 11*3600)
		require.NoError(t, d.Scan(time.Date(2024, time.June, 5, 23, 30, 0, 0, loc)))
		assert.Equal(t, "2024-06-05", d.String())
	})

	t.Run("byte slice", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan([]byte("2024-06-05")))
		assert.Equal(t, "2024-06-05", d.String())
	})

	t.Run("nil", func(t *testing.T) {
		d := NewDate(2024, time.June, 5)
		require.NoError(t, d.Scan(nil))
		assert.True(t, d.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var d Date
		assert.Error(t, d.Scan(42))
	})
}

func TestDateValue(t *testing.T) {
	v, err := NewDate(2024, time.June, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
