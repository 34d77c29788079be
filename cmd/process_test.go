package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportedge/freight-advisor/internal/model"
)

func writeOrderFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRecords_SingleAndArray(t *testing.T) {
	single := writeOrderFile(t, "one.json", `{"order_id": {"S": "ORD-1"}}`)
	batch := writeOrderFile(t, "many.json", `[
		{"order_id": {"S": "ORD-2"}},
		{"order_id": {"S": "ORD-3"}}
	]`)

	records, err := loadRecords([]string{single, batch})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "ORD-1", records[0]["order_id"].String())
	assert.Equal(t, "ORD-3", records[2]["order_id"].String())
}

func TestLoadRecords_PlainValuesAccepted(t *testing.T) {
	path := writeOrderFile(t, "plain.json", `{"order_id": "ORD-9", "product_quantity": 100}`)

	records, err := loadRecords([]string{path})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ORD-9", records[0]["order_id"].String())
}

func TestLoadRecords_BadFile(t *testing.T) {
	path := writeOrderFile(t, "bad.json", `not json`)

	_, err := loadRecords([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestLoadRecords_MissingFile(t *testing.T) {
	_, err := loadRecords([]string{filepath.Join(t.TempDir(), "absent.json")})
	require.Error(t, err)
}

func TestProcessRecords_IndividualFailureDoesNotAbort(t *testing.T) {
	records := []model.Record{
		{"order_id": mustAttr(t, `{"S": "ORD-1"}`)},
		{"order_id": mustAttr(t, `{"S": "ORD-2"}`)},
		{"order_id": mustAttr(t, `{"S": "ORD-3"}`)},
	}

	var mu sync.Mutex
	seen := map[string]bool{}

	err := processRecords(context.Background(), records, 0, 2, func(_ context.Context, rec model.Record) (*model.Summary, error) {
		id := rec["order_id"].String()
		mu.Lock()
		seen[id] = true
		mu.Unlock()
		if id == "ORD-2" {
			return &model.Summary{Order: model.Order{OrderID: id}}, assert.AnError
		}
		return &model.Summary{Order: model.Order{OrderID: id}, RunID: "r-" + id}, nil
	})

	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestProcessRecords_LimitApplies(t *testing.T) {
	records := []model.Record{
		{"order_id": mustAttr(t, `{"S": "ORD-1"}`)},
		{"order_id": mustAttr(t, `{"S": "ORD-2"}`)},
	}

	var count int
	var mu sync.Mutex
	err := processRecords(context.Background(), records, 1, 1, func(context.Context, model.Record) (*model.Summary, error) {
		mu.Lock()
		count++
		mu.Unlock()
		return &model.Summary{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessRecords_Empty(t *testing.T) {
	called := false
	err := processRecords(context.Background(), nil, 0, 1, func(context.Context, model.Record) (*model.Summary, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func mustAttr(t *testing.T, raw string) model.Attr {
	t.Helper()
	var a model.Attr
	require.NoError(t, a.UnmarshalJSON([]byte(raw)))
	return a
}
