package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/amazon-bestsellers/internal/models"
)

var runAt = time.Unix(1700000000, 0)

func sampleRecords() []models.ProductRecord {
	return []models.ProductRecord{
		{
			Category:     "Car & Motorbike",
			Name:         "Tyre Inflator",
			Price:        "1,999",
			SaleDiscount: "-60%",
			Rating:       "4.1",
			Description:  "Line one\nLine two, with comma",
			Images:       []string{"https://m.media-amazon.com/a.jpg?x=1&y=2", "https://m.media-amazon.com/b.jpg"},
		},
		{
			Category:     "Books",
			Name:         `The "Quoted" Book`,
			SaleDiscount: "-55%",
			Images:       []string{},
		},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "amazon_best_sellers_1700000000.json", FileName(FormatJSON, runAt))
	assert.Equal(t, "amazon_best_sellers_1700000000.csv", FileName(FormatCSV, runAt))
}

func loadJSON(path string) ([]models.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []models.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func TestSaveJSON(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, FormatJSON, sampleRecords(), runAt)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "amazon_best_sellers_1700000000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "[\n    {\n        \"category\": \"Car & Motorbike\""))
	assert.Contains(t, content, "a.jpg?x=1&y=2")
	assert.NotContains(t, content, `\u0026`)

	loaded, err := loadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), loaded)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveJSONEmpty(t *testing.T) {
	path, err := Save(t.TempDir(), FormatJSON, nil, runAt)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSaveCSV(t *testing.T) {
	path, err := Save(t.TempDir(), FormatCSV, sampleRecords(), runAt)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"category", "name", "price", "sale_discount", "rating", "best_seller_rank",
		"ship_from", "sold_by", "description", "units_sold", "images",
	}, rows[0])
	assert.Equal(t, "Car & Motorbike", rows[1][0])
	assert.Equal(t, "Line one\nLine two, with comma", rows[1][8])
	assert.Equal(t, `The "Quoted" Book`, rows[2][1])

	var images []string
	require.NoError(t, json.Unmarshal([]byte(rows[1][10]), &images))
	assert.Equal(t, sampleRecords()[0].Images, images)
	assert.Equal(t, "[]", rows[2][10])
}

func TestSaveCSVEmpty(t *testing.T) {
	path, err := Save(t.TempDir(), FormatCSV, []models.ProductRecord{}, runAt)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")

	path, err := Save(dir, FormatJSON, sampleRecords(), runAt)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestSaveUnknownFormat(t *testing.T) {
	dir := t.TempDir()

	_, err := Save(dir, "xml", sampleRecords(), runAt)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
