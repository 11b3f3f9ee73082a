package export

import (
	"bytes"
	"testing"

	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteExcel(t *testing.T) {
	table := models.ProductTable{
		{
			ProductName: "Tata Sampann Moong Dal 500g",
			BrandName:   "Tata Sampann",
			PackSize:    "500g",
			Price:       "₹199.00",
			ImageURL:    "https://m.media-amazon.com/images/I/81abc.jpg",
		},
		{
			ProductName: "Solimo Toor Dal 1kg",
			BrandName:   "Solimo",
			PackSize:    "1kg",
			Price:       "N/A",
			ImageURL:    "N/A",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, table))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.Columns(), rows[0])
	assert.Equal(t, table[0].Row(), rows[1])
	assert.Equal(t, table[1].Row(), rows[2])
}

func TestWriteExcelEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.Columns(), rows[0])
}
