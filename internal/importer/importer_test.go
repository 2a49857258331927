package importer

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, header []string, rows [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, label := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, label))
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadWorkbook(t *testing.T) {
	buf := buildWorkbook(t,
		[]string{ColName, ColPhone, ColOrderNo, ColAmount, ColProductName, "无关列"},
		[][]string{
			{"张三", "13800138000", "SO-1001", "399", "连衣裙", "ignored"},
			{"李四", "", "SO-1002", "258.5", "风衣", ""},
		},
	)

	rows, err := ReadWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].RowNumber)
	assert.Equal(t, "张三", rows[0].Name)
	assert.Equal(t, "13800138000", rows[0].Phone)
	assert.Equal(t, "SO-1001", rows[0].OrderNo)
	assert.Equal(t, "399", rows[0].Amount)
	assert.Equal(t, "连衣裙", rows[0].ProductName)

	assert.Equal(t, "李四", rows[1].Name)
	assert.Empty(t, rows[1].Phone)
}

func TestReadWorkbook_ColumnsInAnyOrder(t *testing.T) {
	buf := buildWorkbook(t,
		[]string{ColAmount, ColName, ColPaymentDate},
		[][]string{{"100", "王五", "2024-03-15"}},
	)

	rows, err := ReadWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "王五", rows[0].Name)
	assert.Equal(t, "100", rows[0].Amount)
	assert.Equal(t, "2024-03-15", rows[0].PaymentDate)
}

func TestParseDate_ExcelSerial(t *testing.T) {
	got := ParseDate("44197")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), *got)
}

func TestParseDate_SerialWithFraction(t *testing.T) {
	// 44197.5 is noon on 2021-01-01
	got := ParseDate("44197.5")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC), *got)
}

func TestParseDate_StringLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-15":          time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"2024/03/15":          time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"2024-03-15 10:30:00": time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got := ParseDate(input)
		require.NotNil(t, got, input)
		assert.Equal(t, want, *got, input)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("   "))
	assert.Nil(t, ParseDate("not-a-date"))
	assert.Nil(t, ParseDate("0"))
	assert.Nil(t, ParseDate("-5"))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 399.0, ParseAmount("399"))
	assert.Equal(t, 1299.5, ParseAmount("1,299.5"))
	assert.Equal(t, 88.0, ParseAmount("¥88"))
	assert.Equal(t, 0.0, ParseAmount(""))
	assert.Equal(t, 0.0, ParseAmount("abc"))
}

func TestParseOptionalAmount(t *testing.T) {
	assert.Nil(t, ParseOptionalAmount(""))
	assert.Nil(t, ParseOptionalAmount("  "))

	got := ParseOptionalAmount("50")
	require.NotNil(t, got)
	assert.Equal(t, 50.0, *got)
}
