package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// 账单表格的中文表头，导入时按表头定位列，列顺序不限
const (
	ColName              = "姓名"
	ColPhone             = "手机号"
	ColAddress           = "地址"
	ColOrderNo           = "单号"
	ColPaymentDate       = "顾客付款日期"
	ColPlatform          = "出售平台"
	ColResponsible       = "负责人"
	ColProductName       = "商品名称"
	ColProductCode       = "货品名"
	ColManufacturer      = "厂家"
	ColAmount            = "收款额"
	ColCostPrice         = "成本价"
	ColSize              = "尺码"
	ColColor             = "颜色"
	ColCustomerInfo      = "客户信息"
	ColCourierCompany    = "快递公司"
	ColRemarks           = "备注"
	ColRefundResponsible = "退款负责人"
	ColRefundDate        = "退款日"
	ColRefundAmount      = "退款金额"
	ColRefundType        = "退款类型"
	ColRefundReason      = "退款原因"
	ColReturnTrackingNo  = "退货单号"
	ColReturnAddress     = "退货地址"
)

// Row is one spreadsheet row with recognized columns mapped to fields.
// All values stay raw strings; parsing happens at import time so a bad
// cell fails one row instead of the whole workbook.
type Row struct {
	RowNumber int // 1-based row number in the sheet, for error reporting

	Name              string
	Phone             string
	Address           string
	OrderNo           string
	PaymentDate       string
	Platform          string
	Responsible       string
	ProductName       string
	ProductCode       string
	Manufacturer      string
	Amount            string
	CostPrice         string
	Size              string
	Color             string
	CustomerInfo      string
	CourierCompany    string
	Remarks           string
	RefundResponsible string
	RefundDate        string
	RefundAmount      string
	RefundType        string
	RefundReason      string
	ReturnTrackingNo  string
	ReturnAddress     string
}

// ReadWorkbook reads the first sheet of an xlsx workbook.
// The first row is the header; unknown columns are ignored.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	header := rows[0]
	columns := make(map[int]string, len(header))
	for i, label := range header {
		columns[i] = strings.TrimSpace(label)
	}

	logger.Debug("Workbook header parsed", map[string]interface{}{
		"sheet":   sheet,
		"columns": len(columns),
		"rows":    len(rows) - 1,
	})

	result := make([]Row, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		row := Row{RowNumber: i + 2}
		for j, cell := range cells {
			assign(&row, columns[j], strings.TrimSpace(cell))
		}
		result = append(result, row)
	}
	return result, nil
}

func assign(row *Row, label, value string) {
	switch label {
	case ColName:
		row.Name = value
	case ColPhone:
		row.Phone = value
	case ColAddress:
		row.Address = value
	case ColOrderNo:
		row.OrderNo = value
	case ColPaymentDate:
		row.PaymentDate = value
	case ColPlatform:
		row.Platform = value
	case ColResponsible:
		row.Responsible = value
	case ColProductName:
		row.ProductName = value
	case ColProductCode:
		row.ProductCode = value
	case ColManufacturer:
		row.Manufacturer = value
	case ColAmount:
		row.Amount = value
	case ColCostPrice:
		row.CostPrice = value
	case ColSize:
		row.Size = value
	case ColColor:
		row.Color = value
	case ColCustomerInfo:
		row.CustomerInfo = value
	case ColCourierCompany:
		row.CourierCompany = value
	case ColRemarks:
		row.Remarks = value
	case ColRefundResponsible:
		row.RefundResponsible = value
	case ColRefundDate:
		row.RefundDate = value
	case ColRefundAmount:
		row.RefundAmount = value
	case ColRefundType:
		row.RefundType = value
	case ColRefundReason:
		row.RefundReason = value
	case ColReturnTrackingNo:
		row.ReturnTrackingNo = value
	case ColReturnAddress:
		row.ReturnAddress = value
	}
}

// dateLayouts are the string date formats seen in real bill sheets.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006年1月2日",
	"01-02-06",
}

// ParseDate parses a spreadsheet date cell. Numeric cells are Excel
// serial dates counted from 1899-12-30; serial 25569 is the Unix epoch,
// so 44197 maps to 2021-01-01. String cells try known layouts.
// Empty or unrecognized values return nil.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial <= 0 {
			return nil
		}
		t := time.Unix(int64((serial-25569)*86400), 0).UTC()
		return &t
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseAmount parses a money cell, tolerating currency symbols,
// thousands separators and surrounding whitespace. Bad cells become 0.
func ParseAmount(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	value = strings.NewReplacer(",", "", "¥", "", "￥", "", " ", "").Replace(value)
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return amount
}

// ParseOptionalAmount is ParseAmount but keeps the absent/zero
// distinction, which refund amounts depend on.
func ParseOptionalAmount(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	amount := ParseAmount(value)
	return &amount
}
