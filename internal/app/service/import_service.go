package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/importer"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// 导入事件级别
const (
	EventInfo     = "info"
	EventSuccess  = "success"
	EventError    = "error"
	EventProgress = "progress"
)

// ImportEvent 导入过程中的一条进度消息
type ImportEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
}

// ImportSink receives import events as they happen. A nil sink is valid
// and drops events.
type ImportSink func(event ImportEvent)

// ImportSummary 一次导入的统计结果
type ImportSummary struct {
	TotalProcessed   int `json:"total_processed"`
	NewMembers       int `json:"new_members"`
	DuplicateMembers int `json:"duplicate_members"`
	NewOrders        int `json:"new_orders"`
	DuplicateOrders  int `json:"duplicate_orders"`
	SkippedRows      int `json:"skipped_rows"`
	FailedRows       int `json:"failed_rows"`
}

// Archiver stores a copy of an uploaded bill file. Archiving is
// best-effort; failures never fail the import itself.
type Archiver interface {
	Archive(ctx context.Context, filename string, data []byte) (string, error)
}

type ImportService interface {
	ImportWorkbook(r io.Reader, filename string, sink ImportSink) (*ImportSummary, error)
	ImportRows(rows []importer.Row, sink ImportSink) (*ImportSummary, error)
	FixPaymentDates(r io.Reader) (int, error)
}

type importService struct {
	memberRepo repository.MemberRepository
	orderRepo  repository.OrderRepository
	stats      StatsService
	archiver   Archiver // 可为 nil
}

func NewImportService(
	memberRepo repository.MemberRepository,
	orderRepo repository.OrderRepository,
	stats StatsService,
	archiver Archiver,
) ImportService {
	return &importService{
		memberRepo: memberRepo,
		orderRepo:  orderRepo,
		stats:      stats,
		archiver:   archiver,
	}
}

func emitEvent(sink ImportSink, severity, format string, args ...interface{}) {
	if sink == nil {
		return
	}
	sink(ImportEvent{
		Timestamp: time.Now(),
		Message:   fmt.Sprintf(format, args...),
		Type:      severity,
	})
}

// ImportWorkbook reads a bill workbook, archives the original file and
// imports every row.
func (s *importService) ImportWorkbook(r io.Reader, filename string, sink ImportSink) (*ImportSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	if s.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		key, archiveErr := s.archiver.Archive(ctx, filename, data)
		cancel()
		if archiveErr != nil {
			logger.Warn("Failed to archive bill file", map[string]interface{}{
				"filename": filename,
				"error":    archiveErr.Error(),
			})
		} else {
			logger.Info("Bill file archived", map[string]interface{}{
				"filename": filename,
				"key":      key,
			})
		}
	}

	rows, err := importer.ReadWorkbook(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	emitEvent(sink, EventInfo, "开始导入，共 %d 行数据", len(rows))
	return s.ImportRows(rows, sink)
}

// ImportRows imports bill rows one by one. A bad row fails alone; the
// rest of the file keeps importing. Touched members are reconciled once
// at the end.
func (s *importService) ImportRows(rows []importer.Row, sink ImportSink) (*ImportSummary, error) {
	summary := &ImportSummary{}
	touched := make(map[uint]bool)

	for _, row := range rows {
		summary.TotalProcessed++

		if err := s.importRow(row, sink, summary, touched); err != nil {
			summary.FailedRows++
			logger.Error("Failed to import row", err, map[string]interface{}{
				"row": row.RowNumber,
			})
			emitEvent(sink, EventError, "第 %d 行导入失败: %s", row.RowNumber, err.Error())
		}

		if summary.TotalProcessed%10 == 0 {
			emitEvent(sink, EventProgress, "已处理 %d/%d 行", summary.TotalProcessed, len(rows))
		}
	}

	if len(touched) > 0 {
		ids := make([]uint, 0, len(touched))
		for id := range touched {
			ids = append(ids, id)
		}
		emitEvent(sink, EventInfo, "正在重算 %d 位会员的统计数据", len(ids))
		reconcile := s.stats.ReconcileMembers(ids)
		if reconcile.Failed > 0 {
			emitEvent(sink, EventError, "%d 位会员统计重算失败", reconcile.Failed)
		}
	}

	logger.Info("Import finished", map[string]interface{}{
		"total_processed":   summary.TotalProcessed,
		"new_members":       summary.NewMembers,
		"duplicate_members": summary.DuplicateMembers,
		"new_orders":        summary.NewOrders,
		"duplicate_orders":  summary.DuplicateOrders,
		"skipped_rows":      summary.SkippedRows,
		"failed_rows":       summary.FailedRows,
	})
	emitEvent(sink, EventSuccess,
		"导入完成：新增会员 %d，新增订单 %d，重复订单 %d，跳过 %d，失败 %d",
		summary.NewMembers, summary.NewOrders, summary.DuplicateOrders,
		summary.SkippedRows, summary.FailedRows)

	return summary, nil
}

func (s *importService) importRow(row importer.Row, sink ImportSink, summary *ImportSummary, touched map[uint]bool) error {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		summary.SkippedRows++
		emitEvent(sink, EventInfo, "第 %d 行缺少姓名，已跳过", row.RowNumber)
		return nil
	}

	member, created, err := s.resolveMember(row, name)
	if err != nil {
		return err
	}
	if created {
		summary.NewMembers++
		emitEvent(sink, EventSuccess, "新增会员: %s", name)
	} else {
		summary.DuplicateMembers++
	}

	orderNo := strings.TrimSpace(row.OrderNo)
	amount := importer.ParseAmount(row.Amount)
	hasOrderInfo := orderNo != "" || strings.TrimSpace(row.ProductName) != "" || amount > 0
	if !hasOrderInfo {
		summary.SkippedRows++
		emitEvent(sink, EventInfo, "第 %d 行无订单信息，仅更新会员 %s", row.RowNumber, name)
		return nil
	}

	if orderNo != "" {
		exists, err := s.orderRepo.ExistsByMemberAndOrderNo(member.ID, orderNo)
		if err != nil {
			return err
		}
		if exists {
			summary.DuplicateOrders++
			emitEvent(sink, EventInfo, "第 %d 行订单 %s 已存在，已跳过", row.RowNumber, orderNo)
			return nil
		}
	}

	order := s.buildOrder(row, member.ID, orderNo, amount)
	if err := s.orderRepo.Create(order); err != nil {
		// 唯一约束冲突视为重复订单，不算失败
		if isDuplicateKeyError(err) {
			summary.DuplicateOrders++
			emitEvent(sink, EventInfo, "第 %d 行订单 %s 已存在，已跳过", row.RowNumber, orderNo)
			return nil
		}
		return err
	}

	summary.NewOrders++
	touched[member.ID] = true
	emitEvent(sink, EventSuccess, "新增订单: %s / %s", name, order.ProductName)
	return nil
}

// resolveMember finds the row's member by name or phone, creating one
// when missing. Existing members are backfilled, never overwritten:
// only fields the member does not yet have are taken from the row.
func (s *importService) resolveMember(row importer.Row, name string) (*model.Member, bool, error) {
	phone := strings.TrimSpace(row.Phone)
	address := strings.TrimSpace(row.Address)

	member, err := s.memberRepo.FindByNameOrPhone(name, phone)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}

		member = &model.Member{
			Name:          name,
			Address:       address,
			Status:        model.MemberStatusActive,
			ActivityLevel: model.ActivityDeeplyInactive,
		}
		if phone != "" {
			member.Phone = &phone
		}
		if err := s.memberRepo.Create(member); err != nil {
			return nil, false, err
		}
		return member, true, nil
	}

	changed := false
	if member.Phone == nil && phone != "" {
		member.Phone = &phone
		changed = true
	}
	if member.Address == "" && address != "" {
		member.Address = address
		changed = true
	}
	if changed {
		if err := s.memberRepo.Update(member); err != nil {
			return nil, false, err
		}
	}
	return member, false, nil
}

func (s *importService) buildOrder(row importer.Row, memberID uint, orderNo string, amount float64) *model.Order {
	costPrice := importer.ParseAmount(row.CostPrice)
	profit, profitRate := computeProfit(amount, costPrice)

	order := &model.Order{
		MemberID:          memberID,
		PaymentDate:       importer.ParseDate(row.PaymentDate),
		Platform:          row.Platform,
		ResponsiblePerson: row.Responsible,
		ProductName:       row.ProductName,
		ProductCode:       row.ProductCode,
		Manufacturer:      row.Manufacturer,
		Amount:            amount,
		CostPrice:         costPrice,
		Profit:            profit,
		ProfitRate:        profitRate,
		Size:              row.Size,
		Color:             row.Color,
		CustomerInfo:      row.CustomerInfo,
		ShippingAddress:   strings.TrimSpace(row.Address),
		CourierCompany:    row.CourierCompany,
		Remarks:           row.Remarks,
		Status:            model.OrderStatusPending,
		RefundResponsible: row.RefundResponsible,
		RefundDate:        importer.ParseDate(row.RefundDate),
		RefundAmount:      importer.ParseOptionalAmount(row.RefundAmount),
		RefundType:        row.RefundType,
		RefundReason:      row.RefundReason,
		ReturnTrackingNo:  row.ReturnTrackingNo,
		ReturnAddress:     row.ReturnAddress,
	}
	if orderNo != "" {
		order.OrderNo = &orderNo
	}
	return order
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed")
}

// FixPaymentDates re-reads a bill workbook and fills in payment dates
// for orders that were imported without one. Matching uses the row's
// member plus order number, falling back to product name.
func (s *importService) FixPaymentDates(r io.Reader) (int, error) {
	rows, err := importer.ReadWorkbook(r)
	if err != nil {
		return 0, err
	}

	fixed := 0
	touched := make(map[uint]bool)

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		paymentDate := importer.ParseDate(row.PaymentDate)
		if paymentDate == nil {
			continue
		}

		member, err := s.memberRepo.FindByNameOrPhone(name, strings.TrimSpace(row.Phone))
		if err != nil {
			continue
		}

		order, err := s.orderRepo.FindForPaymentDateFix(member.ID, strings.TrimSpace(row.OrderNo), strings.TrimSpace(row.ProductName))
		if err != nil {
			continue
		}
		if equalTimePtr(order.PaymentDate, paymentDate) {
			continue
		}

		order.PaymentDate = paymentDate
		if err := s.orderRepo.Update(order); err != nil {
			logger.Error("Failed to fix payment date", err, map[string]interface{}{
				"order_id": order.ID,
			})
			continue
		}
		fixed++
		touched[member.ID] = true
	}

	if len(touched) > 0 {
		ids := make([]uint, 0, len(touched))
		for id := range touched {
			ids = append(ids, id)
		}
		s.stats.ReconcileMembers(ids)
	}

	logger.Info("Payment dates fixed", map[string]interface{}{
		"fixed": fixed,
	})
	return fixed, nil
}
