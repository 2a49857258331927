package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/db"
	"github.com/xqian/apparel-crm-backend/internal/importer"
)

func setupImportTest(t *testing.T) (ImportService, *gorm.DB) {
	t.Helper()

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	memberRepo := repository.NewMemberRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	stats := NewStatsService(memberRepo, orderRepo)

	return NewImportService(memberRepo, orderRepo, stats, nil), database
}

func TestImportRows_CreatesMembersAndOrders(t *testing.T) {
	svc, database := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "张三", Phone: "13800138000", OrderNo: "SO-1", Amount: "300", CostPrice: "120", ProductName: "连衣裙", PaymentDate: "2024-03-15"},
		{RowNumber: 3, Name: "李四", OrderNo: "SO-2", Amount: "200", ProductName: "风衣"},
	}

	summary, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalProcessed)
	assert.Equal(t, 2, summary.NewMembers)
	assert.Equal(t, 2, summary.NewOrders)
	assert.Equal(t, 0, summary.DuplicateOrders)
	assert.Equal(t, 0, summary.FailedRows)

	var member model.Member
	require.NoError(t, database.Where("name = ?", "张三").First(&member).Error)
	require.NotNil(t, member.Phone)
	assert.Equal(t, "13800138000", *member.Phone)

	// 导入后会员统计已重算
	assert.Equal(t, 1, member.TotalOrders)
	assert.Equal(t, 300.0, member.TotalAmount)
	require.NotNil(t, member.LastOrderDate)

	var order model.Order
	require.NoError(t, database.Where("member_id = ?", member.ID).First(&order).Error)
	require.NotNil(t, order.Profit)
	assert.Equal(t, 180.0, *order.Profit)
	require.NotNil(t, order.ProfitRate)
	assert.Equal(t, 60.0, *order.ProfitRate)
	require.NotNil(t, order.PaymentDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), order.PaymentDate.UTC())
	assert.Equal(t, model.OrderStatusPending, order.Status)
}

func TestImportRows_OrderWithoutCostPriceHasNoProfit(t *testing.T) {
	svc, database := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "王五", OrderNo: "SO-8", Amount: "100", ProductName: "半身裙"},
	}

	_, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)

	var order model.Order
	require.NoError(t, database.Where("order_no = ?", "SO-8").First(&order).Error)
	assert.Nil(t, order.Profit)
	assert.Nil(t, order.ProfitRate)
}

func TestImportRows_SkipsRowsWithoutName(t *testing.T) {
	svc, _ := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "", OrderNo: "SO-1", Amount: "100"},
		{RowNumber: 3, Name: "   ", OrderNo: "SO-2", Amount: "100"},
	}

	summary, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SkippedRows)
	assert.Equal(t, 0, summary.NewMembers)
	assert.Equal(t, 0, summary.NewOrders)
}

func TestImportRows_DeduplicatesOrders(t *testing.T) {
	svc, database := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "张三", OrderNo: "SO-1", Amount: "300", ProductName: "连衣裙"},
		{RowNumber: 3, Name: "张三", OrderNo: "SO-1", Amount: "300", ProductName: "连衣裙"},
	}

	summary, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewMembers)
	assert.Equal(t, 1, summary.DuplicateMembers)
	assert.Equal(t, 1, summary.NewOrders)
	assert.Equal(t, 1, summary.DuplicateOrders)

	var count int64
	require.NoError(t, database.Model(&model.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 重复导入同一文件不产生新数据
	summary, err = svc.ImportRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewOrders)
	assert.Equal(t, 2, summary.DuplicateOrders)

	require.NoError(t, database.Model(&model.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportRows_SameOrderNoDifferentMembers(t *testing.T) {
	svc, database := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "张三", OrderNo: "SO-1", Amount: "100"},
		{RowNumber: 3, Name: "李四", OrderNo: "SO-1", Amount: "200"},
	}

	summary, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NewOrders)
	assert.Equal(t, 0, summary.DuplicateOrders)

	var count int64
	require.NoError(t, database.Model(&model.Order{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportRows_ResolvesMemberByPhone(t *testing.T) {
	svc, database := setupImportTest(t)

	phone := "13900000000"
	member := &model.Member{Name: "张三", Phone: &phone, Status: model.MemberStatusActive}
	require.NoError(t, database.Create(member).Error)

	// 姓名写法不同但手机号相同，归到同一会员
	rows := []importer.Row{
		{RowNumber: 2, Name: "张三(老客)", Phone: phone, OrderNo: "SO-9", Amount: "100"},
	}

	summary, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewMembers)
	assert.Equal(t, 1, summary.DuplicateMembers)

	var count int64
	require.NoError(t, database.Model(&model.Member{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportRows_BackfillsWithoutOverwriting(t *testing.T) {
	svc, database := setupImportTest(t)

	member := &model.Member{Name: "李四", Address: "已有地址", Status: model.MemberStatusActive}
	require.NoError(t, database.Create(member).Error)

	rows := []importer.Row{
		{RowNumber: 2, Name: "李四", Phone: "13711112222", Address: "新地址", OrderNo: "SO-3", Amount: "50"},
	}

	_, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)

	var got model.Member
	require.NoError(t, database.First(&got, member.ID).Error)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "13711112222", *got.Phone, "missing phone should be backfilled")
	assert.Equal(t, "已有地址", got.Address, "existing address must not be overwritten")
}

func TestImportRows_RowWithoutOrderInfo(t *testing.T) {
	svc, database := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "王五", Phone: "13600000000"},
	}

	summary, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewMembers)
	assert.Equal(t, 0, summary.NewOrders)
	assert.Equal(t, 1, summary.SkippedRows)

	var count int64
	require.NoError(t, database.Model(&model.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestImportRows_RefundFields(t *testing.T) {
	svc, database := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "张三", OrderNo: "SO-1", Amount: "300", RefundAmount: "300", RefundType: "全额退款", RefundDate: "2024-04-01"},
		{RowNumber: 3, Name: "张三", OrderNo: "SO-2", Amount: "200"},
	}

	_, err := svc.ImportRows(rows, nil)
	require.NoError(t, err)

	var member model.Member
	require.NoError(t, database.Where("name = ?", "张三").First(&member).Error)
	assert.Equal(t, 50.0, member.ReturnRate)
}

func TestImportRows_EmitsEvents(t *testing.T) {
	svc, _ := setupImportTest(t)

	var events []ImportEvent
	sink := func(e ImportEvent) { events = append(events, e) }

	rows := []importer.Row{
		{RowNumber: 2, Name: "张三", OrderNo: "SO-1", Amount: "100"},
	}

	_, err := svc.ImportRows(rows, sink)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var severities []string
	for _, e := range events {
		assert.False(t, e.Timestamp.IsZero())
		severities = append(severities, e.Type)
	}
	assert.Contains(t, severities, EventSuccess)

	// 最后一条是导入完成汇总
	assert.Equal(t, EventSuccess, events[len(events)-1].Type)
}

func TestImportRows_NilSink(t *testing.T) {
	svc, _ := setupImportTest(t)

	rows := []importer.Row{
		{RowNumber: 2, Name: "张三", OrderNo: "SO-1", Amount: "100"},
	}
	_, err := svc.ImportRows(rows, nil)
	assert.NoError(t, err)
}
