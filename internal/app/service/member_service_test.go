package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/db"
)

func setupMemberTest(t *testing.T) (MemberService, *gorm.DB) {
	t.Helper()

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(database) })

	return NewMemberService(repository.NewMemberRepository(database)), database
}

func TestCreateMember(t *testing.T) {
	svc, _ := setupMemberTest(t)

	member, err := svc.CreateMember(CreateMemberInput{
		Name:    "张三",
		Phone:   "13800138000",
		Address: "上海市",
	})
	require.NoError(t, err)
	assert.NotZero(t, member.ID)
	assert.Equal(t, model.MemberStatusActive, member.Status)
	assert.Equal(t, model.ActivityDeeplyInactive, member.ActivityLevel)
	assert.Equal(t, 0, member.TotalOrders)
}

func TestCreateMember_NameRequired(t *testing.T) {
	svc, _ := setupMemberTest(t)

	_, err := svc.CreateMember(CreateMemberInput{Name: "   "})
	assert.ErrorIs(t, err, ErrMemberNameRequired)
}

func TestCreateMember_RejectsDuplicates(t *testing.T) {
	svc, _ := setupMemberTest(t)

	_, err := svc.CreateMember(CreateMemberInput{Name: "张三", Phone: "13800138000"})
	require.NoError(t, err)

	// 同名
	_, err = svc.CreateMember(CreateMemberInput{Name: "张三"})
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)

	// 同手机号
	_, err = svc.CreateMember(CreateMemberInput{Name: "张三丰", Phone: "13800138000"})
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)
}

func TestListMembers_SearchAndSort(t *testing.T) {
	svc, database := setupMemberTest(t)

	members := []model.Member{
		{Name: "张三", TotalAmount: 100, Status: model.MemberStatusActive},
		{Name: "李四", TotalAmount: 300, Status: model.MemberStatusActive},
		{Name: "张伟", TotalAmount: 200, Status: model.MemberStatusActive},
	}
	require.NoError(t, database.Create(&members).Error)

	// 搜索
	got, pagination, err := svc.ListMembers(repository.ListMembersParams{Search: "张"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pagination.Total)
	assert.Len(t, got, 2)

	// 按累计金额降序
	got, _, err = svc.ListMembers(repository.ListMembersParams{SortBy: "total_amount", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "李四", got[0].Name)
	assert.Equal(t, "张伟", got[1].Name)
}

func TestListMembers_Pagination(t *testing.T) {
	svc, database := setupMemberTest(t)

	for i := 0; i < 25; i++ {
		require.NoError(t, database.Create(&model.Member{Name: "会员", Status: model.MemberStatusActive}).Error)
	}

	got, pagination, err := svc.ListMembers(repository.ListMembersParams{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, int64(25), pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 2, pagination.Page)
}

func TestGetMember_WithOrders(t *testing.T) {
	svc, database := setupMemberTest(t)

	member := &model.Member{Name: "张三", Status: model.MemberStatusActive}
	require.NoError(t, database.Create(member).Error)
	orders := []model.Order{
		{MemberID: member.ID, OrderNo: strPtr("A1"), Amount: 100, Status: model.OrderStatusCompleted},
		{MemberID: member.ID, OrderNo: strPtr("A2"), Amount: 200, Status: model.OrderStatusCompleted},
	}
	require.NoError(t, database.Create(&orders).Error)

	got, err := svc.GetMember(member.ID, "desc")
	require.NoError(t, err)
	assert.Len(t, got.Orders, 2)
}

func TestGetMember_NotFound(t *testing.T) {
	svc, _ := setupMemberTest(t)

	_, err := svc.GetMember(999, "desc")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestUpdateMember(t *testing.T) {
	svc, _ := setupMemberTest(t)

	member, err := svc.CreateMember(CreateMemberInput{Name: "张三"})
	require.NoError(t, err)

	newPhone := "13912345678"
	status := model.MemberStatusInactive
	got, err := svc.UpdateMember(member.ID, UpdateMemberInput{
		Phone:  &newPhone,
		Status: &status,
	})
	require.NoError(t, err)
	require.NotNil(t, got.Phone)
	assert.Equal(t, newPhone, *got.Phone)
	assert.Equal(t, model.MemberStatusInactive, got.Status)
	assert.Equal(t, "张三", got.Name, "untouched fields keep their values")
}

func TestDeleteMember(t *testing.T) {
	svc, database := setupMemberTest(t)

	member, err := svc.CreateMember(CreateMemberInput{Name: "张三"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMember(member.ID))

	var count int64
	require.NoError(t, database.Model(&model.Member{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	assert.ErrorIs(t, svc.DeleteMember(member.ID), ErrMemberNotFound)
}
