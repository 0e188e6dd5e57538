package services

import (
	"context"
	"testing"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixedPicker int

func (p fixedPicker) Intn(n int) int { return int(p) % n }

func newOrderService(db *gorm.DB, pick int) *OrderService {
	svc := NewOrderService(db, NewAvailabilityService(db), NopPublisher{})
	svc.Picker = fixedPicker(pick)
	return svc
}

func bookingInput(serviceID uint) CreateOrderInput {
	return CreateOrderInput{
		User: CustomerInfo{
			Username: "Anna",
			Email:    "anna@clean.pro",
			Phone:    "+79161234567",
		},
		Address: models.Address{
			City:      "Moscow",
			Street:    "Arbat",
			House:     12,
			Apartment: uintPtr(7),
		},
		Services:     []ServiceLine{{ID: serviceID, Amount: 2}},
		RoomsNumber:  2,
		TotalSum:     4500,
		TotalTime:    120,
		CleaningDate: "2030-05-01",
		CleaningTime: "10:00",
	}
}

func TestCreateOrderAssignsPickedCleaner(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	second := seedCleaner(t, db, "second@clean.pro", nil, nil)
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")

	order, err := newOrderService(db, 1).CreateOrder(context.Background(), client.ID, bookingInput(service.ID))
	require.NoError(t, err)
	require.NotNil(t, order.CleanerID)
	assert.Equal(t, second.ID, *order.CleanerID)

	var stored models.Order
	require.NoError(t, db.Preload("Services").Preload("Address").First(&stored, order.ID).Error)
	assert.Equal(t, second.ID, *stored.CleanerID)
	assert.Equal(t, models.OrderStatusCreated, stored.OrderStatus)
	assert.Equal(t, "Arbat", stored.Address.Street)
	require.Len(t, stored.Services, 1)
	assert.Equal(t, service.ID, stored.Services[0].ServiceID)
	assert.Equal(t, uint(2), stored.Services[0].Amount)

	var user models.User
	require.NoError(t, db.First(&user, client.ID).Error)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "+79161234567", *user.Phone)
	require.NotNil(t, user.Username)
	assert.Equal(t, "Anna", *user.Username)
	require.NotNil(t, user.AddressID)
	assert.Equal(t, stored.AddressID, *user.AddressID)
}

func TestCreateOrderKeepsExistingProfile(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	client := models.User{Email: "anna@clean.pro", Password: "x", Username: strPtr("Anya"), Phone: strPtr("+79990000000")}
	require.NoError(t, db.Create(&client).Error)
	service := seedService(t, db, "Windows")

	_, err := newOrderService(db, 0).CreateOrder(context.Background(), client.ID, bookingInput(service.ID))
	require.NoError(t, err)

	var user models.User
	require.NoError(t, db.First(&user, client.ID).Error)
	assert.Equal(t, "Anya", *user.Username)
	assert.Equal(t, "+79990000000", *user.Phone)
}

func TestCreateOrderDuplicate(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	seedCleaner(t, db, "second@clean.pro", nil, nil)
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	svc := newOrderService(db, 0)

	_, err := svc.CreateOrder(context.Background(), client.ID, bookingInput(service.ID))
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), client.ID, bookingInput(service.ID))
	assert.ErrorIs(t, err, ErrOrderAlreadyCreated)

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&models.ServicesInOrder{}).Count(&count)
	assert.Equal(t, int64(1), count, "rolled back transaction must not leave line items")
}

func TestCreateOrderNoCleanerAvailable(t *testing.T) {
	db := setupTestDB(t)
	cleaner := seedCleaner(t, db, "solo@clean.pro", nil, nil)
	other := seedCustomer(t, db, "other@clean.pro")
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	seedBooking(t, db, other.ID, cleaner.ID, "2030-05-01", "11:00", 60)

	_, err := newOrderService(db, 0).CreateOrder(context.Background(), client.ID, bookingInput(service.ID))
	assert.ErrorIs(t, err, ErrNoCleanerAvailable)

	ve, ok := utils.AsValidationError(err)
	require.True(t, ok)
	assert.NotEmpty(t, ve.Message)
}

func TestCreateOrderVacationAndBusyLeaveNoCleaner(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "away@clean.pro", strPtr("2030-04-28"), strPtr("2030-05-03"))
	busy := seedCleaner(t, db, "busy@clean.pro", nil, nil)
	other := seedCustomer(t, db, "other@clean.pro")
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	seedBooking(t, db, other.ID, busy.ID, "2030-05-01", "11:00", 60)

	free, err := NewAvailabilityService(db).AvailableCleaners("2030-05-01", "10:00", 120)
	require.NoError(t, err)
	assert.Empty(t, free)

	_, err = newOrderService(db, 0).CreateOrder(context.Background(), client.ID, bookingInput(service.ID))
	assert.ErrorIs(t, err, ErrNoCleanerAvailable)

	var count int64
	db.Model(&models.Order{}).Where("user_id = ?", client.ID).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrderDayLongBookingBlocksCleaner(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "solo@clean.pro", nil, nil)
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	svc := newOrderService(db, 0)

	huge := bookingInput(service.ID)
	huge.TotalTime = 200000000
	_, err := svc.CreateOrder(context.Background(), client.ID, huge)
	ve, ok := utils.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, []string{"total_time"}, ve.Fields)

	allDay := bookingInput(service.ID)
	allDay.TotalTime = models.OrderTotalTimeMax
	_, err = svc.CreateOrder(context.Background(), client.ID, allDay)
	require.NoError(t, err)

	noon := bookingInput(service.ID)
	noon.CleaningTime = "12:00"
	noon.TotalTime = 60
	_, err = svc.CreateOrder(context.Background(), client.ID, noon)
	assert.ErrorIs(t, err, ErrNoCleanerAvailable)
}

func TestCreateOrderNormalizesCleaningTime(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	seedCleaner(t, db, "second@clean.pro", nil, nil)
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	svc := newOrderService(db, 0)

	short := bookingInput(service.ID)
	short.CleaningTime = "9:00"
	order, err := svc.CreateOrder(context.Background(), client.ID, short)
	require.NoError(t, err)
	assert.Equal(t, "09:00", order.CleaningTime)

	padded := bookingInput(service.ID)
	padded.CleaningTime = "09:00"
	_, err = svc.CreateOrder(context.Background(), client.ID, padded)
	assert.ErrorIs(t, err, ErrOrderAlreadyCreated)
}

func TestCreateOrderReusesAddress(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	svc := newOrderService(db, 0)

	morning := bookingInput(service.ID)
	_, err := svc.CreateOrder(context.Background(), client.ID, morning)
	require.NoError(t, err)

	evening := bookingInput(service.ID)
	evening.CleaningTime = "15:00"
	evening.Address.City = "  Moscow "
	_, err = svc.CreateOrder(context.Background(), client.ID, evening)
	require.NoError(t, err)

	var count int64
	db.Model(&models.Address{}).Count(&count)
	assert.Equal(t, int64(1), count)

	other := bookingInput(service.ID)
	other.CleaningDate = "2030-05-02"
	other.Address.Apartment = nil
	_, err = svc.CreateOrder(context.Background(), client.ID, other)
	require.NoError(t, err)
	db.Model(&models.Address{}).Count(&count)
	assert.Equal(t, int64(2), count, "an address without apartment is a different address")
}

func TestCreateOrderSharesAddressAcrossCustomers(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	anna := seedCustomer(t, db, "anna@clean.pro")
	boris := seedCustomer(t, db, "boris@clean.pro")
	service := seedService(t, db, "Windows")
	svc := newOrderService(db, 0)

	first, err := svc.CreateOrder(context.Background(), anna.ID, bookingInput(service.ID))
	require.NoError(t, err)

	neighbour := bookingInput(service.ID)
	neighbour.User = CustomerInfo{Username: "Boris", Email: "boris@clean.pro", Phone: "+79161234568"}
	neighbour.CleaningTime = "15:00"
	second, err := svc.CreateOrder(context.Background(), boris.ID, neighbour)
	require.NoError(t, err)

	var count int64
	db.Model(&models.Address{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, first.AddressID, second.AddressID)

	var user models.User
	require.NoError(t, db.First(&user, boris.ID).Error)
	require.NotNil(t, user.AddressID)
	assert.Equal(t, first.AddressID, *user.AddressID)
}

func TestCreateOrderValidation(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	svc := newOrderService(db, 0)

	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
		fields []string
	}{
		{
			name:   "bad user data",
			mutate: func(in *CreateOrderInput) { in.User.Email = "nope"; in.User.Phone = "12" },
			fields: []string{"email", "phone"},
		},
		{
			name:   "unknown service",
			mutate: func(in *CreateOrderInput) { in.Services = append(in.Services, ServiceLine{ID: 999, Amount: 1}) },
			fields: []string{"999"},
		},
		{
			name:   "zero amount",
			mutate: func(in *CreateOrderInput) { in.Services[0].Amount = 0 },
			fields: []string{"1"},
		},
		{
			name: "totals and address",
			mutate: func(in *CreateOrderInput) {
				in.TotalSum = 0
				in.TotalTime = 0
				in.Address.House = 1000
			},
			fields: []string{"total_sum", "total_time", "address.house"},
		},
		{
			name:   "total time beyond a day",
			mutate: func(in *CreateOrderInput) { in.TotalTime = models.OrderTotalTimeMax + 1 },
			fields: []string{"total_time"},
		},
		{
			name:   "bad date",
			mutate: func(in *CreateOrderInput) { in.CleaningDate = "01.05.2030" },
			fields: []string{"cleaning_date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := bookingInput(service.ID)
			tt.mutate(&in)
			_, err := svc.CreateOrder(context.Background(), client.ID, in)
			ve, ok := utils.AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.fields, ve.Fields)
		})
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateOrderCleaningTypeLookupFailure(t *testing.T) {
	db := setupTestDB(t)
	seedCleaner(t, db, "first@clean.pro", nil, nil)
	client := seedCustomer(t, db, "anna@clean.pro")
	service := seedService(t, db, "Windows")
	require.NoError(t, db.Migrator().DropTable(&models.CleaningType{}))

	in := bookingInput(service.ID)
	in.CleaningTypeID = uintPtr(1)
	_, err := newOrderService(db, 0).CreateOrder(context.Background(), client.ID, in)
	require.Error(t, err)
	_, isValidation := utils.AsValidationError(err)
	assert.False(t, isValidation, "a database failure is not a client mistake")
	assert.Contains(t, err.Error(), "lookup cleaning type")
}

func TestUpdateOrderRules(t *testing.T) {
	db := setupTestDB(t)
	cleaner := seedCleaner(t, db, "solo@clean.pro", nil, nil)
	owner := seedCustomer(t, db, "owner@clean.pro")
	stranger := seedCustomer(t, db, "stranger@clean.pro")
	admin := models.User{Email: "admin@clean.pro", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&admin).Error)
	order := seedBooking(t, db, owner.ID, cleaner.ID, "2030-05-01", "10:00", 60)
	svc := newOrderService(db, 0)
	ctx := context.Background()

	_, err := svc.UpdateOrder(ctx, &owner, order.ID, UpdateOrderInput{})
	_, ok := utils.AsValidationError(err)
	assert.True(t, ok, "empty body is a validation error")

	_, err = svc.UpdateOrder(ctx, &stranger, order.ID, UpdateOrderInput{Comment: strPtr("hi")})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.UpdateOrder(ctx, &owner, order.ID, UpdateOrderInput{OrderStatus: strPtr(models.OrderStatusFinished)})
	assert.ErrorIs(t, err, ErrForbiddenUpdate)

	paid := true
	_, err = svc.UpdateOrder(ctx, &owner, order.ID, UpdateOrderInput{PayStatus: &paid})
	assert.ErrorIs(t, err, ErrForbiddenUpdate)

	updated, err := svc.UpdateOrder(ctx, &owner, order.ID, UpdateOrderInput{CommentCancel: strPtr("plans changed")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.OrderStatus)
	assert.NotNil(t, updated.CancelledAt)
	require.NotNil(t, updated.CommentCancel)
	assert.Equal(t, "plans changed", *updated.CommentCancel)

	updated, err = svc.UpdateOrder(ctx, &admin, order.ID, UpdateOrderInput{OrderStatus: strPtr(models.OrderStatusAccepted)})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, updated.OrderStatus)
	assert.Nil(t, updated.CancelledAt)
	assert.Nil(t, updated.CommentCancel)

	_, err = svc.UpdateOrder(ctx, &admin, order.ID, UpdateOrderInput{OrderStatus: strPtr("lost")})
	_, ok = utils.AsValidationError(err)
	assert.True(t, ok)

	_, err = svc.UpdateOrder(ctx, &admin, 9999, UpdateOrderInput{Comment: strPtr("x")})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
