package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/telemetry"
	"github.com/Clean-PRO/backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNoCleanerAvailable  = utils.NewValidationError("no cleaner is available for the selected date and time")
	ErrOrderAlreadyCreated = utils.NewValidationError("order already created")
	ErrOrderNotFound       = errors.New("order not found")
	ErrForbiddenUpdate     = errors.New("you are not allowed to change this order")
)

// Picker chooses an index in [0, n).
type Picker interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// CustomerInfo is the contact data sent with a booking.
type CustomerInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type ServiceLine struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

type CreateOrderInput struct {
	User            CustomerInfo   `json:"user"`
	Address         models.Address `json:"address"`
	Services        []ServiceLine  `json:"services"`
	CleaningTypeID  *uint          `json:"cleaning_type"`
	RoomsNumber     uint           `json:"rooms_number"`
	BathroomsNumber uint           `json:"bathrooms_number"`
	Comment         string         `json:"comment"`
	TotalSum        uint           `json:"total_sum"`
	TotalTime       uint           `json:"total_time"`
	CleaningDate    string         `json:"cleaning_date"`
	CleaningTime    string         `json:"cleaning_time"`
}

type OrderService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Picker       Picker
	Events       EventPublisher
}

func NewOrderService(db *gorm.DB, availability *AvailabilityService, events EventPublisher) *OrderService {
	return &OrderService{
		DB:           db,
		Availability: availability,
		Picker:       globalRand{},
		Events:       events,
	}
}

// Validate checks everything that can be checked before the transaction.
func (s *OrderService) Validate(ctx context.Context, in *CreateOrderInput) error {
	var userFields []string
	if !utils.ValidUsername(strings.TrimSpace(in.User.Username)) {
		userFields = append(userFields, "username")
	}
	if !utils.ValidEmail(utils.NormalizeEmail(in.User.Email)) {
		userFields = append(userFields, "email")
	}
	if !utils.ValidPhone(in.User.Phone) {
		userFields = append(userFields, "phone")
	}
	if len(userFields) > 0 {
		return utils.NewValidationError("missing or invalid user data", userFields...)
	}

	if len(in.Services) == 0 {
		return utils.NewValidationError("at least one service is required", "services")
	}
	ids := make([]uint, 0, len(in.Services))
	var badIDs []string
	for _, line := range in.Services {
		ids = append(ids, line.ID)
		if line.Amount <= 0 {
			badIDs = append(badIDs, strconv.FormatUint(uint64(line.ID), 10))
		}
	}
	var known []uint
	if err := s.DB.WithContext(ctx).Model(&models.Service{}).Where("id IN ?", ids).Pluck("id", &known).Error; err != nil {
		return fmt.Errorf("lookup services: %w", err)
	}
	exists := make(map[uint]bool, len(known))
	for _, id := range known {
		exists[id] = true
	}
	for _, line := range in.Services {
		if !exists[line.ID] {
			badIDs = append(badIDs, strconv.FormatUint(uint64(line.ID), 10))
		}
	}
	if len(badIDs) > 0 {
		return utils.NewValidationError("unknown service or invalid amount", badIDs...)
	}

	var fields []string
	if in.TotalSum < models.OrderTotalSumMinVal {
		fields = append(fields, "total_sum")
	}
	if in.TotalTime < models.OrderTotalTimeMin || in.TotalTime > models.OrderTotalTimeMax {
		fields = append(fields, "total_time")
	}
	if len([]rune(in.Comment)) > models.OrderCommentMaxLen {
		fields = append(fields, "comment")
	}
	if _, err := time.Parse(models.DateFormat, in.CleaningDate); err != nil {
		fields = append(fields, "cleaning_date")
	}
	if start, err := time.Parse(models.TimeFormat, in.CleaningTime); err != nil {
		fields = append(fields, "cleaning_time")
	} else {
		in.CleaningTime = start.Format(models.TimeFormat)
	}
	fields = append(fields, ValidateAddress(&in.Address)...)
	if in.CleaningTypeID != nil {
		var count int64
		err := s.DB.WithContext(ctx).Model(&models.CleaningType{}).Where("id = ?", *in.CleaningTypeID).Count(&count).Error
		if err != nil {
			return fmt.Errorf("lookup cleaning type: %w", err)
		}
		if count == 0 {
			fields = append(fields, "cleaning_type")
		}
	}
	if len(fields) > 0 {
		return utils.NewValidationError("invalid order data", fields...)
	}
	return nil
}

// ValidateAddress returns the names of address fields outside their limits.
func ValidateAddress(a *models.Address) []string {
	var fields []string
	a.City = strings.TrimSpace(a.City)
	a.Street = strings.TrimSpace(a.Street)
	if a.City == "" || len([]rune(a.City)) > models.AddressCityMaxLen {
		fields = append(fields, "address.city")
	}
	if a.Street == "" || len([]rune(a.Street)) > models.AddressStreetMaxLen {
		fields = append(fields, "address.street")
	}
	if a.House == 0 || a.House > models.AddressHouseMaxVal {
		fields = append(fields, "address.house")
	}
	if a.Entrance != nil && *a.Entrance > models.AddressEntranceMaxVal {
		fields = append(fields, "address.entrance")
	}
	if a.Floor != nil && *a.Floor > models.AddressFloorMaxVal {
		fields = append(fields, "address.floor")
	}
	if a.Apartment != nil && *a.Apartment > models.AddressApartmentMaxVal {
		fields = append(fields, "address.apartment")
	}
	return fields
}

// CreateOrder books a cleaner for userID. It returns ErrNoCleanerAvailable,
// ErrOrderAlreadyCreated or a *utils.ValidationError for client mistakes.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := s.Validate(ctx, &in); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		free, err := s.Availability.availableCleaners(tx, in.CleaningDate, in.CleaningTime, in.TotalTime, true)
		if err != nil {
			return err
		}
		if len(free) == 0 {
			return ErrNoCleanerAvailable
		}
		cleanerID := free[s.Picker.Intn(len(free))]

		address, err := GetOrCreateAddress(tx, in.Address)
		if err != nil {
			return err
		}

		if err := backfillUser(tx, userID, in.User, address.ID); err != nil {
			return err
		}

		key := map[string]interface{}{
			"user_id":          userID,
			"total_sum":        in.TotalSum,
			"total_time":       in.TotalTime,
			"comment":          in.Comment,
			"cleaning_type_id": models.Nullable(in.CleaningTypeID),
			"rooms_number":     in.RoomsNumber,
			"bathrooms_number": in.BathroomsNumber,
			"address_id":       address.ID,
			"cleaning_date":    in.CleaningDate,
			"cleaning_time":    in.CleaningTime,
		}
		err = tx.Where(key).First(&order).Error
		if err == nil {
			return ErrOrderAlreadyCreated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup order: %w", err)
		}

		order = models.Order{
			UserID:          userID,
			AddressID:       address.ID,
			CleaningTypeID:  in.CleaningTypeID,
			TotalSum:        in.TotalSum,
			TotalTime:       in.TotalTime,
			Comment:         in.Comment,
			OrderStatus:     models.OrderStatusCreated,
			RoomsNumber:     in.RoomsNumber,
			BathroomsNumber: in.BathroomsNumber,
			CleaningDate:    in.CleaningDate,
			CleaningTime:    in.CleaningTime,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.Model(&order).Update("cleaner_id", cleanerID).Error; err != nil {
			return fmt.Errorf("assign cleaner: %w", err)
		}
		order.CleanerID = &cleanerID

		lines := make([]models.ServicesInOrder, 0, len(in.Services))
		for _, line := range in.Services {
			lines = append(lines, models.ServicesInOrder{
				OrderID:   order.ID,
				ServiceID: line.ID,
				Amount:    uint(line.Amount),
			})
		}
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return fmt.Errorf("create order services: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	utils.InfoLogger.Printf("Order %d created for user %d, cleaner %d", order.ID, userID, *order.CleanerID)
	publishAsync(s.Events, NewOrderEvent(EventOrderCreated, &order))
	return &order, nil
}

// GetOrCreateAddress returns the row matching every field of a, creating it if needed.
func GetOrCreateAddress(tx *gorm.DB, a models.Address) (*models.Address, error) {
	fresh := models.Address{
		City:      strings.TrimSpace(a.City),
		Street:    strings.TrimSpace(a.Street),
		House:     a.House,
		Entrance:  a.Entrance,
		Floor:     a.Floor,
		Apartment: a.Apartment,
	}

	var found models.Address
	err := tx.Where(fresh.Key()).First(&found).Error
	if err == nil {
		return &found, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup address: %w", err)
	}
	if err := tx.Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return &fresh, nil
}

// backfillUser fills empty profile fields from the booking contact data.
func backfillUser(tx *gorm.DB, userID uint, info CustomerInfo, addressID uint) error {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	updates := map[string]interface{}{}
	if user.Phone == nil || *user.Phone == "" {
		updates["phone"] = utils.NormalizePhone(info.Phone)
	}
	if user.Username == nil || *user.Username == "" {
		updates["username"] = strings.TrimSpace(info.Username)
	}
	if user.AddressID == nil {
		updates["address_id"] = addressID
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("update user %d: %w", userID, err)
	}
	return nil
}

// UpdateOrderInput holds the optional fields of PUT /api/orders/:id.
type UpdateOrderInput struct {
	OrderStatus   *string `json:"order_status"`
	Comment       *string `json:"comment"`
	CommentCancel *string `json:"comment_cancel"`
	CleaningDate  *string `json:"cleaning_date"`
	CleaningTime  *string `json:"cleaning_time"`
	PayStatus     *bool   `json:"pay_status"`
}

func (in UpdateOrderInput) Empty() bool {
	return in.OrderStatus == nil && in.Comment == nil && in.CommentCancel == nil &&
		in.CleaningDate == nil && in.CleaningTime == nil && in.PayStatus == nil
}

// UpdateOrder applies in to the order on behalf of actor. Owners may only
// cancel, comment or reschedule; staff may change any status.
func (s *OrderService) UpdateOrder(ctx context.Context, actor *models.User, orderID uint, in UpdateOrderInput) (*models.Order, error) {
	if in.Empty() {
		return nil, utils.NewValidationError("no fields to update")
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	staff := actor.IsStaff()
	if !staff && order.UserID != actor.ID {
		return nil, ErrOrderNotFound
	}

	updates := map[string]interface{}{}
	if in.OrderStatus != nil {
		if !models.ValidOrderStatus(*in.OrderStatus) {
			return nil, utils.NewValidationError("invalid order status", "order_status")
		}
		if !staff && *in.OrderStatus != models.OrderStatusCancelled {
			return nil, ErrForbiddenUpdate
		}
		updates["order_status"] = *in.OrderStatus
	}
	if in.PayStatus != nil {
		if !staff {
			return nil, ErrForbiddenUpdate
		}
		updates["pay_status"] = *in.PayStatus
	}
	if in.Comment != nil {
		if len([]rune(*in.Comment)) > models.OrderCommentMaxLen {
			return nil, utils.NewValidationError("comment is too long", "comment")
		}
		updates["comment"] = *in.Comment
	}
	if in.CleaningDate != nil {
		if _, err := time.Parse(models.DateFormat, *in.CleaningDate); err != nil {
			return nil, utils.NewValidationError("invalid cleaning date", "cleaning_date")
		}
		updates["cleaning_date"] = *in.CleaningDate
	}
	if in.CleaningTime != nil {
		start, err := time.Parse(models.TimeFormat, *in.CleaningTime)
		if err != nil {
			return nil, utils.NewValidationError("invalid cleaning time", "cleaning_time")
		}
		updates["cleaning_time"] = start.Format(models.TimeFormat)
	}
	if in.CommentCancel != nil {
		if len([]rune(*in.CommentCancel)) > models.OrderCommentMaxLen {
			return nil, utils.NewValidationError("cancel comment is too long", "comment_cancel")
		}
		updates["comment_cancel"] = *in.CommentCancel
		updates["order_status"] = models.OrderStatusCancelled
	}

	if status, ok := updates["order_status"]; ok {
		if status == models.OrderStatusCancelled {
			if order.CancelledAt == nil {
				updates["cancelled_at"] = time.Now()
			}
		} else if staff {
			updates["comment_cancel"] = nil
			updates["cancelled_at"] = nil
		}
	}

	if err := s.DB.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update order %d: %w", orderID, err)
	}
	var updated models.Order
	if err := s.DB.WithContext(ctx).Preload(clause.Associations).First(&updated, orderID).Error; err != nil {
		return nil, err
	}

	if _, changed := updates["order_status"]; changed {
		publishAsync(s.Events, NewOrderEvent(EventOrderStatusChanged, &updated))
	}
	return &updated, nil
}
