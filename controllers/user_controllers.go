package controllers

import (
	"net/http"
	"strings"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// profile renders a user. Role flags are present only when set.
func profile(u *models.User) gin.H {
	out := gin.H{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"phone":    u.Phone,
		"address":  u.Address,
	}
	if u.IsStaff() {
		out["is_staff"] = true
	}
	if u.IsCleaner {
		out["is_cleaner"] = true
		out["on_vacation_from"] = u.OnVacationFrom
		out["on_vacation_to"] = u.OnVacationTo
	}
	return out
}

func (uc *UserController) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", profile(user))
}

// UpdateProfile changes the contact fields of the current user. The address
// is matched against existing rows before a new one is created.
func (uc *UserController) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Username *string         `json:"username"`
		Phone    *string         `json:"phone"`
		Address  *models.Address `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var fields []string
	updates := map[string]interface{}{}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if !utils.ValidUsername(name) {
			fields = append(fields, "username")
		}
		updates["username"] = name
	}
	if req.Phone != nil {
		if !utils.ValidPhone(*req.Phone) {
			fields = append(fields, "phone")
		}
		updates["phone"] = utils.NormalizePhone(*req.Phone)
	}
	if req.Address != nil {
		fields = append(fields, services.ValidateAddress(req.Address)...)
	}
	if len(fields) > 0 {
		utils.RespondValidation(c, utils.NewValidationError("invalid profile data", fields...))
		return
	}

	err := uc.DB.Transaction(func(tx *gorm.DB) error {
		if req.Address != nil {
			address, err := services.GetOrCreateAddress(tx, *req.Address)
			if err != nil {
				return err
			}
			updates["address_id"] = address.ID
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var updated models.User
	if err := uc.DB.Preload("Address").First(&updated, user.ID).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile updated", profile(&updated))
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.Preload("Address").Order("id").Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, profile(&users[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "All users", out)
}

// GetUserOrders lists one customer's orders, newest first.
func (uc *UserController) GetUserOrders(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var count int64
	query := uc.DB.Model(&models.Order{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := query.Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var orders []models.Order
	if err := query.Preload(clause.Associations).Preload("Services.Service").
		Order("id DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "User orders", utils.Page{
		Count:   count,
		Limit:   limit,
		Offset:  offset,
		Results: orders,
	})
}
