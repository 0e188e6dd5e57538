package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Clean-PRO/backend/middlewares"
	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrEmailTaken         = utils.NewValidationError("user with this email already exists", "email")
	ErrWeakPassword       = utils.NewValidationError("password must be 8-50 characters with letters and digits", "password")
)

type AuthController struct {
	DB   *gorm.DB
	Mail *services.MailService
}

func NewAuthController(db *gorm.DB, mail *services.MailService) *AuthController {
	return &AuthController{DB: db, Mail: mail}
}

// Register creates a customer account and sends the welcome mail.
func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email,max=80"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidPassword(req.Password) {
		utils.RespondValidation(c, ErrWeakPassword)
		return
	}

	var count int64
	if err := ac.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondValidation(c, ErrEmailTaken)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.RespondValidation(c, ErrEmailTaken)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New user registered: %s", user.Email)
	if ac.Mail != nil {
		ac.Mail.NotifyAsync(&user.ID, user.Email, services.RegisterSubject, services.RegisterText(ac.Mail.From))
	}

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"id":    user.ID,
		"email": user.Email,
	})
}

// ConfirmEmail mails a one-time code and returns it for the client to compare.
func (ac *AuthController) ConfirmEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email,max=80"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	code, err := utils.GenerateCode()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if ac.Mail != nil {
		ac.Mail.NotifyAsync(nil, email, services.ConfirmSubject, services.ConfirmText(code))
	}

	utils.RespondJSON(c, http.StatusOK, "Confirmation code sent", gin.H{
		"confirm_code": code,
	})
}

// Login checks the credentials and returns a JWT.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := ac.DB.Where("email = ?", utils.NormalizeEmail(input.Email)).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidCredentials)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user %d", user.ID)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"auth_token": token,
	})
}

// Logout revokes the current token.
func (ac *AuthController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)
	if token == "" {
		utils.RespondError(c, http.StatusUnauthorized, ErrNotAuthenticated)
		return
	}
	exp, ok := c.Get(middlewares.ContextTokenExp)
	until, _ := exp.(time.Time)
	if !ok || until.IsZero() {
		until = time.Now().Add(24 * time.Hour)
	}
	utils.BlacklistToken(token, until)

	c.Status(http.StatusNoContent)
}
