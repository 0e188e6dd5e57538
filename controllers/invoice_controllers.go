package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InvoiceController struct {
	DB *gorm.DB
}

func NewInvoiceController(db *gorm.DB) *InvoiceController {
	return &InvoiceController{DB: db}
}

// GenerateInvoice renders the order as a PDF for its owner or staff.
func (ic *InvoiceController) GenerateInvoice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := ic.DB.Preload("User").
		Preload("Address").
		Preload("CleaningType").
		Preload("Services.Service").
		First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = services.ErrOrderNotFound
		}
		respondServiceError(c, err)
		return
	}
	if !user.IsStaff() && order.UserID != user.ID {
		respondServiceError(c, services.ErrOrderNotFound)
		return
	}

	var buf bytes.Buffer
	if err := services.RenderInvoice(&order, &buf); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%d.pdf"`, order.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
