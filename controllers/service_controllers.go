package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ServiceController manages measures, services and cleaning types.
type ServiceController struct {
	DB *gorm.DB
}

func NewServiceController(db *gorm.DB) *ServiceController {
	return &ServiceController{DB: db}
}

// serviceView replaces the measure id with its title.
type serviceView struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Price        uint   `json:"price"`
	Measure      string `json:"measure"`
	Image        string `json:"image"`
	ServiceType  string `json:"service_type,omitempty"`
	CleaningTime uint   `json:"cleaning_time"`
}

func newServiceView(s *models.Service, withType bool) serviceView {
	v := serviceView{
		ID:           s.ID,
		Title:        s.Title,
		Price:        s.Price,
		Measure:      s.Measure.Title,
		Image:        s.Image,
		CleaningTime: s.CleaningTime,
	}
	if withType {
		v.ServiceType = s.ServiceType
	}
	return v
}

type cleaningTypeView struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Coefficient uint          `json:"coefficient"`
	Service     []serviceView `json:"service"`
}

func newCleaningTypeView(ct *models.CleaningType) cleaningTypeView {
	v := cleaningTypeView{
		ID:          ct.ID,
		Title:       ct.Title,
		Coefficient: ct.Coefficient,
		Service:     make([]serviceView, 0, len(ct.Services)),
	}
	for i := range ct.Services {
		v.Service = append(v.Service, newServiceView(&ct.Services[i], false))
	}
	return v
}

// ---- measures ----

func (sc *ServiceController) GetMeasures(c *gin.Context) {
	var measures []models.Measure
	if err := sc.DB.Order("id").Find(&measures).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of measures", measures)
}

type measureRequest struct {
	Title string `json:"title" binding:"required,max=25"`
}

func (sc *ServiceController) CreateMeasure(c *gin.Context) {
	var body measureRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	measure := models.Measure{Title: strings.TrimSpace(body.Title)}
	if err := sc.DB.Create(&measure).Error; err != nil {
		respondWriteError(c, err, "title")
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Measure created", measure)
}

func (sc *ServiceController) UpdateMeasure(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body measureRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var measure models.Measure
	if err := sc.DB.First(&measure, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	measure.Title = strings.TrimSpace(body.Title)
	if err := sc.DB.Save(&measure).Error; err != nil {
		respondWriteError(c, err, "title")
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Measure updated", measure)
}

func (sc *ServiceController) DeleteMeasure(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var used int64
	if err := sc.DB.Model(&models.Service{}).Where("measure_id = ?", id).Count(&used).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if used > 0 {
		utils.RespondValidation(c, utils.NewValidationError("measure is used by services", "id"))
		return
	}

	res := sc.DB.Delete(&models.Measure{}, id)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondServiceError(c, gorm.ErrRecordNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- services ----

// GetServices lists the catalog. Customers only see additional services.
func (sc *ServiceController) GetServices(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := sc.DB.Preload("Measure").Order("id")
	staff := user.IsStaff()
	if !staff {
		query = query.Where("service_type = ?", models.ServiceTypeAdditional)
	} else if t := c.Query("service_type"); t != "" {
		query = query.Where("service_type = ?", t)
	}

	var list []models.Service
	if err := query.Find(&list).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]serviceView, 0, len(list))
	for i := range list {
		out = append(out, newServiceView(&list[i], staff))
	}
	utils.RespondJSON(c, http.StatusOK, "List of services", out)
}

type serviceRequest struct {
	Title        string `json:"title" binding:"required"`
	Price        uint   `json:"price" binding:"required"`
	Measure      uint   `json:"measure" binding:"required"`
	Image        string `json:"image" binding:"omitempty,max=255"`
	ServiceType  string `json:"service_type"`
	CleaningTime uint   `json:"cleaning_time" binding:"required"`
}

func (r *serviceRequest) validate() *utils.ValidationError {
	r.Title = strings.TrimSpace(r.Title)
	if r.ServiceType == "" {
		r.ServiceType = models.ServiceTypeMain
	}

	var fields []string
	if r.Title == "" || len([]rune(r.Title)) > models.ServiceTitleMaxLen {
		fields = append(fields, "title")
	}
	if r.Price < models.ServicePriceMinVal {
		fields = append(fields, "price")
	}
	if r.ServiceType != models.ServiceTypeMain && r.ServiceType != models.ServiceTypeAdditional {
		fields = append(fields, "service_type")
	}
	if r.CleaningTime < models.CleaningTimeMinuteMin {
		fields = append(fields, "cleaning_time")
	}
	if len(fields) > 0 {
		return utils.NewValidationError("invalid service", fields...)
	}
	return nil
}

func (sc *ServiceController) saveService(c *gin.Context, service *models.Service, code int) {
	var body serviceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if ve := body.validate(); ve != nil {
		utils.RespondValidation(c, ve)
		return
	}

	var measure models.Measure
	if err := sc.DB.First(&measure, body.Measure).Error; err != nil {
		utils.RespondValidation(c, utils.NewValidationError("unknown measure", "measure"))
		return
	}

	service.Title = body.Title
	service.Price = body.Price
	service.MeasureID = measure.ID
	service.Measure = measure
	service.Image = body.Image
	service.ServiceType = body.ServiceType
	service.CleaningTime = body.CleaningTime
	if err := sc.DB.Omit("Measure").Save(service).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, code, "Service saved", newServiceView(service, true))
}

func (sc *ServiceController) CreateService(c *gin.Context) {
	sc.saveService(c, &models.Service{}, http.StatusCreated)
}

func (sc *ServiceController) UpdateService(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var service models.Service
	if err := sc.DB.First(&service, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	sc.saveService(c, &service, http.StatusOK)
}

// ---- cleaning types ----

func (sc *ServiceController) GetCleaningTypes(c *gin.Context) {
	var types []models.CleaningType
	if err := sc.DB.Preload("Services.Measure").Order("id").Find(&types).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]cleaningTypeView, 0, len(types))
	for i := range types {
		out = append(out, newCleaningTypeView(&types[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of cleaning types", out)
}

func (sc *ServiceController) GetCleaningType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var ct models.CleaningType
	if err := sc.DB.Preload("Services.Measure").First(&ct, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cleaning type detail", newCleaningTypeView(&ct))
}

type cleaningTypeRequest struct {
	Title       string `json:"title" binding:"required,max=25"`
	Coefficient uint   `json:"coefficient" binding:"required"`
	Service     []uint `json:"service"`
}

// saveCleaningType writes ct and, when ids are given, replaces its service set.
func (sc *ServiceController) saveCleaningType(c *gin.Context, ct *models.CleaningType, code int) {
	var body cleaningTypeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Coefficient < models.CleaningTypeCoefMinVal {
		utils.RespondValidation(c, utils.NewValidationError("invalid cleaning type", "coefficient"))
		return
	}

	var list []models.Service
	if len(body.Service) > 0 {
		if err := sc.DB.Where("id IN ?", body.Service).Find(&list).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		if len(list) != len(uniqueIDs(body.Service)) {
			utils.RespondValidation(c, utils.NewValidationError("unknown service", "service"))
			return
		}
	}

	ct.Title = strings.TrimSpace(body.Title)
	ct.Coefficient = body.Coefficient
	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Services").Save(ct).Error; err != nil {
			return err
		}
		if len(list) > 0 {
			return tx.Model(ct).Association("Services").Replace(list)
		}
		return nil
	})
	if err != nil {
		respondWriteError(c, err, "title")
		return
	}

	if err := sc.DB.Preload("Services.Measure").First(ct, ct.ID).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, code, "Cleaning type saved", newCleaningTypeView(ct))
}

func (sc *ServiceController) CreateCleaningType(c *gin.Context) {
	sc.saveCleaningType(c, &models.CleaningType{}, http.StatusCreated)
}

func (sc *ServiceController) UpdateCleaningType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var ct models.CleaningType
	if err := sc.DB.First(&ct, id).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	sc.saveCleaningType(c, &ct, http.StatusOK)
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// respondWriteError turns a duplicate key into a 400 on field.
func respondWriteError(c *gin.Context, err error, field string) {
	if utils.IsUniqueViolation(err) {
		utils.RespondValidation(c, utils.NewValidationError("already exists", field))
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondServiceError(c, err)
		return
	}
	utils.RespondError(c, http.StatusInternalServerError, err)
}
