package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidLimit = errors.New("invalid limit value, limit must be an integer")

type RatingController struct {
	DB      *gorm.DB
	Reviews *services.ReviewService
}

func NewRatingController(db *gorm.DB, reviews *services.ReviewService) *RatingController {
	return &RatingController{DB: db, Reviews: reviews}
}

// GetRatings serves the cached ratings list. ?limit=N trims it.
func (rc *RatingController) GetRatings(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, ErrInvalidLimit)
			return
		}
		limit = n
	}

	ratings, err := rc.Reviews.List(c.Request.Context(), limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of ratings", ratings)
}

// UpdateRating lets staff moderate a rating.
func (rc *RatingController) UpdateRating(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Username *string `json:"username" binding:"omitempty,max=100"`
		Text     *string `json:"text"`
		Score    *uint   `json:"score"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]interface{}{}
	if body.Username != nil {
		updates["username"] = strings.TrimSpace(*body.Username)
	}
	if body.Text != nil {
		updates["text"] = strings.TrimSpace(*body.Text)
	}
	if body.Score != nil {
		if *body.Score < models.RatingScoreMin || *body.Score > models.RatingScoreMax {
			utils.RespondValidation(c, ErrInvalidRatingData)
			return
		}
		updates["score"] = *body.Score
	}
	if len(updates) == 0 {
		utils.RespondValidation(c, utils.NewValidationError("no fields to update"))
		return
	}

	var rating models.Rating
	if err := rc.DB.First(&rating, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrRatingNotFound)
		return
	}
	if err := rc.DB.Model(&rating).Omit(clause.Associations).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if err := rc.DB.First(&rating, id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	rc.Reviews.Invalidate(c.Request.Context())
	utils.RespondJSON(c, http.StatusOK, "Rating updated", rating)
}

func (rc *RatingController) DeleteRating(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := rc.DB.Delete(&models.Rating{}, id)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, ErrRatingNotFound)
		return
	}

	rc.Reviews.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// ImportReviews runs the maps review import on demand.
func (rc *RatingController) ImportReviews(c *gin.Context) {
	n, err := rc.Reviews.Import(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reviews imported", gin.H{"imported": n})
}
