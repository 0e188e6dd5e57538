package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Clean-PRO/backend/cache"
	"github.com/Clean-PRO/backend/dispatch"
	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/router"
	"github.com/Clean-PRO/backend/services"
	"github.com/Clean-PRO/backend/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const testPassword = "secret123"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// setupRouter builds the full API on the manual payment gateway.
func setupRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	r, _ := setupRouterWithHub(t, db)
	return r
}

func setupRouterWithHub(t *testing.T, db *gorm.DB) (*gin.Engine, *dispatch.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	hub := dispatch.NewHub()
	events := dispatch.Publisher{Hub: hub}
	orders := services.NewOrderService(db, services.NewAvailabilityService(db), events)
	payments := services.NewPaymentService(db, nil, events)

	r := router.SetupRouter(router.Deps{
		DB:       db,
		Orders:   orders,
		Payments: payments,
		Monitor:  services.NewPaymentMonitor(db),
		Reviews:  services.NewReviewService(db, cache.NewMemoryCache(), ""),
		Mail:     services.NewMailService(db, services.LogSender{}, "noreply@clean.pro"),
		Hub:      hub,
	})
	return r, hub
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := models.User{
		Email:     email,
		Password:  string(hashed),
		Role:      role,
		IsCleaner: role == models.RoleCleaner,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, status string) models.Order {
	t.Helper()
	m := models.Measure{Title: "m2"}
	if err := db.Where(m).FirstOrCreate(&m).Error; err != nil {
		t.Fatalf("seed measure: %v", err)
	}
	s := models.Service{Title: "Windows", Price: 250, MeasureID: m.ID, ServiceType: models.ServiceTypeMain, CleaningTime: 30}
	if err := db.Where("title = ?", s.Title).FirstOrCreate(&s).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	addr := models.Address{City: "Moscow", Street: "Tverskaya", House: 1}
	if err := db.Where(addr.Key()).FirstOrCreate(&addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}

	o := models.Order{
		UserID:       userID,
		AddressID:    addr.ID,
		TotalSum:     500,
		TotalTime:    60,
		OrderStatus:  status,
		CleaningDate: "2030-01-15",
		CleaningTime: "10:00",
	}
	if err := db.Omit(clause.Associations).Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	line := models.ServicesInOrder{OrderID: o.ID, ServiceID: s.ID, Amount: 2}
	if err := db.Omit(clause.Associations).Create(&line).Error; err != nil {
		t.Fatalf("seed order line: %v", err)
	}
	return o
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// doRequest sends body as JSON. An empty token sends no Authorization header.
func doRequest(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}
