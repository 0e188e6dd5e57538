package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Clean-PRO/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCatalog(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)
	admin := tokenFor(t, seedUser(t, db, "admin@example.com", models.RoleAdmin))
	customer := tokenFor(t, seedUser(t, db, "customer@example.com", models.RoleCustomer))

	w := doRequest(r, http.MethodPost, "/api/measure", customer, map[string]string{"title": "m2"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodPost, "/api/measure", admin, map[string]string{"title": "m2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	measureID := decode(t, w)["data"].(map[string]interface{})["id"].(float64)

	w = doRequest(r, http.MethodPost, "/api/measure", admin, map[string]string{"title": "m2"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate measure")

	w = doRequest(r, http.MethodPost, "/api/services", admin, map[string]interface{}{
		"title": "Floor wash", "price": 300, "measure": measureID, "cleaning_time": 40,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mainID := decode(t, w)["data"].(map[string]interface{})["id"].(float64)

	w = doRequest(r, http.MethodPost, "/api/services", admin, map[string]interface{}{
		"title": "Oven", "price": 500, "measure": measureID, "cleaning_time": 30, "service_type": "additional",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(r, http.MethodPost, "/api/services", admin, map[string]interface{}{
		"title": "Bad", "price": 10, "measure": measureID, "cleaning_time": 30, "service_type": "extra",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/services", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["data"].([]interface{})
	require.Len(t, list, 1, "customers only see additional services")
	item := list[0].(map[string]interface{})
	assert.Equal(t, "Oven", item["title"])
	assert.Equal(t, "m2", item["measure"])

	w = doRequest(r, http.MethodGet, "/api/services", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)

	w = doRequest(r, http.MethodPost, "/api/cleaning-types", admin, map[string]interface{}{
		"title": "General", "coefficient": 2, "service": []float64{mainID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ct := decode(t, w)["data"].(map[string]interface{})
	assert.Len(t, ct["service"], 1)

	w = doRequest(r, http.MethodGet, "/api/cleaning-types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = doRequest(r, http.MethodDelete, fmt.Sprintf("/api/measure/%d", int(measureID)), admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "measure still in use")
}

func TestCreateCleaningType_UnknownService(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)
	admin := tokenFor(t, seedUser(t, db, "admin@example.com", models.RoleAdmin))

	w := doRequest(r, http.MethodPost, "/api/cleaning-types", admin, map[string]interface{}{
		"title": "Deep", "coefficient": 3, "service": []int{42},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.CleaningType{}).Count(&count)
	assert.Zero(t, count)
}
