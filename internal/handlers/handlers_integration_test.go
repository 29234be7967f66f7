package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gostore/internal/cache"
	"gostore/internal/handlers"
	"gostore/internal/middleware"
	"gostore/internal/models"
	"gostore/internal/repositories"
	"gostore/internal/services"
	"gostore/pkg/storage"
)

type testEnv struct {
	app      *fiber.App
	users    *repositories.GORMUserRepository
	products *repositories.GORMProductRepository
	sessions *cache.MemoryStore
	images   *storage.MemoryStore
	auth     *services.AuthService
}

var dbCounter int64

// setupEnv builds a Fiber app on in-memory SQLite with in-memory session and
// image stores, wired exactly like main. Each call gets its own named
// in-memory database so tests stay isolated while GORM's pooled connections
// still see the same data.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	sessions := cache.NewMemoryStore()
	images := storage.NewMemoryStore()

	authService := services.NewAuthService(userRepo, sessions, "test_jwt_secret", time.Hour)
	productService := services.NewProductService(productRepo, images, nil)
	cartService := services.NewCartService(userRepo, productRepo, images)

	requireAuth := middleware.RequiresAuth(authService)
	requireAdmin := middleware.RequiresAdmin()

	app := fiber.New()
	handlers.NewAuthHandler(authService).RegisterRoutes(app, requireAuth)
	handlers.NewProductHandler(productService).RegisterRoutes(app, requireAuth, requireAdmin)
	handlers.NewCartHandler(cartService).RegisterRoutes(app, requireAuth)

	return &testEnv{
		app:      app,
		users:    userRepo,
		products: productRepo,
		sessions: sessions,
		images:   images,
		auth:     authService,
	}
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func productForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	assert.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// createAdmin seeds an administrative user directly in the store and logs it
// in, returning its token.
func (env *testEnv) createAdmin(t *testing.T) (string, *models.User) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	admin := &models.User{
		Email:       "admin@example.com",
		Username:    "adminuser",
		Password:    string(hashed),
		AccessLevel: 2,
	}
	assert.NoError(t, env.users.Create(admin))

	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-password",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token := resp.Header.Get("Authorization")
	assert.NotEmpty(t, token)
	resp.Body.Close()
	return token, admin
}

// registerAndLogin registers a regular user through the API and logs it in.
func (env *testEnv) registerAndLogin(t *testing.T, email, username, password string) (string, string) {
	t.Helper()
	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp map[string]interface{}
	decodeBody(t, resp, &registerResp)
	userID := registerResp["id"].(string)

	resp, err = env.app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token := resp.Header.Get("Authorization")
	assert.NotEmpty(t, token)
	resp.Body.Close()
	return token, userID
}

func (env *testEnv) createProduct(t *testing.T, adminToken string, stock int) *models.Product {
	t.Helper()
	body, contentType := productForm(t, map[string]string{
		"name":        "integration product",
		"description": "a product created in tests",
		"price":       "12.50",
		"stock":       fmt.Sprintf("%d", stock),
	})
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", adminToken)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var product models.Product
	decodeBody(t, resp, &product)
	assert.NotEmpty(t, product.ID)
	return &product
}

func TestAuthLifecycle(t *testing.T) {
	env := setupEnv(t)

	// register
	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/register", map[string]string{
		"email":    "a@b.c",
		"username": "abcdef",
		"password": "password1",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp map[string]interface{}
	decodeBody(t, resp, &registerResp)
	assert.NotEmpty(t, registerResp["id"])
	assert.Equal(t, "User created successfully", registerResp["msg"])

	// login: token in Authorization header, no password in body
	resp, err = env.app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    "a@b.c",
		"password": "password1",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token := resp.Header.Get("Authorization")
	assert.NotEmpty(t, token)
	var loginBody map[string]interface{}
	decodeBody(t, resp, &loginBody)
	assert.Equal(t, "abcdef", loginBody["username"])
	assert.NotContains(t, loginBody, "password")
	cart, ok := loginBody["cart"].([]interface{})
	assert.True(t, ok, "cart must serialize as an array, not null")
	assert.Empty(t, cart)

	// checkauth returns the matching user
	req := httptest.NewRequest(http.MethodGet, "/checkauth", nil)
	req.Header.Set("Authorization", token)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var checkBody map[string]interface{}
	decodeBody(t, resp, &checkBody)
	assert.Equal(t, loginBody["id"], checkBody["id"])

	// logout
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", token)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// the token is now invalid
	req = httptest.NewRequest(http.MethodGet, "/checkauth", nil)
	req.Header.Set("Authorization", token)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginFailures(t *testing.T) {
	env := setupEnv(t)
	env.registerAndLogin(t, "a@b.c", "abcdef", "password1")

	// wrong password
	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    "a@b.c",
		"password": "wrongpass1",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Authorization"))
	resp.Body.Close()

	// unknown user
	resp, err = env.app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    "nobody@b.c",
		"password": "password1",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// malformed payload
	resp, err = env.app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody map[string][]map[string]string
	decodeBody(t, resp, &errBody)
	assert.NotEmpty(t, errBody["errors"])
}

func TestRegisterConflicts(t *testing.T) {
	env := setupEnv(t)
	env.registerAndLogin(t, "a@b.c", "abcdef", "password1")

	// duplicate email
	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/register", map[string]string{
		"email":    "a@b.c",
		"username": "somebody",
		"password": "password1",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// duplicate username
	resp, err = env.app.Test(jsonRequest(http.MethodPost, "/register", map[string]string{
		"email":    "other@b.c",
		"username": "abcdef",
		"password": "password1",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// no second record was created
	user, err := env.users.GetByEmail("a@b.c")
	assert.NoError(t, err)
	assert.NotNil(t, user)
	missing, err := env.users.GetByUsername("somebody")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLoginTwiceReusesToken(t *testing.T) {
	env := setupEnv(t)
	first, _ := env.registerAndLogin(t, "a@b.c", "abcdef", "password1")

	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    "a@b.c",
		"password": "password1",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first, resp.Header.Get("Authorization"))
	resp.Body.Close()
}

func TestProductCRUD(t *testing.T) {
	env := setupEnv(t)
	adminToken, _ := env.createAdmin(t)

	product := env.createProduct(t, adminToken, 10)
	assert.Equal(t, models.DefaultImageName, product.ImageName)
	assert.NotEmpty(t, product.ImageURL)

	// public read
	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/products/"+product.ID, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	decodeBody(t, resp, &fetched)
	assert.Equal(t, product.ID, fetched.ID)

	// public list
	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/products?limit=10", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []models.Product
	decodeBody(t, resp, &listed)
	assert.Len(t, listed, 1)

	// update
	body, contentType := productForm(t, map[string]string{
		"name":        "renamed product",
		"description": "updated description",
		"price":       "20.00",
		"stock":       "4",
	})
	req := httptest.NewRequest(http.MethodPut, "/products/"+product.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", adminToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Product
	decodeBody(t, resp, &updated)
	assert.Equal(t, "renamed product", updated.Name)
	assert.Equal(t, 4, updated.Stock)

	// delete
	req = httptest.NewRequest(http.MethodDelete, "/products/"+product.ID, nil)
	req.Header.Set("Authorization", adminToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/products/"+product.ID, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProductValidation(t *testing.T) {
	env := setupEnv(t)
	adminToken, _ := env.createAdmin(t)

	cases := []map[string]string{
		{"name": "abcd", "description": "ok", "price": "10", "stock": "1"},       // name too short
		{"name": "valid name", "description": "ok", "price": "-1", "stock": "1"}, // negative price
		{"name": "valid name", "description": "ok", "price": "100000", "stock": "1"}, // price above cap
		{"name": "valid name", "description": "ok", "price": "10", "stock": "0"},     // stock below 1
	}
	for _, fields := range cases {
		body, contentType := productForm(t, fields)
		req := httptest.NewRequest(http.MethodPost, "/products", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", adminToken)
		resp, err := env.app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}

	// nothing was persisted
	products, err := env.products.List(10, 0)
	assert.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductRejectsNonImageUpload(t *testing.T) {
	env := setupEnv(t)
	adminToken, _ := env.createAdmin(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range map[string]string{
		"name":        "valid name",
		"description": "ok",
		"price":       "10",
		"stock":       "1",
	} {
		assert.NoError(t, writer.WriteField(key, value))
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="notes.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := writer.CreatePart(header)
	assert.NoError(t, err)
	_, err = part.Write([]byte("just some text"))
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", adminToken)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody map[string][]map[string]string
	decodeBody(t, resp, &errBody)
	if assert.NotEmpty(t, errBody["errors"]) {
		assert.Equal(t, "Uploaded file must be an image", errBody["errors"][0]["msg"])
	}

	// the product was not created and the file was not stored
	products, err := env.products.List(10, 0)
	assert.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductMutationRequiresAdmin(t *testing.T) {
	env := setupEnv(t)
	userToken, _ := env.registerAndLogin(t, "a@b.c", "abcdef", "password1")

	body, contentType := productForm(t, map[string]string{
		"name":        "valid name",
		"description": "ok",
		"price":       "10",
		"stock":       "1",
	})

	// unauthenticated
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// authenticated but not admin
	body, contentType = productForm(t, map[string]string{
		"name":        "valid name",
		"description": "ok",
		"price":       "10",
		"stock":       "1",
	})
	req = httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", userToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestCartEndpoints(t *testing.T) {
	env := setupEnv(t)
	adminToken, _ := env.createAdmin(t)
	userToken, userID := env.registerAndLogin(t, "a@b.c", "abcdef", "password1")
	product := env.createProduct(t, adminToken, 5)

	// add to own cart
	resp, err := env.app.Test(withAuth(jsonRequest(http.MethodPost, "/cart/"+userID, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	}), userToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// duplicate add
	resp, err = env.app.Test(withAuth(jsonRequest(http.MethodPost, "/cart/"+userID, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	}), userToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// quantity above stock
	resp, err = env.app.Test(withAuth(jsonRequest(http.MethodPut, "/cart/"+userID+"/"+product.ID, map[string]interface{}{
		"quantity": 9,
	}), userToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// valid quantity update
	resp, err = env.app.Test(withAuth(jsonRequest(http.MethodPut, "/cart/"+userID+"/"+product.ID, map[string]interface{}{
		"quantity": 4,
	}), userToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// list shows the joined view with image URLs
	resp, err = env.app.Test(withAuth(httptest.NewRequest(http.MethodGet, "/cart/"+userID, nil), userToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var view []map[string]interface{}
	decodeBody(t, resp, &view)
	assert.Len(t, view, 1)
	assert.Equal(t, product.ID, view[0]["id"])
	assert.Equal(t, float64(4), view[0]["quantity"])
	assert.NotEmpty(t, view[0]["image_url"])

	// remove
	resp, err = env.app.Test(withAuth(httptest.NewRequest(http.MethodDelete, "/cart/"+userID+"/"+product.ID, nil), userToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// update after removal reports not in cart
	resp, err = env.app.Test(withAuth(jsonRequest(http.MethodPut, "/cart/"+userID+"/"+product.ID, map[string]interface{}{
		"quantity": 1,
	}), userToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCartOwnershipGate(t *testing.T) {
	env := setupEnv(t)
	adminToken, _ := env.createAdmin(t)
	_, ownerID := env.registerAndLogin(t, "a@b.c", "abcdef", "password1")
	otherToken, _ := env.registerAndLogin(t, "x@y.z", "xyzzyx", "password1")
	product := env.createProduct(t, adminToken, 5)

	// another regular user may not touch this cart
	resp, err := env.app.Test(withAuth(jsonRequest(http.MethodPost, "/cart/"+ownerID, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	}), otherToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp, err = env.app.Test(withAuth(httptest.NewRequest(http.MethodGet, "/cart/"+ownerID, nil), otherToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// an admin may
	resp, err = env.app.Test(withAuth(jsonRequest(http.MethodPost, "/cart/"+ownerID, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   1,
	}), adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// unknown cart owner
	resp, err = env.app.Test(withAuth(httptest.NewRequest(http.MethodGet, "/cart/no-such-user", nil), adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func withAuth(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", token)
	return req
}
