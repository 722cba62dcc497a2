package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HoVietThang190704/social-app-sub001/internal/auth"
	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/HoVietThang190704/social-app-sub001/internal/notifications"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type AuthHandlersTestSuite struct {
	suite.Suite
	db          *gorm.DB
	router      *gin.Engine
	authService *auth.Service
}

func (suite *AuthHandlersTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)

	sqlDB, err := db.DB()
	require.NoError(suite.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(suite.T(), db.AutoMigrate(&models.User{}))

	suite.db = db
	suite.authService = auth.NewService(db, []byte("auth_handlers_secret"))
	h := NewHandlers(suite.authService, notifications.NewService(db, nil, nil, nil))

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	api := suite.router.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", suite.authService.Middleware(), h.Me)
}

func (suite *AuthHandlersTestSuite) post(path string, body interface{}) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(suite.T(), err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlersTestSuite) TestRegisterLoginMe() {
	w := suite.post("/api/v1/auth/register", auth.RegisterRequest{
		Email:       "cook@example.com",
		Username:    "cook",
		Password:    "supersecret1",
		DisplayName: "Cook",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var registered auth.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(suite.T(), registered.Token)

	w = suite.post("/api/v1/auth/login", auth.LoginRequest{
		Email:    "cook@example.com",
		Password: "supersecret1",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var loggedIn auth.AuthResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &loggedIn))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loggedIn.Token)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var me struct {
		User models.User `json:"user"`
	}
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(suite.T(), registered.User.ID, me.User.ID)
}

func (suite *AuthHandlersTestSuite) TestRegisterDuplicate() {
	first := suite.post("/api/v1/auth/register", auth.RegisterRequest{
		Email:       "dup@example.com",
		Username:    "dup",
		Password:    "supersecret1",
		DisplayName: "Dup",
	})
	require.Equal(suite.T(), http.StatusCreated, first.Code)

	second := suite.post("/api/v1/auth/register", auth.RegisterRequest{
		Email:       "dup@example.com",
		Username:    "dup2",
		Password:    "supersecret1",
		DisplayName: "Dup",
	})
	assert.Equal(suite.T(), http.StatusConflict, second.Code)
}

func (suite *AuthHandlersTestSuite) TestLoginBadCredentials() {
	w := suite.post("/api/v1/auth/login", auth.LoginRequest{
		Email:    "ghost@example.com",
		Password: "supersecret1",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *AuthHandlersTestSuite) TestMeWithoutToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlersTestSuite))
}
