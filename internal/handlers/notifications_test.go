package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/HoVietThang190704/social-app-sub001/internal/auth"
	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
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

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// HandlersTestSuite exercises the HTTP surface against an in-memory database
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	member   *models.User
	admin    *models.User
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)

	sqlDB, err := db.DB()
	require.NoError(suite.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(suite.T(), db.AutoMigrate(&models.User{}, &models.Notification{}))

	suite.db = db
	suite.handlers = NewHandlers(
		auth.NewService(db, []byte("handlers_test_secret")),
		notifications.NewService(db, nil, nil, nil),
	)

	suite.member = suite.createUser("member", models.RoleMember)
	suite.admin = suite.createUser("admin", models.RoleAdmin)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()
}

func (suite *HandlersTestSuite) createUser(username, role string) *models.User {
	user := models.User{
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
		Role:        role,
	}
	require.NoError(suite.T(), suite.db.Create(&user).Error)
	return &user
}

// setupRoutes mirrors the production layout, swapping the JWT middleware for
// an X-User-ID header so tests can pick a caller per request
func (suite *HandlersTestSuite) setupRoutes() {
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		var user models.User
		if err := suite.db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Set("user", &user)
		c.Next()
	}

	adminOnly := func(c *gin.Context) {
		if !isAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}

	api := suite.router.Group("/api/v1", authMiddleware)
	api.GET("/notifications", suite.handlers.GetNotifications)
	api.GET("/notifications/summary", suite.handlers.GetNotificationSummary)
	api.PATCH("/notifications/:id/read", suite.handlers.MarkNotificationRead)
	api.PATCH("/notifications/read-all", suite.handlers.MarkAllNotificationsRead)
	api.POST("/notifications", adminOnly, suite.handlers.SendNotification)
	api.POST("/notifications/broadcast", adminOnly, suite.handlers.BroadcastNotification)
}

func (suite *HandlersTestSuite) request(method, path, asUser string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if asUser != "" {
		req.Header.Set("X-User-ID", asUser)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) seedNotifications(userID string, n int) []models.Notification {
	rows := make([]models.Notification, 0, n)
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		row := models.Notification{
			UserID:    userID,
			Title:     fmt.Sprintf("title %d", i),
			Message:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(suite.T(), suite.db.Create(&row).Error)
		rows = append(rows, row)
	}
	return rows
}

func (suite *HandlersTestSuite) TestGetNotifications() {
	suite.seedNotifications(suite.member.ID, 12)

	w := suite.request(http.MethodGet, "/api/v1/notifications", suite.member.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var result notifications.ListResult
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(suite.T(), int64(12), result.Total)
	assert.Equal(suite.T(), int64(12), result.UnreadCount)
	assert.Equal(suite.T(), 1, result.Page)
	assert.Equal(suite.T(), notifications.DefaultLimit, result.Limit)
	assert.Len(suite.T(), result.Items, 10)
}

func (suite *HandlersTestSuite) TestGetNotificationsClampsLimit() {
	suite.seedNotifications(suite.member.ID, 8)

	w := suite.request(http.MethodGet, "/api/v1/notifications?limit=2&page=0", suite.member.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var result notifications.ListResult
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(suite.T(), notifications.MinLimit, result.Limit)
	assert.Equal(suite.T(), 1, result.Page)
	assert.Len(suite.T(), result.Items, 5)
}

func (suite *HandlersTestSuite) TestGetNotificationsStatusFilter() {
	rows := suite.seedNotifications(suite.member.ID, 3)
	now := time.Now()
	require.NoError(suite.T(), suite.db.Model(&rows[0]).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error)

	w := suite.request(http.MethodGet, "/api/v1/notifications?status=unread", suite.member.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var result notifications.ListResult
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(suite.T(), int64(2), result.Total)
	assert.Equal(suite.T(), int64(2), result.UnreadCount)
}

func (suite *HandlersTestSuite) TestGetNotificationsRequiresAuth() {
	w := suite.request(http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestAdminCanListAnotherUsersInbox() {
	suite.seedNotifications(suite.member.ID, 2)

	w := suite.request(http.MethodGet, "/api/v1/notifications?user_id="+suite.member.ID, suite.admin.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var result notifications.ListResult
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(suite.T(), int64(2), result.Total)
}

func (suite *HandlersTestSuite) TestMemberCannotListAnotherUsersInbox() {
	w := suite.request(http.MethodGet, "/api/v1/notifications?user_id="+suite.admin.ID, suite.member.ID, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestMarkNotificationRead() {
	rows := suite.seedNotifications(suite.member.ID, 1)

	w := suite.request(http.MethodPatch, "/api/v1/notifications/"+rows[0].ID+"/read", suite.member.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var body struct {
		Notification models.Notification `json:"notification"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(suite.T(), body.Notification.IsRead)
	assert.NotNil(suite.T(), body.Notification.ReadAt)

	// Second call is a no-op, not an error
	w = suite.request(http.MethodPatch, "/api/v1/notifications/"+rows[0].ID+"/read", suite.member.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestMarkNotificationReadNotOwned() {
	rows := suite.seedNotifications(suite.admin.ID, 1)

	w := suite.request(http.MethodPatch, "/api/v1/notifications/"+rows[0].ID+"/read", suite.member.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestMarkAllNotificationsRead() {
	suite.seedNotifications(suite.member.ID, 4)

	w := suite.request(http.MethodPatch, "/api/v1/notifications/read-all", suite.member.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var result notifications.MarkAllResult
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(suite.T(), int64(4), result.Updated)

	w = suite.request(http.MethodPatch, "/api/v1/notifications/read-all", suite.member.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(suite.T(), int64(0), result.Updated)
}

func (suite *HandlersTestSuite) TestGetNotificationSummary() {
	rows := suite.seedNotifications(suite.member.ID, 3)
	now := time.Now()
	require.NoError(suite.T(), suite.db.Model(&rows[0]).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error)

	w := suite.request(http.MethodGet, "/api/v1/notifications/summary", suite.member.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var summary notifications.Summary
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(suite.T(), int64(3), summary.Total)
	assert.Equal(suite.T(), int64(2), summary.Unread)
	assert.Equal(suite.T(), int64(1), summary.Read)
	assert.True(suite.T(), summary.HasUnread)
	require.NotNil(suite.T(), summary.LatestNotification)
}

func (suite *HandlersTestSuite) TestSendNotification() {
	w := suite.request(http.MethodPost, "/api/v1/notifications", suite.admin.ID, notifications.SendInput{
		TargetUserID: suite.member.ID,
		Title:        "Fresh stock",
		Message:      "The morning delivery arrived",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var result notifications.SendResult
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(suite.T(), result.Notification)
	assert.Equal(suite.T(), suite.member.ID, result.Notification.UserID)
	assert.Equal(suite.T(), models.NotificationTypeSystem, result.Notification.Type)
}

func (suite *HandlersTestSuite) TestSendNotificationValidation() {
	w := suite.request(http.MethodPost, "/api/v1/notifications", suite.admin.ID, notifications.SendInput{
		TargetUserID: suite.member.ID,
		Message:      "no title",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/notifications", suite.admin.ID, notifications.SendInput{
		TargetUserID: "11111111-0000-0000-0000-000000000000",
		Title:        "t",
		Message:      "m",
	})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestSendNotificationRequiresAdmin() {
	w := suite.request(http.MethodPost, "/api/v1/notifications", suite.member.ID, notifications.SendInput{
		TargetUserID: suite.member.ID,
		Title:        "t",
		Message:      "m",
	})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestBroadcastNotification() {
	w := suite.request(http.MethodPost, "/api/v1/notifications/broadcast", suite.admin.ID, notifications.SendInput{
		Title:   "Site news",
		Message: "New market vendors this week",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var result notifications.SendResult
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(suite.T(), int64(1), result.Persisted)

	// Admin accounts are not broadcast recipients, so only the member gets a row.
	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(suite.T(), int64(1), count)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
