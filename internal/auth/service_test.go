package auth

import (
	"testing"

	"github.com/HoVietThang190704/social-app-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), db.AutoMigrate(&models.User{}))

	suite.db = db
	suite.authService = NewService(db, []byte("test_jwt_secret_key"))
}

func (suite *AuthServiceTestSuite) TestRegisterAndLogin() {
	resp, err := suite.authService.Register(RegisterRequest{
		Email:       "chef@example.com",
		Username:    "chef",
		Password:    "supersecret1",
		DisplayName: "Chef",
	})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.Token)
	assert.NotEmpty(suite.T(), resp.User.ID)
	assert.Equal(suite.T(), models.RoleMember, resp.User.Role)

	login, err := suite.authService.Login(LoginRequest{
		Email:    "chef@example.com",
		Password: "supersecret1",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, login.User.ID)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	_, err := suite.authService.Register(RegisterRequest{
		Email:       "dup@example.com",
		Username:    "first",
		Password:    "supersecret1",
		DisplayName: "First",
	})
	require.NoError(suite.T(), err)

	_, err = suite.authService.Register(RegisterRequest{
		Email:       "DUP@example.com",
		Username:    "second",
		Password:    "supersecret1",
		DisplayName: "Second",
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	_, err := suite.authService.Register(RegisterRequest{
		Email:       "wrong@example.com",
		Username:    "wrongpw",
		Password:    "supersecret1",
		DisplayName: "Wrong",
	})
	require.NoError(suite.T(), err)

	_, err = suite.authService.Login(LoginRequest{
		Email:    "wrong@example.com",
		Password: "notthepassword",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLoginUnknownUser() {
	_, err := suite.authService.Login(LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func (suite *AuthServiceTestSuite) TestValidateToken() {
	resp, err := suite.authService.Register(RegisterRequest{
		Email:       "token@example.com",
		Username:    "tokenuser",
		Password:    "supersecret1",
		DisplayName: "Token",
	})
	require.NoError(suite.T(), err)

	user, err := suite.authService.ValidateToken(resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, user.ID)

	_, err = suite.authService.ValidateToken("not.a.token")
	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestVerifyTokenWrongSecret() {
	resp, err := suite.authService.Register(RegisterRequest{
		Email:       "secret@example.com",
		Username:    "secretuser",
		Password:    "supersecret1",
		DisplayName: "Secret",
	})
	require.NoError(suite.T(), err)

	userID, err := VerifyToken([]byte("test_jwt_secret_key"), resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID, userID)

	_, err = VerifyToken([]byte("a_different_secret"), resp.Token)
	assert.Error(suite.T(), err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
