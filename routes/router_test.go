package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/webappapi/socialboard/config"
	"github.com/webappapi/socialboard/models"
	"github.com/webappapi/socialboard/utils"
)

const testSecret = "router-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

func newTestServer(t *testing.T, withRedis bool, tweaks ...func(*config.AppConfig)) *testServer {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:          testSecret,
		JWTTTLMinutes:      60,
		DBDriver:           config.DriverSQLite,
		DBName:             ":memory:",
		RateLimitPerMinute: 6000,
		LoginMaxAttempts:   100,
		LoginWindowMinutes: 5,
		FeedCacheSeconds:   30,
		GinMode:            "test",
		LogLevel:           "silent",
	}
	for _, tweak := range tweaks {
		tweak(&cfg)
	}
	db, err := config.OpenDatabase(cfg, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })

	ts := &testServer{t: t, db: db}
	deps := Deps{Config: cfg, DB: db}
	if withRedis {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		deps.Redis = rdb
		ts.redis = mr
	}
	ts.engine = SetupRouter(deps)
	return ts
}

func (ts *testServer) do(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "198.51.100.7:4000"
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (ts *testServer) signupAndLogin(username string) (uint, string) {
	ts.t.Helper()
	w, _ := ts.do(http.MethodPost, "/signup", gin.H{
		"email":    username + "@example.com",
		"username": username,
		"password": "pw-" + username,
	}, "")
	require.Equal(ts.t, http.StatusOK, w.Code, w.Body.String())

	w, env := ts.do(http.MethodPost, "/login", gin.H{"username": username, "password": "pw-" + username}, "")
	require.Equal(ts.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(ts.t, json.Unmarshal(env.Data, &data))
	return data.User.ID, data.Token
}

func (ts *testServer) createPost(token string) uint {
	ts.t.Helper()
	w, env := ts.do(http.MethodPost, "/posts", gin.H{"title": "Hello", "content": "First <b>post</b>"}, token)
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	var data struct {
		Post models.Post `json:"post"`
	}
	require.NoError(ts.t, json.Unmarshal(env.Data, &data))
	return data.Post.PostID
}

func TestConcreteScenario(t *testing.T) {
	ts := newTestServer(t, false)

	signup := gin.H{"email": "a@x.com", "username": "alice", "password": "p1"}
	w, env := ts.do(http.MethodPost, "/signup", signup, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sign up successful!", env.Message)

	w, env = ts.do(http.MethodPost, "/signup", signup, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "conflict", env.Kind)
	assert.Equal(t, "Username or email address already exists", env.Message)

	var users int64
	require.NoError(t, ts.db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)

	w, env = ts.do(http.MethodPost, "/login", gin.H{"username": "alice", "password": "p1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successful", env.Message)
	var login struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, "a@x.com", login.User["email"])
	assert.Equal(t, "alice", login.User["username"])
	assert.NotContains(t, login.User, "password")

	claims, err := utils.NewTokenManager(testSecret, time.Hour).Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(login.User["id"].(float64)), claims.UserID)

	var stored models.User
	require.NoError(t, ts.db.First(&stored, claims.UserID).Error)
	assert.NotEqual(t, "p1", stored.Password)
	assert.True(t, utils.CheckPassword(stored.Password, "p1"))

	postID := ts.createPost(login.Token)
	require.Equal(t, uint(1), postID)

	_, env = ts.do(http.MethodPost, "/posts/1/like", gin.H{"user_id": 5}, "")
	assert.Equal(t, "Post liked", env.Message)
	_, env = ts.do(http.MethodPost, "/posts/1/like", gin.H{"user_id": 5}, "")
	assert.Equal(t, "Post unliked", env.Message)

	w, env = ts.do(http.MethodGet, "/posts/1/likes?user_id=5", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"like_count":0,"likedByUser":0}`, string(env.Data))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t, false)
	ts.signupAndLogin("bob")

	wrongPassword, env := ts.do(http.MethodPost, "/login", gin.H{"username": "bob", "password": "nope"}, "")
	unknownUser, _ := ts.do(http.MethodPost, "/login", gin.H{"username": "nobody", "password": "nope"}, "")

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Equal(t, "Invalid username or password", env.Message)

	w, env := ts.do(http.MethodPost, "/login", gin.H{"username": "bob"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", env.Kind)
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []gin.H{
		{"username": "x", "password": "p"},
		{"email": "x@example.com", "password": "p"},
		{"email": "x@example.com", "username": "x"},
		{"email": "   ", "username": "x", "password": "p"},
	}
	for i, body := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			w, env := ts.do(http.MethodPost, "/signup", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation", env.Kind)
			assert.Equal(t, "Missing required fields", env.Message)
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	ts := newTestServer(t, true)

	// missing password fails fast in the handler, but still counts as an attempt
	for i := 0; i < 100; i++ {
		w, _ := ts.do(http.MethodPost, "/login", gin.H{"username": "ghost"}, "")
		require.Equal(t, http.StatusBadRequest, w.Code, "attempt %d", i+1)
	}
	assert.Equal(t, "100", mustGet(t, ts.redis, "rl:login:198.51.100.7"))

	w, env := ts.do(http.MethodPost, "/login", gin.H{"username": "ghost", "password": "x"}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limit", env.Kind)
	assert.Equal(t, "Too many login attempts, please try again after 5 minutes", env.Message)
}

func TestLoginLimiter_DefaultRateLimit(t *testing.T) {
	ts := newTestServer(t, true, func(cfg *config.AppConfig) {
		cfg.RateLimitPerMinute = 60
	})

	for i := 0; i < 100; i++ {
		w, env := ts.do(http.MethodPost, "/login", gin.H{"username": "ghost"}, "")
		require.Equal(t, http.StatusBadRequest, w.Code, "attempt %d: %s", i+1, env.Message)
	}

	w, env := ts.do(http.MethodPost, "/login", gin.H{"username": "ghost", "password": "x"}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 42902, env.Code)
	assert.Equal(t, "Too many login attempts, please try again after 5 minutes", env.Message)

	// the general bucket still guards the other routes
	limited := false
	for i := 0; i < 60 && !limited; i++ {
		w, env = ts.do(http.MethodGet, "/usersFetch", nil, "")
		limited = w.Code == http.StatusTooManyRequests && env.Code == 42901
	}
	assert.True(t, limited)
}

func TestDeletePostCascades(t *testing.T) {
	ts := newTestServer(t, false)
	ownerID, ownerToken := ts.signupAndLogin("owner")
	otherID, otherToken := ts.signupAndLogin("other")

	postID := ts.createPost(ownerToken)
	w, env := ts.do(http.MethodPost, "/comments", gin.H{"post_id": postID, "content": "nice"}, otherToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, otherID, created.Comment.UserID)

	ts.do(http.MethodPost, fmt.Sprintf("/comments/%d/like", created.Comment.ID), nil, ownerToken)
	ts.do(http.MethodPost, fmt.Sprintf("/posts/%d/like", postID), nil, otherToken)

	path := fmt.Sprintf("/posts/%d/delete", postID)
	w, env = ts.do(http.MethodDelete, path, gin.H{"user_id": otherID}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found or not owned by user", env.Message)

	w, env = ts.do(http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", env.Kind)

	w, env = ts.do(http.MethodDelete, path, gin.H{"user_id": ownerID}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Post deleted successfully", env.Message)

	w, env = ts.do(http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"comments":[]}`, string(env.Data))

	_, env = ts.do(http.MethodGet, "/stats", nil, "")
	assert.JSONEq(t, `{"user_count":2,"post_count":0,"comment_count":0,"post_like_count":0,"comment_like_count":0}`, string(env.Data))
}

func TestActorPrefersToken(t *testing.T) {
	ts := newTestServer(t, false)
	aliceID, aliceToken := ts.signupAndLogin("alice")
	bobID, _ := ts.signupAndLogin("bob")
	postID := ts.createPost(aliceToken)

	ts.do(http.MethodPost, fmt.Sprintf("/posts/%d/like", postID), gin.H{"user_id": bobID}, aliceToken)

	_, env := ts.do(http.MethodGet, fmt.Sprintf("/posts/%d/likes?user_id=%d", postID, aliceID), nil, "")
	assert.JSONEq(t, `{"like_count":1,"likedByUser":1}`, string(env.Data))
	_, env = ts.do(http.MethodGet, fmt.Sprintf("/posts/%d/likes?user_id=%d", postID, bobID), nil, "")
	assert.JSONEq(t, `{"like_count":1,"likedByUser":0}`, string(env.Data))
}

func TestLatestPostsFeedCache(t *testing.T) {
	ts := newTestServer(t, true)
	userID, token := ts.signupAndLogin("carol")
	postID := ts.createPost(token)

	latest := func() []models.FeedPost {
		w, env := ts.do(http.MethodGet, fmt.Sprintf("/posts/latest?user_id=%d", userID), nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Posts []models.FeedPost `json:"posts"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data.Posts
	}

	posts := latest()
	require.Len(t, posts, 1)
	assert.Equal(t, "carol", posts[0].Username)
	assert.Zero(t, posts[0].LikedByUser)
	assert.True(t, ts.redis.Exists(fmt.Sprintf("cache:posts:latest:viewer=%d", userID)))

	ts.do(http.MethodPost, fmt.Sprintf("/posts/%d/like", postID), nil, token)
	assert.False(t, ts.redis.Exists(fmt.Sprintf("cache:posts:latest:viewer=%d", userID)), "like invalidates the feed")

	posts = latest()
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].LikeCount)
	assert.Equal(t, int64(1), posts[0].LikedByUser)
}

func TestCommentValidation(t *testing.T) {
	ts := newTestServer(t, false)
	_, token := ts.signupAndLogin("dave")

	w, env := ts.do(http.MethodPost, "/comments", gin.H{"post_id": 1, "content": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "no actor")
	assert.Equal(t, "validation", env.Kind)

	w, env = ts.do(http.MethodPost, "/comments", gin.H{"post_id": 99, "content": "x"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Kind)

	w, _ = ts.do(http.MethodPost, "/posts/99/like", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	postID := ts.createPost(token)
	w, env = ts.do(http.MethodPost, "/comments", gin.H{"post_id": postID, "user_id": 999, "content": "x"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40405, env.Code)
	assert.Equal(t, "User not found", env.Message)

	w, env = ts.do(http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"comments":[]}`, string(env.Data))
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t, false)
	id, token := ts.signupAndLogin("erin")

	w, env := ts.do(http.MethodGet, "/user", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"erin"`)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = ts.do(http.MethodGet, fmt.Sprintf("/users/%d", id), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(http.MethodGet, "/users/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = ts.do(http.MethodGet, "/usersFetch", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"erin@example.com"`)

	w, _ = ts.do(http.MethodPost, "/posts", gin.H{"title": "t", "content": "c"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.do(http.MethodPost, "/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = ts.do(http.MethodGet, "/user", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "auth", env.Kind)
}

func TestOpsEndpoints(t *testing.T) {
	ts := newTestServer(t, false)

	w, _ := ts.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/usersFetch")

	w, env := ts.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(env.Data))

	w, env = ts.do(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Kind)

	w, _ = ts.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "socialboard_http_requests_total")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
