package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interviewiq-go/internal/classifier"
	"interviewiq-go/internal/middleware"
	"interviewiq-go/internal/model"
	"interviewiq-go/internal/repository"
	"interviewiq-go/internal/service"
	"interviewiq-go/pkg/es"
	"interviewiq-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func serve(r http.Handler, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// fakeUsers 是 UserService 的内存实现。
type fakeUsers struct {
	users   map[string]*model.User
	revoked map[string]bool
	jwt     *token.JWTManager
}

func newFakeUsers(jwtManager *token.JWTManager) *fakeUsers {
	return &fakeUsers{
		users: map[string]*model.User{
			"alice": {ID: 1, Username: "alice", Role: model.RoleUser},
			"root":  {ID: 2, Username: "root", Role: model.RoleAdmin},
		},
		revoked: map[string]bool{},
		jwt:     jwtManager,
	}
}

func (f *fakeUsers) Register(username, email, _ string) (*model.User, error) {
	if _, ok := f.users[username]; ok {
		return nil, service.ErrUserExists
	}
	u := &model.User{ID: uint(len(f.users) + 1), Username: username, Email: email, Role: model.RoleUser}
	f.users[username] = u
	return u, nil
}

func (f *fakeUsers) Login(username, password string) (string, string, error) {
	u, ok := f.users[username]
	if !ok || password != "secret" {
		return "", "", service.ErrInvalidCredentials
	}
	a, _ := f.jwt.GenerateToken(u.ID, u.Username, u.Role)
	r, _ := f.jwt.GenerateRefreshToken(u.ID, u.Username, u.Role)
	return a, r, nil
}

func (f *fakeUsers) GetProfile(username string) (*model.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

func (f *fakeUsers) Logout(_ context.Context, tokenString string) error {
	claims, err := f.jwt.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	f.revoked[claims.ID] = true
	return nil
}

func (f *fakeUsers) IsTokenRevoked(_ context.Context, claims *token.CustomClaims) bool {
	return f.revoked[claims.ID]
}

func (f *fakeUsers) RefreshToken(_ context.Context, refresh string) (string, string, error) {
	claims, err := f.jwt.VerifyTokenType(refresh, token.TypeRefresh)
	if err != nil {
		return "", "", service.ErrInvalidRefreshToken
	}
	return f.Login(claims.Username, "secret")
}

// fakeChat 记录调用方身份，并用真实分类器生成回复。
type fakeChat struct {
	c     *classifier.Classifier
	users []*model.User
}

func (f *fakeChat) Chat(_ context.Context, message string, user *model.User) *service.ChatReply {
	f.users = append(f.users, user)
	res := f.c.Classify(message)
	reply := &service.ChatReply{Category: res.Category, Response: res.Response, Confidence: res.Confidence, FollowUp: res.FollowUp}
	if user != nil {
		id := uint(len(f.users))
		now := time.Now()
		reply.ID = &id
		reply.Timestamp = &now
	}
	return reply
}

type fakeConversations struct {
	records  []model.ChatRecord
	session  []model.ChatMessage
	cleared  bool
	exportEr error
	limit    int
}

func (f *fakeConversations) GetHistory(_ uint, limit int) ([]model.ChatRecord, error) {
	f.limit = limit
	return f.records, nil
}

func (f *fakeConversations) GetSession(context.Context, uint) ([]model.ChatMessage, error) {
	return f.session, nil
}

func (f *fakeConversations) ClearSession(context.Context, uint) error {
	f.cleared = true
	return nil
}

func (f *fakeConversations) ExportHistory(_ context.Context, userID uint) (*service.ExportResult, error) {
	if f.exportEr != nil {
		return nil, f.exportEr
	}
	return &service.ExportResult{ObjectName: "exports/1/x.json", URL: "https://minio.local/x", Records: len(f.records)}, nil
}

type fakeAdmin struct {
	filter repository.ChatRecordFilter
	day    time.Time
}

func (f *fakeAdmin) ListUsers(page, size int) (*service.UserListResponse, error) {
	return &service.UserListResponse{Number: page, Size: size, Content: []service.UserDetailResponse{}}, nil
}

func (f *fakeAdmin) ListChatRecords(filter repository.ChatRecordFilter) ([]model.ChatRecord, error) {
	f.filter = filter
	return []model.ChatRecord{}, nil
}

func (f *fakeAdmin) Stats(_ context.Context, day time.Time) (*service.StatsResponse, error) {
	f.day = day
	return &service.StatsResponse{Day: day.Format(dateLayout)}, nil
}

type fakeSearch struct {
	got es.SearchQuery
	err error
}

func (f *fakeSearch) SearchChats(_ context.Context, q es.SearchQuery) (*service.SearchResult, error) {
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	return &service.SearchResult{Hits: []model.ChatSearchHit{}}, nil
}

type fakeQA struct {
	pairs map[uint]*model.QAPair
	next  uint
}

func (f *fakeQA) Ask(question string) (*service.QAAnswer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, service.ErrEmptyQuestion
	}
	for _, p := range f.pairs {
		if strings.Contains(strings.ToLower(p.Question), strings.ToLower(question)) {
			return &service.QAAnswer{Question: p.Question, Answer: p.Answer, Found: true}, nil
		}
	}
	return &service.QAAnswer{Question: question, Answer: service.UnknownAnswer}, nil
}

func (f *fakeQA) Create(question, answer string, creator *model.User) (*model.QAPair, error) {
	if question == "" {
		return nil, service.ErrEmptyQuestion
	}
	f.next++
	p := &model.QAPair{ID: f.next, Question: question, Answer: answer}
	if creator != nil {
		p.CreatedBy = creator.ID
	}
	f.pairs[p.ID] = p
	return p, nil
}

func (f *fakeQA) Update(id uint, question, answer string) (*model.QAPair, error) {
	p, ok := f.pairs[id]
	if !ok {
		return nil, service.ErrQANotFound
	}
	if question != "" {
		p.Question = question
	}
	if answer != "" {
		p.Answer = answer
	}
	return p, nil
}

func (f *fakeQA) Delete(id uint) error {
	if _, ok := f.pairs[id]; !ok {
		return service.ErrQANotFound
	}
	delete(f.pairs, id)
	return nil
}

func (f *fakeQA) List() ([]model.QAPair, error) {
	out := make([]model.QAPair, 0, len(f.pairs))
	for _, p := range f.pairs {
		out = append(out, *p)
	}
	return out, nil
}

type testServer struct {
	router  *gin.Engine
	jwt     *token.JWTManager
	users   *fakeUsers
	chat    *fakeChat
	convs   *fakeConversations
	admin   *fakeAdmin
	search  *fakeSearch
	qa      *fakeQA
	alice   string
	root    string
	refresh string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	jwtManager := token.NewJWTManager("handler-secret", 1, 1)
	ts := &testServer{
		jwt:    jwtManager,
		users:  newFakeUsers(jwtManager),
		chat:   &fakeChat{c: classifier.New(classifier.DefaultConfig(), classifier.WithRandomSource(neverFollowUp{}))},
		convs:  &fakeConversations{},
		admin:  &fakeAdmin{},
		search: &fakeSearch{},
		qa:     &fakeQA{pairs: map[uint]*model.QAPair{}},
	}

	r := gin.New()
	auth := middleware.AuthMiddleware(jwtManager, ts.users)
	userHandler := NewUserHandler(ts.users)
	chatHandler := NewChatHandler(ts.chat, ts.users, jwtManager)
	convHandler := NewConversationHandler(ts.convs)
	qaHandler := NewQAHandler(ts.qa)
	adminHandler := NewAdminHandler(ts.admin)

	api := r.Group("/api/v1")
	api.POST("/users/register", userHandler.Register)
	api.POST("/users/login", userHandler.Login)
	api.GET("/users/me", auth, userHandler.GetProfile)
	api.POST("/users/logout", auth, userHandler.Logout)
	api.POST("/auth/refreshToken", NewAuthHandler(ts.users).RefreshToken)
	api.POST("/chatbot/chat", middleware.OptionalAuthMiddleware(jwtManager, ts.users), chatHandler.Chat)
	api.GET("/chatbot/history", auth, convHandler.GetHistory)
	api.GET("/chatbot/session", auth, convHandler.GetSession)
	api.DELETE("/chatbot/session", auth, convHandler.ClearSession)
	api.POST("/chatbot/history/export", auth, convHandler.ExportHistory)
	api.POST("/qa/ask", qaHandler.Ask)
	admin := api.Group("/admin", auth, middleware.AdminAuthMiddleware())
	admin.GET("/qa", qaHandler.List)
	admin.POST("/qa", qaHandler.Create)
	admin.PUT("/qa/:id", qaHandler.Update)
	admin.DELETE("/qa/:id", qaHandler.Delete)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/chats", adminHandler.ListChatRecords)
	admin.GET("/chats/search", NewSearchHandler(ts.search).SearchChats)
	admin.GET("/stats", adminHandler.Stats)
	r.GET("/chat/:token", chatHandler.Handle)
	r.GET("/healthz", NewHealthHandler(map[string]HealthCheck{
		"db": func(context.Context) error { return nil },
	}).Health)
	ts.router = r

	var err error
	ts.alice, err = jwtManager.GenerateToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	ts.root, err = jwtManager.GenerateToken(2, "root", model.RoleAdmin)
	require.NoError(t, err)
	ts.refresh, err = jwtManager.GenerateRefreshToken(1, "alice", model.RoleUser)
	require.NoError(t, err)
	return ts
}

type neverFollowUp struct{}

func (neverFollowUp) Float64() float64 { return 0.99 }
func (neverFollowUp) IntN(int) int     { return 0 }

func TestUserHandler_RegisterLoginProfile(t *testing.T) {
	ts := newTestServer(t)

	w := serve(ts.router, http.MethodPost, "/api/v1/users/register", `{"username":"bob","password":"secret1","email":"bob@example.com"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/users/register", `{"username":"bob","password":"secret1"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/users/register", `{"username":"carl","password":"123"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/users/login", `{"username":"alice","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tokens struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &tokens))
	assert.NotEmpty(t, tokens.Token)

	w = serve(ts.router, http.MethodPost, "/api/v1/users/login", `{"username":"alice","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(ts.router, http.MethodGet, "/api/v1/users/me", "", tokens.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &me))
	assert.Equal(t, "alice", me.Username)

	w = serve(ts.router, http.MethodPost, "/api/v1/users/logout", "", tokens.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(ts.router, http.MethodGet, "/api/v1/users/me", "", tokens.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	ts := newTestServer(t)

	w := serve(ts.router, http.MethodPost, "/api/v1/auth/refreshToken", `{"refreshToken":"`+ts.refresh+`"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/auth/refreshToken", `{"refreshToken":"`+ts.alice+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/auth/refreshToken", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_Chat(t *testing.T) {
	ts := newTestServer(t)

	w := serve(ts.router, http.MethodPost, "/api/v1/chatbot/chat", `{"message":"what salary should I ask for"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var anon map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &anon))
	assert.Equal(t, "hr", anon["category"])
	assert.Equal(t, 0.85, anon["confidence"])
	assert.Equal(t, false, anon["followUp"])
	assert.NotContains(t, anon, "id")
	assert.NotContains(t, anon, "timestamp")

	w = serve(ts.router, http.MethodPost, "/api/v1/chatbot/chat", `{"message":""}`, ts.alice)
	require.Equal(t, http.StatusOK, w.Code)
	var authed map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &authed))
	assert.Equal(t, "general", authed["category"])
	assert.Equal(t, 0.7, authed["confidence"])
	assert.Contains(t, authed, "id")
	assert.Contains(t, authed, "timestamp")

	require.Len(t, ts.chat.users, 2)
	assert.Nil(t, ts.chat.users[0])
	assert.Equal(t, "alice", ts.chat.users[1].Username)

	w = serve(ts.router, http.MethodPost, "/api/v1/chatbot/chat", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_WebSocket(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/chat/bad-token", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/chat/"+ts.alice, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("how do I debug my code")))
	var out wsMessage
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "response", out.Type)
	require.NotNil(t, out.Data)
	assert.Equal(t, classifier.Technical, out.Data.Category)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"tell me about team conflict"}`)))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, classifier.Behavioral, out.Data.Category)
}

func TestParseWSMessage(t *testing.T) {
	assert.Equal(t, "hello", parseWSMessage([]byte("hello")))
	assert.Equal(t, "hi there", parseWSMessage([]byte(`{"message":"hi there"}`)))
	assert.Equal(t, "{broken", parseWSMessage([]byte("{broken")))
	assert.Equal(t, "", parseWSMessage(nil))
}

func TestConversationHandler(t *testing.T) {
	ts := newTestServer(t)
	ts.convs.records = []model.ChatRecord{{ID: 1, UserID: 1, Message: "m", Response: "r", Category: "general"}}
	ts.convs.session = []model.ChatMessage{{Role: "user", Content: "m"}}

	w := serve(ts.router, http.MethodGet, "/api/v1/chatbot/history?limit=5", "", ts.alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, ts.convs.limit)

	w = serve(ts.router, http.MethodGet, "/api/v1/chatbot/history?limit=x", "", ts.alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(ts.router, http.MethodGet, "/api/v1/chatbot/history", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(ts.router, http.MethodGet, "/api/v1/chatbot/session", "", ts.alice)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(ts.router, http.MethodDelete, "/api/v1/chatbot/session", "", ts.alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ts.convs.cleared)

	w = serve(ts.router, http.MethodPost, "/api/v1/chatbot/history/export", "", ts.alice)
	assert.Equal(t, http.StatusOK, w.Code)

	ts.convs.exportEr = service.ErrExportUnavailable
	w = serve(ts.router, http.MethodPost, "/api/v1/chatbot/history/export", "", ts.alice)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ts.convs.exportEr = errors.New("minio down")
	w = serve(ts.router, http.MethodPost, "/api/v1/chatbot/history/export", "", ts.alice)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQAHandler(t *testing.T) {
	ts := newTestServer(t)

	w := serve(ts.router, http.MethodPost, "/api/v1/qa/ask", `{"question":"what is a goroutine"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var answer service.QAAnswer
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &answer))
	assert.Equal(t, service.UnknownAnswer, answer.Answer)

	w = serve(ts.router, http.MethodPost, "/api/v1/admin/qa", `{"question":"What is a goroutine?","answer":"A lightweight thread."}`, ts.alice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/admin/qa", `{"question":"What is a goroutine?","answer":"A lightweight thread."}`, ts.root)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/qa/ask", `{"question":"what is a goroutine"}`, "")
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &answer))
	assert.True(t, answer.Found)
	assert.Equal(t, "A lightweight thread.", answer.Answer)

	w = serve(ts.router, http.MethodPut, "/api/v1/admin/qa/1", `{"answer":"Managed by the runtime."}`, ts.root)
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(ts.router, http.MethodPut, "/api/v1/admin/qa/99", `{"answer":"x"}`, ts.root)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = serve(ts.router, http.MethodPut, "/api/v1/admin/qa/abc", `{"answer":"x"}`, ts.root)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(ts.router, http.MethodGet, "/api/v1/admin/qa", "", ts.root)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(ts.router, http.MethodDelete, "/api/v1/admin/qa/1", "", ts.root)
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(ts.router, http.MethodDelete, "/api/v1/admin/qa/1", "", ts.root)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(ts.router, http.MethodPost, "/api/v1/qa/ask", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler(t *testing.T) {
	ts := newTestServer(t)

	w := serve(ts.router, http.MethodGet, "/api/v1/admin/users?page=2&size=5", "", ts.root)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.UserListResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 5, page.Size)

	w = serve(ts.router, http.MethodGet, "/api/v1/admin/chats?userId=3&category=hr&start=2024-05-01&end=2024-05-02", "", ts.root)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ts.admin.filter.UserID)
	assert.Equal(t, uint(3), *ts.admin.filter.UserID)
	assert.Equal(t, "hr", ts.admin.filter.Category)
	require.NotNil(t, ts.admin.filter.EndTime)
	assert.Equal(t, 2, ts.admin.filter.EndTime.Day())
	assert.Equal(t, 23, ts.admin.filter.EndTime.Hour())

	w = serve(ts.router, http.MethodGet, "/api/v1/admin/chats?userId=abc", "", ts.root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = serve(ts.router, http.MethodGet, "/api/v1/admin/chats?category=sports", "", ts.root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = serve(ts.router, http.MethodGet, "/api/v1/admin/chats?start=yesterday", "", ts.root)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(ts.router, http.MethodGet, "/api/v1/admin/stats?day=2024-05-01", "", ts.root)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-01", ts.admin.day.Format(dateLayout))
}

func TestSearchHandler(t *testing.T) {
	ts := newTestServer(t)

	w := serve(ts.router, http.MethodGet, "/api/v1/admin/chats/search?query=salary&category=hr&userId=1&size=5", "", ts.root)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "salary", ts.search.got.Text)
	assert.Equal(t, "hr", ts.search.got.Category)
	assert.Equal(t, 5, ts.search.got.Size)

	ts.search.err = service.ErrSearchUnavailable
	w = serve(ts.router, http.MethodGet, "/api/v1/admin/chats/search?query=x", "", ts.root)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t)
	w := serve(ts.router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	r := gin.New()
	r.GET("/healthz", NewHealthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
		"db":    func(context.Context) error { return nil },
	}).Health)
	w = serve(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var data map[string]string
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "ok", data["db"])
	assert.Equal(t, "connection refused", data["redis"])
}
