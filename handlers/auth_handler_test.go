package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bermelken20/university-canteen-sub001/config"
	"github.com/bermelken20/university-canteen-sub001/database"
)

func TestRegisterReq_NormalizeAndValidate(t *testing.T) {
	t.Parallel()

	req := RegisterReq{
		Name:     "  Ahmed   Hassan ",
		Email:    " Ahmed.Hassan@UNI.EDU ",
		Phone:    "0100-123456",
		Password: "correct horse",
		College:  " Engineering ",
		Rank:     " Professor ",
	}
	req.normalize()

	assert.Equal(t, "Ahmed Hassan", req.Name)
	assert.Equal(t, "ahmed.hassan@uni.edu", req.Email)
	assert.Equal(t, "professor", req.Rank)
	assert.Nil(t, req.validate())
}

func TestRegisterReq_Validate_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		req   RegisterReq
		field string
	}{
		{"bad email", RegisterReq{Name: "Ok Name", Email: "nope", Password: "longenough"}, "email"},
		{"short password", RegisterReq{Name: "Ok Name", Email: "a@b.co", Password: "short"}, "password"},
		{"unknown rank", RegisterReq{Name: "Ok Name", Email: "a@b.co", Password: "longenough", Rank: "dean"}, "rank"},
		{"bad phone", RegisterReq{Name: "Ok Name", Email: "a@b.co", Password: "longenough", Phone: "abc"}, "phone"},
		{"empty name", RegisterReq{Email: "a@b.co", Password: "longenough"}, "name"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.req.normalize()
			errs := tc.req.validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func lockoutHandler(t *testing.T, password string) (*AuthHandler, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h := &AuthHandler{Cfg: &config.Config{
		MaxLoginAttempts: 2,
		LockoutWindow:    15 * time.Minute,
	}}
	return h, string(hash)
}

func TestDecideLogin_LockedBeatsCorrectPassword(t *testing.T) {
	t.Parallel()

	h, hash := lockoutHandler(t, "opensesame")
	now := time.Now()
	attempts := []time.Time{now.Add(-1 * time.Minute), now.Add(-5 * time.Minute)}

	// two failures inside the window lock the identifier; the correct
	// password does not unlock it early
	outcome, _ := h.decideLogin(hash, "opensesame", attempts, now)
	assert.Equal(t, loginLocked, outcome)

	outcome, _ = h.decideLogin(hash, "wrong", attempts, now)
	assert.Equal(t, loginLocked, outcome)
}

func TestDecideLogin_AttemptsAgeOut(t *testing.T) {
	t.Parallel()

	h, hash := lockoutHandler(t, "opensesame")
	now := time.Now()
	attempts := []time.Time{now.Add(-16 * time.Minute), now.Add(-2 * time.Hour)}

	outcome, _ := h.decideLogin(hash, "opensesame", attempts, now)
	assert.Equal(t, loginOK, outcome)
}

func TestDecideLogin_RemainingAttempts(t *testing.T) {
	t.Parallel()

	h, hash := lockoutHandler(t, "opensesame")
	now := time.Now()

	outcome, remaining := h.decideLogin(hash, "wrong", nil, now)
	assert.Equal(t, loginBadPassword, outcome)
	assert.Equal(t, 1, remaining)

	outcome, remaining = h.decideLogin(hash, "wrong", []time.Time{now.Add(-time.Minute)}, now)
	assert.Equal(t, loginBadPassword, outcome)
	assert.Equal(t, 0, remaining)
}

func TestFindIdentity_DBErrorIsNotInvalidCredentials(t *testing.T) {
	old := database.DB
	defer func() { database.DB = old }()

	// a reachable but closed port: queries fail with a connection
	// error, never with ErrRecordNotFound
	db, err := gorm.Open(postgres.Open(
		"host=127.0.0.1 port=1 user=none dbname=none sslmode=disable connect_timeout=1",
	), &gorm.Config{DisableAutomaticPing: true, Logger: logger.Discard})
	require.NoError(t, err)
	database.DB = db

	_, err = findIdentity("PROF-000001")
	require.Error(t, err)
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func setRecentLoginsCookie(t *testing.T, req *http.Request, entries []recentLogin) {
	t.Helper()
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: recentLoginsCookie, Value: url.QueryEscape(string(raw))})
}

func emittedRecentLogins(t *testing.T, rec *httptest.ResponseRecorder) []recentLogin {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name != recentLoginsCookie {
			continue
		}
		raw, err := url.QueryUnescape(ck.Value)
		require.NoError(t, err)
		var entries []recentLogin
		require.NoError(t, json.Unmarshal([]byte(raw), &entries))
		return entries
	}
	t.Fatalf("no %s cookie emitted", recentLoginsCookie)
	return nil
}

func TestRememberLogin_CapsAtFiveAndDeduplicates(t *testing.T) {
	t.Parallel()

	e := echo.New()
	h := &AuthHandler{}

	existing := []recentLogin{
		{UserID: "PROF-000001", Name: "A"}, // same user signing in again
		{UserID: "ASST-000002", Name: "B"},
		{UserID: "ASOC-000003", Name: "C"},
		{UserID: "INST-000004", Name: "D"},
		{UserID: "UPRO-000005", Name: "E"},
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	setRecentLoginsCookie(t, req, existing)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h.rememberLogin(c, &identity{UserID: "PROF-000001", Name: "A", Email: "a@u.edu"})

	entries := emittedRecentLogins(t, rec)
	require.Len(t, entries, recentLoginsCap)
	assert.Equal(t, "PROF-000001", entries[0].UserID)
	seen := map[string]int{}
	for _, en := range entries {
		seen[en.UserID]++
	}
	assert.Equal(t, 1, seen["PROF-000001"], "signing-in user must not be duplicated")
}

func TestReadRecentLogins_MalformedCookie(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: recentLoginsCookie, Value: "%zz-not-json"})
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Nil(t, readRecentLogins(c))
}
