package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soberline/soberline/internal/auth"
	"github.com/soberline/soberline/internal/config"
	"github.com/soberline/soberline/internal/meetingguide"
	"github.com/soberline/soberline/internal/metrics"
	"github.com/soberline/soberline/internal/reflection"
	"github.com/soberline/soberline/internal/store"
)

type testAPI struct {
	api    *API
	server *httptest.Server
	store  *store.Store
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()

	cfg := config.Config{
		JWTSecret:       "api-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		BcryptCost:      4, // bcrypt.MinCost keeps the tests fast
		AuthRateWindow:  15 * time.Minute,
		AuthRateMax:     1000,
		APIRateWindow:   15 * time.Minute,
		APIRateMax:      1000,
		MaxRequestBytes: 1 << 20,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	st, err := store.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	refl, err := reflection.NewService()
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"Sunrise Group"}]`))
	}))
	t.Cleanup(upstream.Close)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	a := New(cfg, st, tokens, refl, meetingguide.NewClient(upstream.URL, upstream.Client()), metrics.New(), zerolog.Nop())

	ts := httptest.NewServer(a.Routes())
	t.Cleanup(ts.Close)

	return &testAPI{api: a, server: ts, store: st}
}

// do sends a JSON request and decodes the JSON response into out (when
// out is non-nil).
func (ta *testAPI) do(t *testing.T, method, path, token, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ta.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// registerAndLogin creates an account and returns its access token.
func (ta *testAPI) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":"Sober123"}`, username)
	resp := ta.do(t, http.MethodPost, "/auth/register", "", body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var login struct {
		AccessToken string `json:"accessToken"`
	}
	resp = ta.do(t, http.MethodPost, "/auth/login", "", body, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken
}

func TestRegister(t *testing.T) {
	ta := newTestAPI(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"username":"alice","password":"Sober123"}`, http.StatusCreated},
		{"duplicate username", `{"username":"alice","password":"Sober123"}`, http.StatusConflict},
		{"username too short", `{"username":"al","password":"Sober123"}`, http.StatusBadRequest},
		{"username bad characters", `{"username":"al ice!","password":"Sober123"}`, http.StatusBadRequest},
		{"password too short", `{"username":"bob","password":"Ab1"}`, http.StatusBadRequest},
		{"password no uppercase", `{"username":"bob","password":"sober123"}`, http.StatusBadRequest},
		{"password no digit", `{"username":"bob","password":"SoberSober"}`, http.StatusBadRequest},
		{"not json", `not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ta.do(t, http.MethodPost, "/auth/register", "", tc.body, nil)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	ta := newTestAPI(t)
	resp := ta.do(t, http.MethodPost, "/auth/register", "", `{"username":"alice","password":"Sober123"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("success", func(t *testing.T) {
		var out struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
			Username     string `json:"username"`
		}
		resp := ta.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"Sober123"}`, &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, out.AccessToken)
		assert.NotEmpty(t, out.RefreshToken)
		assert.Equal(t, "alice", out.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"Wrong123"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, "/auth/login", "", `{"username":"ghost","password":"Sober123"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRefreshAndLogout(t *testing.T) {
	ta := newTestAPI(t)
	resp := ta.do(t, http.MethodPost, "/auth/register", "", `{"username":"alice","password":"Sober123"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var login struct {
		RefreshToken string `json:"refreshToken"`
	}
	resp = ta.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"Sober123"}`, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("valid refresh issues new access token", func(t *testing.T) {
		var out struct {
			AccessToken string `json:"accessToken"`
		}
		resp := ta.do(t, http.MethodPost, "/auth/refresh", "", fmt.Sprintf(`{"refreshToken":%q}`, login.RefreshToken), &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, out.AccessToken)
	})

	t.Run("missing token", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, "/auth/refresh", "", `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, "/auth/refresh", "", `{"refreshToken":"garbage"}`, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("revoked after logout", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, "/auth/logout", "", fmt.Sprintf(`{"refreshToken":%q}`, login.RefreshToken), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = ta.do(t, http.MethodPost, "/auth/refresh", "", fmt.Sprintf(`{"refreshToken":%q}`, login.RefreshToken), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ta := newTestAPI(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/journal"},
		{http.MethodGet, "/posts"},
		{http.MethodGet, "/sobriety-date"},
		{http.MethodGet, "/fourth-step"},
		{http.MethodGet, "/meeting-rooms/1/queue"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			resp := ta.do(t, p.method, p.path, "", "", nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenService("api-test-secret", -time.Minute, time.Hour)
		token, err := expired.IssueAccessToken(auth.Principal{UserID: 1, Username: "alice"})
		require.NoError(t, err)
		resp := ta.do(t, http.MethodGet, "/journal", token, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestJournalCRUD(t *testing.T) {
	ta := newTestAPI(t)
	token := ta.registerAndLogin(t, "alice")

	var created struct {
		ID int64 `json:"id"`
	}
	resp := ta.do(t, http.MethodPost, "/journal", token,
		`{"date":"2024-03-01","content":"day one","mood":"grateful"}`, &created)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotZero(t, created.ID)

	t.Run("invalid mood rejected", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, "/journal", token,
			`{"date":"2024-03-01","content":"x","mood":"ecstatic"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		var out struct {
			Entries []store.JournalEntry `json:"entries"`
		}
		resp := ta.do(t, http.MethodGet, "/journal", token, "", &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, out.Entries, 1)
		assert.Equal(t, "day one", out.Entries[0].Content)
	})

	t.Run("update", func(t *testing.T) {
		resp := ta.do(t, http.MethodPut, fmt.Sprintf("/journal/%d", created.ID), token,
			`{"date":"2024-03-01","content":"day one, revised","mood":"confident"}`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("update someone else's entry", func(t *testing.T) {
		other := ta.registerAndLogin(t, "bob")
		resp := ta.do(t, http.MethodPut, fmt.Sprintf("/journal/%d", created.ID), other,
			`{"date":"2024-03-01","content":"hijack","mood":"happy"}`, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		var out struct {
			Changes int64 `json:"changes"`
		}
		resp := ta.do(t, http.MethodDelete, fmt.Sprintf("/journal/%d", created.ID), token, "", &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, out.Changes)
	})
}

func TestPostsAndComments(t *testing.T) {
	ta := newTestAPI(t)
	alice := ta.registerAndLogin(t, "alice")
	bob := ta.registerAndLogin(t, "bob")

	var post struct {
		ID int64 `json:"id"`
	}
	resp := ta.do(t, http.MethodPost, "/posts", alice, `{"title":"one day at a time","content":"made it"}`, &post)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ta.do(t, http.MethodPost, fmt.Sprintf("/posts/%d/comments", post.ID), bob, `{"content":"proud of you"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("comment on missing post", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, "/posts/9999/comments", bob, `{"content":"void"}`, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	var feed []store.PostView
	resp = ta.do(t, http.MethodGet, "/posts", bob, "", &feed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, feed, 1)
	assert.Equal(t, "alice", feed[0].Author)
	require.Len(t, feed[0].Comments, 1)
	assert.Equal(t, "bob", feed[0].Comments[0].Author)
}

func TestMeetingRooms(t *testing.T) {
	ta := newTestAPI(t)
	alice := ta.registerAndLogin(t, "alice")
	bob := ta.registerAndLogin(t, "bob")

	var rooms struct {
		Rooms []store.MeetingRoom `json:"rooms"`
	}
	resp := ta.do(t, http.MethodGet, "/meeting-rooms", "", "", &rooms)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rooms.Rooms, 3)
	roomID := rooms.Rooms[0].ID

	t.Run("messages", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, fmt.Sprintf("/meeting-rooms/%d/messages", roomID), alice,
			`{"content":"hello everyone"}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// Reading history does not require auth.
		var out struct {
			Messages []store.Message `json:"messages"`
		}
		resp = ta.do(t, http.MethodGet, fmt.Sprintf("/meeting-rooms/%d/messages", roomID), "", "", &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, out.Messages, 1)
		assert.Equal(t, "alice", out.Messages[0].Author)
	})

	t.Run("sharing queue", func(t *testing.T) {
		resp := ta.do(t, http.MethodPost, fmt.Sprintf("/meeting-rooms/%d/queue", roomID), alice, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = ta.do(t, http.MethodPost, fmt.Sprintf("/meeting-rooms/%d/queue", roomID), alice, "", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, "double-joining the queue")

		// Any authenticated user may take a speaker off the queue.
		var out struct {
			Changes int64 `json:"changes"`
		}
		resp = ta.do(t, http.MethodDelete, fmt.Sprintf("/meeting-rooms/%d/queue/alice", roomID), bob, "", &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, out.Changes)
	})

	t.Run("voice call join", func(t *testing.T) {
		var out struct {
			Status string `json:"status"`
		}
		resp := ta.do(t, http.MethodPost, fmt.Sprintf("/meeting-rooms/%d/voice-call/join", roomID), "",
			`{"author":"alice"}`, &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "joining_voice_call", out.Status)
	})
}

func TestSobrietyDate(t *testing.T) {
	ta := newTestAPI(t)
	token := ta.registerAndLogin(t, "alice")

	var out struct {
		SobrietyStartDate *string `json:"sobriety_start_date"`
	}
	resp := ta.do(t, http.MethodGet, "/sobriety-date", token, "", &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, out.SobrietyStartDate)

	resp = ta.do(t, http.MethodPut, "/sobriety-date", token, `{"sobriety_start_date":"2024-01-15"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ta.do(t, http.MethodGet, "/sobriety-date", token, "", &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, out.SobrietyStartDate)
	assert.Equal(t, "2024-01-15", *out.SobrietyStartDate)
}

func TestFourthStepInventory(t *testing.T) {
	ta := newTestAPI(t)
	token := ta.registerAndLogin(t, "alice")

	var created struct {
		ID int64 `json:"id"`
	}
	resp := ta.do(t, http.MethodPost, "/fourth-step", token,
		`{"type":"resentment","description":"co-worker","affects_what":"self-esteem","my_part":"gossiped first"}`, &created)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []store.InventoryEntry
	resp = ta.do(t, http.MethodGet, "/fourth-step", token, "", &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, entries, 1)
	assert.Equal(t, "resentment", entries[0].Type)

	resp = ta.do(t, http.MethodDelete, fmt.Sprintf("/fourth-step/%d", created.ID), token, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExternalResources(t *testing.T) {
	ta := newTestAPI(t)

	t.Run("aa meetings requires coordinates", func(t *testing.T) {
		resp := ta.do(t, http.MethodGet, "/aa-meetings", "", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("aa meetings proxies upstream", func(t *testing.T) {
		var out []map[string]any
		resp := ta.do(t, http.MethodGet, "/aa-meetings?latitude=40.7&longitude=-74.0", "", "", &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, out, 1)
		assert.Equal(t, "Sunrise Group", out[0]["name"])
	})

	t.Run("daily reflection", func(t *testing.T) {
		var out reflection.Reflection
		resp := ta.do(t, http.MethodGet, "/aa-daily-reflection", "", "", &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, out.Title)
		assert.NotEmpty(t, out.Content)
	})
}

func TestAuthRateLimit(t *testing.T) {
	ta := newTestAPI(t, func(cfg *config.Config) {
		cfg.AuthRateMax = 3
	})

	body := `{"username":"ghost","password":"Wrong123"}`
	for i := 0; i < 3; i++ {
		resp := ta.do(t, http.MethodPost, "/auth/login", "", body, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := ta.do(t, http.MethodPost, "/auth/login", "", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}
