package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/pluslatte/gt6-vein-manager/internal/httpapi"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/service"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/store/memory"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

type testEnv struct {
	ts    *httptest.Server
	auth  *service.AuthService
	token string // admin session token
}

// newTestServer wires up the full dependency graph using in-memory stores,
// registers an admin through the bootstrap invitation and logs them in.
func newTestServer(t *testing.T, ping func(context.Context) error) testEnv {
	t.Helper()

	ms := memory.New()
	authStore := memory.NewAuthStore()
	authSvc := service.NewAuthService(authStore, service.AuthConfig{})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:          log.New(io.Discard, "", 0),
		Addr:            ":0",
		QueryService:    service.NewQueryService(ms, ms, ms),
		MutationService: service.NewMutationService(ms, ms, ms),
		AuthService:     authSvc,
		PublicBaseURL:   "http://veins.test",
		Ping:            ping,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx := context.Background()
	inv, _, err := authSvc.EnsureBootstrapInvitation(ctx, "http://veins.test")
	require.NoError(t, err)
	_, err = authSvc.Register(ctx, types.RegisterRequest{Token: inv.Token, Username: "admin", Password: "password1"})
	require.NoError(t, err)
	login, err := authSvc.Login(ctx, types.LoginRequest{Username: "admin", Password: "password1"})
	require.NoError(t, err)

	return testEnv{ts: ts, auth: authSvc, token: login.Token}
}

func (e testEnv) do(t *testing.T, method, path, contentType string, body io.Reader) *http.Response {
	t.Helper()
	return e.doAs(t, e.token, method, path, contentType, body)
}

func (e testEnv) doAs(t *testing.T, token, method, path, contentType string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.ts.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e testEnv) postJSON(t *testing.T, path string, payload any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, path, "application/json", bytes.NewReader(raw))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e testEnv) addVein(t *testing.T, in types.CreateVeinInput) types.ResolvedVein {
	t.Helper()

	resp := e.postJSON(t, "/api/veins/add", in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[types.ResolvedVein](t, resp)
}

type searchBody struct {
	Veins []types.ResolvedVein `json:"veins"`
	Count int                  `json:"count"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ── Health ───────────────────────────────────────────────────────────────────

func TestHealthz_OK(t *testing.T) {
	env := newTestServer(t, func(context.Context) error { return nil })

	resp := env.doAs(t, "", http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestHealthz_StoreDown(t *testing.T) {
	env := newTestServer(t, func(context.Context) error { return errors.New("disk gone") })

	resp := env.doAs(t, "", http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthz_Protobuf(t *testing.T) {
	env := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/x-protobuf")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var ts timestamppb.Timestamp
	require.NoError(t, proto.Unmarshal(raw, &ts))
	assert.NotZero(t, ts.GetSeconds())
}

// ── Authentication ───────────────────────────────────────────────────────────

func TestAPI_RequiresAuthentication(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.doAs(t, "", http.MethodGet, "/api/veins", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", decode[errorBody](t, resp).Error)

	resp = env.doAs(t, "bogus", http.MethodGet, "/api/veins", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	env := newTestServer(t, nil)

	raw, _ := json.Marshal(types.LoginRequest{Username: "admin", Password: "password1"})
	resp := env.doAs(t, "", http.MethodPost, "/auth/login", "application/json", bytes.NewReader(raw))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "vein_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.AddCookie(session)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)
	assert.Equal(t, "admin", decode[types.User](t, me).Username)
}

func TestLogin_BadPassword(t *testing.T) {
	env := newTestServer(t, nil)

	raw, _ := json.Marshal(types.LoginRequest{Username: "admin", Password: "wrong-password"})
	resp := env.doAs(t, "", http.MethodPost, "/auth/login", "application/json", bytes.NewReader(raw))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", decode[errorBody](t, resp).Error)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInvitationFlow(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.postJSON(t, "/auth/issue-invitation", types.InviteRequest{Email: "miner@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inv := decode[types.InvitationResponse](t, resp)
	assert.Equal(t, "http://veins.test/auth/register?token="+inv.Token, inv.InvitationURL)

	// Register through the link, token in the query string.
	raw, _ := json.Marshal(types.RegisterRequest{Username: "miner", Password: "password1"})
	resp = env.doAs(t, "", http.MethodPost, "/auth/register?token="+url.QueryEscape(inv.Token), "application/json", bytes.NewReader(raw))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.False(t, decode[types.User](t, resp).IsAdmin)

	// Non-admins cannot invite.
	login, err := env.auth.Login(context.Background(), types.LoginRequest{Username: "miner", Password: "password1"})
	require.NoError(t, err)
	resp = env.doAs(t, login.Token, http.MethodPost, "/auth/issue-invitation", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The invitation is single use.
	raw, _ = json.Marshal(types.RegisterRequest{Token: inv.Token, Username: "again", Password: "password1"})
	resp = env.doAs(t, "", http.MethodPost, "/auth/register", "application/json", bytes.NewReader(raw))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_invitation", decode[errorBody](t, resp).Error)
}

// ── Veins ────────────────────────────────────────────────────────────────────

func TestAddVein_JSON(t *testing.T) {
	env := newTestServer(t, nil)

	rv := env.addVein(t, types.CreateVeinInput{
		Name: "Diamond Vein A", X: "100", Y: "", Z: "-50", Notes: "deep", Confirmed: true,
	})
	assert.NotEmpty(t, rv.ID)
	assert.Nil(t, rv.Y)
	assert.True(t, rv.Confirmed)
	require.NotNil(t, rv.Note)
	assert.Equal(t, "deep", *rv.Note)
	assert.True(t, rv.Actions.Unconfirm)
	assert.False(t, rv.Actions.Confirm)
}

func TestAddVein_Form(t *testing.T) {
	env := newTestServer(t, nil)

	form := url.Values{
		"name":       {"Bauxite"},
		"x_coord":    {"5"},
		"y_coord":    {"30"},
		"z_coord":    {"6"},
		"is_bedrock": {"on"},
	}
	resp := env.do(t, http.MethodPost, "/api/veins/add", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	rv := decode[types.ResolvedVein](t, resp)
	require.NotNil(t, rv.Y)
	assert.Equal(t, 30, *rv.Y)
	assert.True(t, rv.IsBedrock)
	assert.False(t, rv.Confirmed)
}

func TestAddVein_ValidationError(t *testing.T) {
	env := newTestServer(t, nil)

	resp := env.postJSON(t, "/api/veins/add", types.CreateVeinInput{Name: "Bad", X: "abc", Z: "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_x_coord", decode[errorBody](t, resp).Error)
}

func TestSearch_RevokedFilterAndRedirect(t *testing.T) {
	env := newTestServer(t, nil)
	keep := env.addVein(t, types.CreateVeinInput{Name: "Copper", X: "1", Z: "1"})
	gone := env.addVein(t, types.CreateVeinInput{Name: "Tin", X: "2", Z: "2"})

	resp := env.postJSON(t, "/api/veins/"+gone.ID+"/revocation/set", map[string]string{"query_state": "name=Tin&include_revoked=true"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	set := decode[struct {
		Entry    types.StatusEntry  `json:"entry"`
		Vein     types.ResolvedVein `json:"vein"`
		Redirect string             `json:"redirect"`
	}](t, resp)
	assert.True(t, set.Entry.Value)
	assert.True(t, set.Vein.Revoked)
	assert.Equal(t, types.Actions{Unrevoke: true}, set.Vein.Actions)
	assert.Equal(t, "/search?name=Tin&include_revoked=true", set.Redirect)

	resp = env.do(t, http.MethodGet, "/api/veins", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[searchBody](t, resp)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, keep.ID, list.Veins[0].ID)

	resp = env.do(t, http.MethodGet, "/api/veins?include_revoked=true", "", nil)
	list = decode[searchBody](t, resp)
	assert.Equal(t, 2, list.Count)

	// Un-revoke via the /revoke endpoint.
	resp = env.do(t, http.MethodPost, "/api/veins/"+gone.ID+"/revocation/revoke", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/search", decode[map[string]any](t, resp)["redirect"])

	resp = env.do(t, http.MethodGet, "/api/veins", "", nil)
	assert.Equal(t, 2, decode[searchBody](t, resp).Count)
}

func TestSearch_CaseSensitiveName(t *testing.T) {
	env := newTestServer(t, nil)
	env.addVein(t, types.CreateVeinInput{Name: "Diamond Vein A", X: "1", Z: "1"})
	env.addVein(t, types.CreateVeinInput{Name: "diamond vein b", X: "1", Z: "1"})

	resp := env.do(t, http.MethodGet, "/api/veins?name=Diamond", "", nil)
	list := decode[searchBody](t, resp)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Diamond Vein A", list.Veins[0].Name)
}

func TestSetStatus_Errors(t *testing.T) {
	env := newTestServer(t, nil)
	v := env.addVein(t, types.CreateVeinInput{Name: "Copper", X: "1", Z: "1"})

	resp := env.do(t, http.MethodPost, "/api/veins/"+v.ID+"/shininess/set", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_dimension", decode[errorBody](t, resp).Error)

	resp = env.do(t, http.MethodPost, "/api/veins/does-not-exist/confirmation/set", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "vein_not_found", decode[errorBody](t, resp).Error)
}

func TestHistoryAndNotes(t *testing.T) {
	env := newTestServer(t, nil)
	v := env.addVein(t, types.CreateVeinInput{Name: "Copper", X: "1", Z: "1"})

	for _, path := range []string{"set", "revoke", "set"} {
		resp := env.do(t, http.MethodPost, "/api/veins/"+v.ID+"/is_bedrock/"+path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := env.postJSON(t, "/api/veins/"+v.ID+"/notes", map[string]string{"note": "checked again"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/veins/"+v.ID+"/history", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h := decode[types.VeinHistory](t, resp)
	assert.Len(t, h.Bedrock, 3)
	assert.Empty(t, h.Confirmation)
	require.Len(t, h.Notes, 1)
	assert.Equal(t, "checked again", h.Notes[0].Note)

	resp = env.do(t, http.MethodGet, "/api/veins/"+v.ID, "", nil)
	rv := decode[types.ResolvedVein](t, resp)
	assert.True(t, rv.IsBedrock)
	require.NotNil(t, rv.Note)
	assert.Equal(t, "checked again", *rv.Note)
}

func TestGetVein_Protobuf(t *testing.T) {
	env := newTestServer(t, nil)
	v := env.addVein(t, types.CreateVeinInput{Name: "Copper", X: "1", Y: "12", Z: "1"})

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/veins/"+v.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token)
	req.Header.Set("Accept", "application/x-protobuf")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-protobuf", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var val structpb.Value
	require.NoError(t, proto.Unmarshal(raw, &val))

	fields := val.GetStructValue().GetFields()
	assert.Equal(t, "Copper", fields["name"].GetStringValue())
	assert.Equal(t, float64(12), fields["y_coord"].GetNumberValue())
	assert.False(t, fields["confirmed"].GetBoolValue())
}

func TestAddVein_ProtobufRequest(t *testing.T) {
	env := newTestServer(t, nil)

	body, err := structpb.NewStruct(map[string]any{
		"name":     "Gold",
		"x_coord":  "7",
		"z_coord":  "8",
		"depleted": true,
	})
	require.NoError(t, err)
	raw, err := proto.Marshal(body)
	require.NoError(t, err)

	resp := env.do(t, http.MethodPost, "/api/veins/add", "application/x-protobuf", bytes.NewReader(raw))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var val structpb.Value
	require.NoError(t, proto.Unmarshal(out, &val))
	fields := val.GetStructValue().GetFields()
	assert.Equal(t, "Gold", fields["name"].GetStringValue())
	assert.True(t, fields["depleted"].GetBoolValue())
	_, isNull := fields["y_coord"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull, "blank y is encoded as null")
}
