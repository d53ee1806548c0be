package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GeigerTiger55/messagely/internal/credentials"
	"github.com/GeigerTiger55/messagely/internal/directory"
	"github.com/GeigerTiger55/messagely/internal/handlers"
	"github.com/GeigerTiger55/messagely/internal/ledger"
	"github.com/GeigerTiger55/messagely/internal/store"
	"github.com/GeigerTiger55/messagely/internal/token"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	db := store.NewMemoryStore()
	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)
	dir := directory.New(db, credentials.NewHasher(bcrypt.MinCost))
	led := ledger.New(db)
	h := handlers.NewHandler(dir, led, tokens, db, nil, zerolog.Nop())

	return NewRouter(zerolog.Nop(), h, tokens, nil, nil)
}

// do sends a request with an optional bearer token and JSON body, decoding
// the JSON response into out when out is non-nil.
func do(t *testing.T, handler http.Handler, method, path, bearer string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func register(t *testing.T, handler http.Handler, username string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	rec := do(t, handler, http.MethodPost, "/auth/register", "", map[string]string{
		"username":   username,
		"password":   "password",
		"first_name": "Test",
		"last_name":  "User",
		"phone":      "+14155550000",
	}, &resp)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRegisterReturnsUsableToken(t *testing.T) {
	handler := newTestAPI(t)

	tok := register(t, handler, "alice")

	var resp struct {
		Users []map[string]string `json:"users"`
	}
	rec := do(t, handler, http.MethodGet, "/users", tok, nil, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "alice", resp.Users[0]["username"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	handler := newTestAPI(t)

	register(t, handler, "alice")

	rec := do(t, handler, http.MethodPost, "/auth/register", "", map[string]string{
		"username":   "alice",
		"password":   "other",
		"first_name": "Other",
		"last_name":  "User",
		"phone":      "+14155551111",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env := decodeError(t, rec)
	assert.Equal(t, http.StatusConflict, env.Error.Status)
	assert.NotEmpty(t, env.Error.Message)

	// The original credentials still work: no silent overwrite.
	rec = do(t, handler, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "password",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterMissingField(t *testing.T) {
	handler := newTestAPI(t)

	rec := do(t, handler, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	handler := newTestAPI(t)
	register(t, handler, "alice")

	var resp struct {
		Token string `json:"token"`
	}
	rec := do(t, handler, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "password",
	}, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginBadCredentials(t *testing.T) {
	handler := newTestAPI(t)
	register(t, handler, "alice")

	// Wrong password and unknown username produce identical responses.
	recWrong := do(t, handler, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "WRONG",
	}, nil)
	recUnknown := do(t, handler, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "nobody", "password": "password",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, recWrong.Body.String(), recUnknown.Body.String())
}

func TestLoginRecordsTimestamp(t *testing.T) {
	handler := newTestAPI(t)
	register(t, handler, "alice")

	var login struct {
		Token string `json:"token"`
	}
	rec := do(t, handler, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "password",
	}, &login)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		User struct {
			LastLoginAt *string `json:"last_login_at"`
		} `json:"user"`
	}
	rec = do(t, handler, http.MethodGet, "/users/alice", login.Token, nil, &profile)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, profile.User.LastLoginAt)
}

func TestListUsersRequiresAuth(t *testing.T) {
	handler := newTestAPI(t)

	rec := do(t, handler, http.MethodGet, "/users", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserRoutesEnforceOwnership(t *testing.T) {
	handler := newTestAPI(t)
	register(t, handler, "alice")
	bob := register(t, handler, "bob")

	// A valid, authenticated, different user still gets 401.
	for _, path := range []string{"/users/alice", "/users/alice/to", "/users/alice/from"} {
		rec := do(t, handler, http.MethodGet, path, bob, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = do(t, handler, http.MethodGet, path, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestUserProfileHidesPasswordHash(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")

	rec := do(t, handler, http.MethodGet, "/users/alice", alice, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestTamperedTokenIsRejectedNotFatal(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")

	// Well-formed JWT, wrong signature.
	tampered := alice + "AA"
	rec := do(t, handler, http.MethodGet, "/users", tampered, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeError(t, rec)
	assert.Equal(t, http.StatusUnauthorized, env.Error.Status)
}

func TestMessageFlow(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")
	bob := register(t, handler, "bob")

	// alice sends bob a message
	var sent struct {
		Message struct {
			ID           int64   `json:"id"`
			FromUsername string  `json:"from_username"`
			ToUsername   string  `json:"to_username"`
			Body         string  `json:"body"`
			ReadAt       *string `json:"read_at"`
		} `json:"message"`
	}
	rec := do(t, handler, http.MethodPost, "/messages", alice, map[string]string{
		"to_username": "bob", "body": "hi",
	}, &sent)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "alice", sent.Message.FromUsername)
	assert.Equal(t, "bob", sent.Message.ToUsername)
	assert.Equal(t, "hi", sent.Message.Body)
	assert.Nil(t, sent.Message.ReadAt)

	// bob's inbox shows it unread, enriched with alice's profile
	var inbox struct {
		Messages []struct {
			ID       int64   `json:"id"`
			Body     string  `json:"body"`
			ReadAt   *string `json:"read_at"`
			FromUser struct {
				Username string `json:"username"`
			} `json:"from_user"`
		} `json:"messages"`
	}
	rec = do(t, handler, http.MethodGet, "/users/bob/to", bob, nil, &inbox)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, inbox.Messages, 1)
	assert.Equal(t, "hi", inbox.Messages[0].Body)
	assert.Nil(t, inbox.Messages[0].ReadAt)
	assert.Equal(t, "alice", inbox.Messages[0].FromUser.Username)

	// alice's outbox mirrors it
	var outbox struct {
		Messages []struct {
			ToUser struct {
				Username string `json:"username"`
			} `json:"to_user"`
		} `json:"messages"`
	}
	rec = do(t, handler, http.MethodGet, "/users/alice/from", alice, nil, &outbox)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, outbox.Messages, 1)
	assert.Equal(t, "bob", outbox.Messages[0].ToUser.Username)

	// bob marks it read
	msgID := sent.Message.ID
	var receipt struct {
		Message struct {
			ID     int64  `json:"id"`
			ReadAt string `json:"read_at"`
		} `json:"message"`
	}
	rec = do(t, handler, http.MethodPost, fmt.Sprintf("/messages/%d/read", msgID), bob, nil, &receipt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, msgID, receipt.Message.ID)
	assert.NotEmpty(t, receipt.Message.ReadAt)

	// alice now sees read_at set
	var detail struct {
		Message struct {
			ReadAt *string `json:"read_at"`
		} `json:"message"`
	}
	rec = do(t, handler, http.MethodGet, fmt.Sprintf("/messages/%d", msgID), alice, nil, &detail)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, detail.Message.ReadAt)

	// re-marking is a no-op returning the original timestamp
	var again struct {
		Message struct {
			ReadAt string `json:"read_at"`
		} `json:"message"`
	}
	rec = do(t, handler, http.MethodPost, fmt.Sprintf("/messages/%d/read", msgID), bob, nil, &again)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, receipt.Message.ReadAt, again.Message.ReadAt)
}

func TestSendMessageEmptyBody(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")
	bob := register(t, handler, "bob")

	rec := do(t, handler, http.MethodPost, "/messages", alice, map[string]string{
		"to_username": "bob", "body": "",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No row was created.
	var inbox struct {
		Messages []any `json:"messages"`
	}
	rec = do(t, handler, http.MethodGet, "/users/bob/to", bob, nil, &inbox)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, inbox.Messages)
}

func TestSendMessageToUnknownUser(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")

	rec := do(t, handler, http.MethodPost, "/messages", alice, map[string]string{
		"to_username": "nobody", "body": "hi",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageRequiresAuth(t *testing.T) {
	handler := newTestAPI(t)

	rec := do(t, handler, http.MethodPost, "/messages", "", map[string]string{
		"to_username": "bob", "body": "hi",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMessageParticipantsOnly(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")
	bob := register(t, handler, "bob")
	carol := register(t, handler, "carol")

	var sent struct {
		Message struct {
			ID int64 `json:"id"`
		} `json:"message"`
	}
	rec := do(t, handler, http.MethodPost, "/messages", alice, map[string]string{
		"to_username": "bob", "body": "hi",
	}, &sent)
	require.Equal(t, http.StatusOK, rec.Code)
	path := fmt.Sprintf("/messages/%d", sent.Message.ID)

	// Both participants can view it.
	for _, tok := range []string{alice, bob} {
		rec := do(t, handler, http.MethodGet, path, tok, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// A third authenticated user cannot; neither can an anonymous caller.
	rec = do(t, handler, http.MethodGet, path, carol, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, handler, http.MethodGet, path, "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMarkReadRecipientOnly(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")
	bob := register(t, handler, "bob")

	var sent struct {
		Message struct {
			ID int64 `json:"id"`
		} `json:"message"`
	}
	rec := do(t, handler, http.MethodPost, "/messages", alice, map[string]string{
		"to_username": "bob", "body": "hi",
	}, &sent)
	require.Equal(t, http.StatusOK, rec.Code)
	path := fmt.Sprintf("/messages/%d/read", sent.Message.ID)

	// The sender may not mark their own sent message read.
	rec = do(t, handler, http.MethodPost, path, alice, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, handler, http.MethodPost, path, bob, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUnknownMessage(t *testing.T) {
	handler := newTestAPI(t)
	alice := register(t, handler, "alice")

	rec := do(t, handler, http.MethodGet, "/messages/42", alice, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, handler, http.MethodGet, "/messages/not-a-number", alice, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	handler := newTestAPI(t)

	var resp struct {
		Status string `json:"status"`
	}
	rec := do(t, handler, http.MethodGet, "/health", "", nil, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp.Status)
}
