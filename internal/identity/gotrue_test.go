package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ines@example.com", body["email"])

		_, _ = w.Write([]byte(`{
			"access_token":"acc","refresh_token":"ref","expires_in":3600,
			"user":{"id":"user-1","email":"ines@example.com","user_metadata":{"prenom":"Ines","nom":"Ben Salah"}}
		}`))
	}))
	defer srv.Close()

	client := NewGoTrueClient(srv.URL+"/", "anon-key", nil)
	session, err := client.SignIn(context.Background(), "ines@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "acc", session.AccessToken)
	assert.Equal(t, "ref", session.RefreshToken)
	assert.Equal(t, "user-1", session.User.ID)
	assert.Equal(t, "Ines Ben Salah", session.User.DisplayName())
}

func TestSignInRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	_, err := NewGoTrueClient(srv.URL, "anon-key", nil).SignIn(context.Background(), "a@b.c", "bad")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestSignInUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGoTrueClient(srv.URL, "anon-key", nil).SignIn(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}
