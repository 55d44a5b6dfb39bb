package jwtx_test

import (
	"testing"
	"time"

	"github.com/opsportal/portal/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T) *jwtx.Tokens {
	t.Helper()
	tokens, err := jwtx.New([]byte("access-secret-for-tests"), []byte("refresh-secret-for-tests"), "portal-test")
	require.NoError(t, err)
	return tokens
}

var alice = jwtx.Identity{
	ID:    "01HZXW5JY0000000000000ALCE",
	Email: "alice@example.com",
	Name:  "Alice Doe",
	Role:  "USER",
}

func TestNewRejectsBadSecrets(t *testing.T) {
	t.Parallel()

	t.Run("empty secret", func(t *testing.T) {
		_, err := jwtx.New(nil, []byte("x"), "portal")
		require.Error(t, err)
	})

	t.Run("identical secrets", func(t *testing.T) {
		_, err := jwtx.New([]byte("same"), []byte("same"), "portal")
		require.Error(t, err)
	})
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)

	access, refresh, err := tokens.Issue(alice)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	got, err := tokens.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, alice, got)

	id, err := tokens.VerifyRefresh(refresh)
	require.NoError(t, err)
	require.Equal(t, alice.ID, id)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)

	// Issue far enough in the past that both TTLs have elapsed.
	past := time.Now().UTC().Add(-8 * 24 * time.Hour)
	access, refresh, err := tokens.IssueAt(alice, past)
	require.NoError(t, err)

	_, err = tokens.VerifyAccess(access)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	_, err = tokens.VerifyRefresh(refresh)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsCorruptedTokens(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)

	access, refresh, err := tokens.Issue(alice)
	require.NoError(t, err)

	// Flipping any single byte must classify as invalid, never panic.
	for _, tc := range []struct {
		name   string
		token  string
		verify func(string) error
	}{
		{"access", access, func(s string) error { _, err := tokens.VerifyAccess(s); return err }},
		{"refresh", refresh, func(s string) error { _, err := tokens.VerifyRefresh(s); return err }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < len(tc.token); i += 7 {
				mutated := []byte(tc.token)
				mutated[i] ^= 0x01
				require.ErrorIs(t, tc.verify(string(mutated)), jwtx.ErrInvalid, "byte %d", i)
			}
		})
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)

	for _, token := range []string{"", "not-a-jwt", "a.b.c", "eyJhbGciOiJub25lIn0..", "=="} {
		_, err := tokens.VerifyAccess(token)
		require.ErrorIs(t, err, jwtx.ErrInvalid)

		_, err = tokens.VerifyRefresh(token)
		require.ErrorIs(t, err, jwtx.ErrInvalid)
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)

	access, refresh, err := tokens.Issue(alice)
	require.NoError(t, err)

	// A refresh token must not verify as an access token, and vice versa.
	_, err = tokens.VerifyAccess(refresh)
	require.ErrorIs(t, err, jwtx.ErrInvalid)

	_, err = tokens.VerifyRefresh(access)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestRefreshCarriesSubjectOnly(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)

	_, refresh, err := tokens.Issue(alice)
	require.NoError(t, err)

	// Decoding the refresh token as access claims must yield no identity
	// fields beyond the subject.
	ident, ok := tokens.Decode(refresh)
	require.True(t, ok)
	require.Equal(t, alice.ID, ident.ID)
	require.Empty(t, ident.Email)
	require.Empty(t, ident.Name)
	require.Empty(t, ident.Role)
}

func TestDecodeIsNotAuthoritative(t *testing.T) {
	t.Parallel()
	tokens := newTokens(t)

	other, err := jwtx.New([]byte("rogue-access"), []byte("rogue-refresh"), "portal-test")
	require.NoError(t, err)

	forged, _, err := other.Issue(alice)
	require.NoError(t, err)

	// Decode happily reads a token signed by someone else...
	ident, ok := tokens.Decode(forged)
	require.True(t, ok)
	require.Equal(t, alice.ID, ident.ID)

	// ...which is exactly why VerifyAccess must still reject it.
	_, err = tokens.VerifyAccess(forged)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestWrongIssuerRejected(t *testing.T) {
	t.Parallel()

	minted, err := jwtx.New([]byte("access-secret-for-tests"), []byte("refresh-secret-for-tests"), "someone-else")
	require.NoError(t, err)
	access, _, err := minted.Issue(alice)
	require.NoError(t, err)

	tokens := newTokens(t)
	_, err = tokens.VerifyAccess(access)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}
