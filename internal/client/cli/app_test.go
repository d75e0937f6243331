package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/client/config"
)

type fakeClient struct {
	gotEmail    string
	gotPassword string
	gotToken    string
	err         error
}

func (f *fakeClient) Register(_ context.Context, email string, password []byte) (*client.User, error) {
	f.gotEmail, f.gotPassword = email, string(password)
	if f.err != nil {
		return nil, f.err
	}
	return &client.User{ID: "u-1", Email: email, Role: "USER"}, nil
}

func (f *fakeClient) Login(_ context.Context, email string, password []byte) (*client.Session, error) {
	f.gotEmail, f.gotPassword = email, string(password)
	if f.err != nil {
		return nil, f.err
	}
	return &client.Session{Token: "tok-123", Email: email, Role: "USER", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeClient) Me(_ context.Context, token string) (*client.Identity, error) {
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return &client.Identity{Email: "a@b.c", Role: "ADMIN"}, nil
}

// stubPassword replaces the terminal read for the duration of the test and
// records the slice it handed out so wiping can be checked.
func stubPassword(t *testing.T, pw string) *[]byte {
	t.Helper()
	var handed []byte
	orig := getPassword
	getPassword = func(w io.Writer) ([]byte, error) {
		handed = []byte(pw)
		return handed, nil
	}
	t.Cleanup(func() { getPassword = orig })
	return &handed
}

func newTestApp(cfg *config.Config, fc *fakeClient, stdin string) (*App, *bytes.Buffer, *bytes.Buffer) {
	var out, prompt bytes.Buffer
	return newApp(cfg, fc, strings.NewReader(stdin), &out, &prompt), &out, &prompt
}

func TestCommand(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"login"}, "login"},
		{[]string{"-a", "http://x", "register"}, "register"},
		{[]string{"-token", "abc", "me"}, "me"},
		{[]string{"-token=abc", "me", "-t", "3"}, "me"},
		{[]string{"-c", "cli.json", "-t", "5"}, ""},
		{[]string{"-unknown", "login"}, "login"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Command(tc.args), "%v", tc.args)
	}
}

func TestApp_Register(t *testing.T) {
	handed := stubPassword(t, "secret1")
	fc := &fakeClient{}
	app, out, prompt := newTestApp(&config.Config{}, fc, "a@b.c\n")

	require.NoError(t, app.Run(context.Background(), []string{"register"}))

	assert.Equal(t, "a@b.c", fc.gotEmail)
	assert.Equal(t, "secret1", fc.gotPassword)
	assert.Contains(t, out.String(), "Registered a@b.c (USER, id u-1)")
	assert.Contains(t, prompt.String(), "Enter email")
	assert.Equal(t, make([]byte, len("secret1")), *handed, "password must be wiped")
}

func TestApp_Login_PrintsOnlyTokenOnStdout(t *testing.T) {
	stubPassword(t, "secret1")
	fc := &fakeClient{}
	app, out, prompt := newTestApp(&config.Config{}, fc, "a@b.c\n")

	require.NoError(t, app.Run(context.Background(), []string{"login"}))

	assert.Equal(t, "tok-123\n", out.String())
	assert.Contains(t, prompt.String(), "Logged in as a@b.c")
	assert.NotContains(t, prompt.String(), "secret1")
}

func TestApp_Login_Error(t *testing.T) {
	stubPassword(t, "wrong")
	fc := &fakeClient{err: &client.APIError{StatusCode: 400, Message: "Invalid email or password."}}
	app, out, _ := newTestApp(&config.Config{}, fc, "a@b.c\n")

	err := app.Run(context.Background(), []string{"login"})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, out.String())
}

func TestApp_Me(t *testing.T) {
	fc := &fakeClient{}
	app, out, _ := newTestApp(&config.Config{Token: "tok-123"}, fc, "")

	require.NoError(t, app.Run(context.Background(), []string{"me"}))

	assert.Equal(t, "tok-123", fc.gotToken)
	assert.Equal(t, "a@b.c (ADMIN)\n", out.String())
}

func TestApp_Me_NoToken(t *testing.T) {
	fc := &fakeClient{}
	app, _, _ := newTestApp(&config.Config{}, fc, "")

	err := app.Run(context.Background(), []string{"me"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEKEEPER_TOKEN")
	assert.Empty(t, fc.gotToken)
}

func TestApp_Me_Unauthorized(t *testing.T) {
	fc := &fakeClient{err: client.ErrUnauthorized}
	app, _, _ := newTestApp(&config.Config{Token: "stale"}, fc, "")

	assert.ErrorIs(t, app.Run(context.Background(), []string{"me"}), client.ErrUnauthorized)
}

func TestApp_Usage(t *testing.T) {
	app, out, _ := newTestApp(&config.Config{}, &fakeClient{}, "")

	assert.ErrorIs(t, app.Run(context.Background(), nil), ErrUsage)
	assert.ErrorIs(t, app.Run(context.Background(), []string{"sync"}), ErrUsage)

	require.NoError(t, app.Run(context.Background(), []string{"help"}))
	assert.Contains(t, out.String(), "register|login|me")
}

func TestApp_InputError(t *testing.T) {
	orig := getSimpleText
	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return "", errors.New("closed") }
	t.Cleanup(func() { getSimpleText = orig })

	fc := &fakeClient{}
	app, _, _ := newTestApp(&config.Config{}, fc, "")

	assert.Error(t, app.Run(context.Background(), []string{"register"}))
	assert.Empty(t, fc.gotEmail)
}

func TestNewApp_BadURL(t *testing.T) {
	_, err := NewApp(&config.Config{ServerURL: "not a url"})
	assert.Error(t, err)
}
