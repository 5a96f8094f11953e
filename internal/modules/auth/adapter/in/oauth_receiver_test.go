package in_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authin "odysseus/internal/modules/auth/adapter/in"
	authdto "odysseus/internal/modules/auth/dto"
)

type callbackUsecase struct {
	tokens chan string
}

func (u callbackUsecase) Check(context.Context) authdto.GateResult { return authdto.GateResult{} }
func (u callbackUsecase) Login(context.Context, authdto.LoginInput) (authdto.UserOutput, error) {
	return authdto.UserOutput{}, nil
}
func (u callbackUsecase) Signup(context.Context, authdto.SignupInput) (authdto.SignupOutput, error) {
	return authdto.SignupOutput{}, nil
}
func (u callbackUsecase) OAuthCallback(_ context.Context, token string) (authdto.CallbackOutput, error) {
	u.tokens <- token
	if token == "" {
		return authdto.CallbackOutput{Next: authdto.NextAuth}, nil
	}
	return authdto.CallbackOutput{Next: authdto.NextDashboard, User: authdto.UserOutput{ID: "u1"}}, nil
}
func (u callbackUsecase) Logout(context.Context) error                  { return nil }
func (u callbackUsecase) Status(context.Context) authdto.StatusOutput { return authdto.StatusOutput{} }
func (u callbackUsecase) GoogleLoginURL() string                       { return "" }

func TestOAuthReceiverHandsTokenToCallback(t *testing.T) {
	t.Parallel()
	uc := callbackUsecase{tokens: make(chan string, 1)}
	receiver := authin.NewOAuthReceiver(uc, "127.0.0.1:0")

	callbackURL, await, err := receiver.Listen(context.Background(), 5*time.Second)
	require.NoError(t, err)

	resp, err := http.Get(callbackURL + "?access_token=tok-google")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	out, err := await()
	require.NoError(t, err)
	assert.Equal(t, authdto.NextDashboard, out.Next)
	assert.Equal(t, "tok-google", <-uc.tokens)
}

func TestOAuthReceiverTimesOut(t *testing.T) {
	t.Parallel()
	receiver := authin.NewOAuthReceiver(callbackUsecase{tokens: make(chan string, 1)}, "127.0.0.1:0")
	_, await, err := receiver.Listen(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)

	out, err := await()
	require.Error(t, err)
	assert.Equal(t, authdto.NextAuth, out.Next)
}

func TestTokenFromCallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", authin.TokenFromCallback("http://localhost:5173/auth/google/callback?access_token=abc&x=1"))
	assert.Equal(t, "abc", authin.TokenFromCallback("access_token=abc"))
	assert.Equal(t, "raw.jwt.value", authin.TokenFromCallback("  raw.jwt.value "))
	assert.Equal(t, "", authin.TokenFromCallback(""))
}
