package backendfakes

import (
	"context"
	"sync"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/authclient"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/session"
)

var _ session.Backend = (*FakeBackend)(nil)

// FakeBackend is a stub-driven test double for session.Backend. Each method
// delegates to its stub when set and counts calls; unset stubs return zero
// values.
type FakeBackend struct {
	lock sync.Mutex

	RegisterStub  func(ctx context.Context, name, email, password, confirmPassword string) (*authclient.User, error)
	registerCalls int

	LoginStub  func(ctx context.Context, email, password string) (*authclient.User, string, error)
	loginCalls int

	RefreshTokenStub  func(ctx context.Context, token string) (string, error)
	refreshTokenCalls int

	VerifyEmailStub  func(ctx context.Context, token string) error
	verifyEmailCalls int

	RequestPasswordResetStub  func(ctx context.Context, email string) error
	requestPasswordResetCalls int

	ResetPasswordStub  func(ctx context.Context, password, confirmPassword, token string) error
	resetPasswordCalls int

	ResendVerificationStub  func(ctx context.Context, email string) error
	resendVerificationCalls int

	GoogleLoginStub  func(ctx context.Context, code string) (*authclient.User, string, error)
	googleLoginCalls int
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

func (f *FakeBackend) Register(ctx context.Context, name, email, password, confirmPassword string) (*authclient.User, error) {
	f.lock.Lock()
	f.registerCalls++
	stub := f.RegisterStub
	f.lock.Unlock()

	if stub == nil {
		return nil, nil
	}
	return stub(ctx, name, email, password, confirmPassword)
}

func (f *FakeBackend) RegisterCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.registerCalls
}

func (f *FakeBackend) Login(ctx context.Context, email, password string) (*authclient.User, string, error) {
	f.lock.Lock()
	f.loginCalls++
	stub := f.LoginStub
	f.lock.Unlock()

	if stub == nil {
		return nil, "", nil
	}
	return stub(ctx, email, password)
}

func (f *FakeBackend) LoginCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.loginCalls
}

func (f *FakeBackend) RefreshToken(ctx context.Context, token string) (string, error) {
	f.lock.Lock()
	f.refreshTokenCalls++
	stub := f.RefreshTokenStub
	f.lock.Unlock()

	if stub == nil {
		return "", nil
	}
	return stub(ctx, token)
}

func (f *FakeBackend) RefreshTokenCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshTokenCalls
}

func (f *FakeBackend) VerifyEmail(ctx context.Context, token string) error {
	f.lock.Lock()
	f.verifyEmailCalls++
	stub := f.VerifyEmailStub
	f.lock.Unlock()

	if stub == nil {
		return nil
	}
	return stub(ctx, token)
}

func (f *FakeBackend) VerifyEmailCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.verifyEmailCalls
}

func (f *FakeBackend) RequestPasswordReset(ctx context.Context, email string) error {
	f.lock.Lock()
	f.requestPasswordResetCalls++
	stub := f.RequestPasswordResetStub
	f.lock.Unlock()

	if stub == nil {
		return nil
	}
	return stub(ctx, email)
}

func (f *FakeBackend) RequestPasswordResetCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.requestPasswordResetCalls
}

func (f *FakeBackend) ResetPassword(ctx context.Context, password, confirmPassword, token string) error {
	f.lock.Lock()
	f.resetPasswordCalls++
	stub := f.ResetPasswordStub
	f.lock.Unlock()

	if stub == nil {
		return nil
	}
	return stub(ctx, password, confirmPassword, token)
}

func (f *FakeBackend) ResetPasswordCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.resetPasswordCalls
}

func (f *FakeBackend) ResendVerification(ctx context.Context, email string) error {
	f.lock.Lock()
	f.resendVerificationCalls++
	stub := f.ResendVerificationStub
	f.lock.Unlock()

	if stub == nil {
		return nil
	}
	return stub(ctx, email)
}

func (f *FakeBackend) ResendVerificationCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.resendVerificationCalls
}

func (f *FakeBackend) GoogleLogin(ctx context.Context, code string) (*authclient.User, string, error) {
	f.lock.Lock()
	f.googleLoginCalls++
	stub := f.GoogleLoginStub
	f.lock.Unlock()

	if stub == nil {
		return nil, "", nil
	}
	return stub(ctx, code)
}

func (f *FakeBackend) GoogleLoginCallCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.googleLoginCalls
}
