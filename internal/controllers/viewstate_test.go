package controllers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyeonlog/booklog/internal/api"
	"github.com/hyeonlog/booklog/internal/models"
	"github.com/hyeonlog/booklog/internal/session"
	"github.com/hyeonlog/booklog/internal/shared"
	tu "github.com/hyeonlog/booklog/internal/testing"
)

func newTestApp(t *testing.T, gw *tu.MockGateway) (*App, *session.Store) {
	t.Helper()
	store := session.NewStore(t.TempDir())
	list := NewBookList(gw, tu.NewFakeScheduler(), 500*time.Millisecond, models.ListQuery{}, nil)
	return NewApp(gw, store, list, nil), store
}

func TestAppStart(t *testing.T) {
	t.Run("No Session Lands On Login", func(t *testing.T) {
		app, _ := newTestApp(t, &tu.MockGateway{})

		state := app.Start()
		if state.Screen != ScreenLogin {
			t.Errorf("expected login screen, got %s", state.Screen)
		}
		if state.Authenticated() {
			t.Error("expected unauthenticated state")
		}
	})

	t.Run("Existing Session Lands On Book List", func(t *testing.T) {
		app, store := newTestApp(t, &tu.MockGateway{})
		if err := store.Save("tok123", models.User{ID: 1, Email: "a@b.com", Nickname: "Ann"}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}

		state := app.Start()
		if state.Screen != ScreenBookList {
			t.Errorf("expected book list screen, got %s", state.Screen)
		}
	})
}

func TestAppLogin(t *testing.T) {
	t.Run("Success Establishes Session And Reloads", func(t *testing.T) {
		gw := &tu.MockGateway{
			LoginFunc: func(ctx context.Context, creds models.Credentials) (*api.LoginResponse, error) {
				if creds.Email != "a@b.com" || creds.Password != "secret1" {
					t.Errorf("unexpected credentials %+v", creds)
				}
				return &api.LoginResponse{Token: "tok123", Type: "Bearer", ID: 1, Email: "a@b.com", Nickname: "Ann"}, nil
			},
		}
		app, store := newTestApp(t, gw)
		app.Start()

		if err := app.Login(context.Background(), "a@b.com", "secret1"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}

		sess := store.Current()
		if sess.Token != "tok123" {
			t.Errorf("expected session token tok123, got %s", sess.Token)
		}
		want := models.User{ID: 1, Email: "a@b.com", Nickname: "Ann"}
		if sess.User != want {
			t.Errorf("expected user %+v, got %+v", want, sess.User)
		}

		if app.State().Screen != ScreenBookList {
			t.Errorf("expected book list screen, got %s", app.State().Screen)
		}
		if gw.CallCount("ListBooks") != 1 {
			t.Errorf("expected one book list reload, got %d", gw.CallCount("ListBooks"))
		}
	})

	t.Run("Empty Fields Never Hit The Network", func(t *testing.T) {
		gw := &tu.MockGateway{}
		app, _ := newTestApp(t, gw)
		app.Start()

		err := app.Login(context.Background(), "", "secret1")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if gw.CallCount("Login") != 0 {
			t.Error("expected no login request")
		}
	})

	t.Run("Backend Rejection Stays On Login", func(t *testing.T) {
		gw := &tu.MockGateway{
			LoginFunc: func(ctx context.Context, creds models.Credentials) (*api.LoginResponse, error) {
				return nil, &api.Error{Status: 400, Message: "bad credentials"}
			},
		}
		app, store := newTestApp(t, gw)
		app.Start()

		if err := app.Login(context.Background(), "a@b.com", "wrong"); err == nil {
			t.Fatal("expected login to fail")
		}
		if app.State().Screen != ScreenLogin {
			t.Errorf("expected login screen, got %s", app.State().Screen)
		}
		if store.Current().Established() {
			t.Error("expected no session")
		}
	})
}

func TestAppRegister(t *testing.T) {
	t.Run("Success Prefills Login Email", func(t *testing.T) {
		gw := &tu.MockGateway{}
		app, _ := newTestApp(t, gw)
		app.Start()
		app.ShowRegister()

		reg := models.Registration{Email: "new@b.com", Password: "secret1", Nickname: "Nat"}
		if err := app.Register(context.Background(), reg); err != nil {
			t.Fatalf("expected register to succeed, got %v", err)
		}

		if app.State().Screen != ScreenLogin {
			t.Errorf("expected login screen after register, got %s", app.State().Screen)
		}
		if got := app.PrefillEmail(); got != "new@b.com" {
			t.Errorf("expected prefill email new@b.com, got %q", got)
		}
		// Prefill is consumed on read.
		if got := app.PrefillEmail(); got != "" {
			t.Errorf("expected prefill consumed, got %q", got)
		}
	})

	t.Run("Local Validation Blocks The Request", func(t *testing.T) {
		gw := &tu.MockGateway{}
		app, _ := newTestApp(t, gw)
		app.Start()

		err := app.Register(context.Background(), models.Registration{Email: "a@b.com", Password: "123", Nickname: "Ann"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if gw.CallCount("Register") != 0 {
			t.Error("expected no register request")
		}
	})
}

func TestAppLogout(t *testing.T) {
	seed := func(t *testing.T) (*App, *session.Store) {
		app, store := newTestApp(t, &tu.MockGateway{})
		if err := store.Save("tok123", models.User{ID: 1}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
		app.Start()
		return app, store
	}

	t.Run("Declined Confirmation Keeps Session", func(t *testing.T) {
		app, store := seed(t)

		if app.Logout(func() bool { return false }) {
			t.Error("expected logout to be aborted")
		}
		if !store.Current().Established() {
			t.Error("expected session to survive")
		}
		if app.State().Screen != ScreenBookList {
			t.Errorf("expected book list screen, got %s", app.State().Screen)
		}
	})

	t.Run("Confirmed Logout Clears Session", func(t *testing.T) {
		app, store := seed(t)

		if !app.Logout(func() bool { return true }) {
			t.Error("expected logout to proceed")
		}
		if store.Current().Established() {
			t.Error("expected session cleared")
		}
		if app.State().Screen != ScreenLogin {
			t.Errorf("expected login screen, got %s", app.State().Screen)
		}
	})
}

func TestAuthRejection(t *testing.T) {
	t.Run("401 While Authenticated Forces Logout", func(t *testing.T) {
		app, store := newTestApp(t, &tu.MockGateway{})
		if err := store.Save("tok123", models.User{ID: 1}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
		app.Start()
		app.ShowDetail()

		err := app.HandleFailure(&api.Error{Status: 401, Message: "expired"})
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected ErrSessionExpired, got %v", err)
		}

		if app.State().Screen != ScreenLogin {
			t.Errorf("expected login screen, got %s", app.State().Screen)
		}
		if store.Current().Established() {
			t.Error("expected session cleared")
		}
		if app.Notice() == "" {
			t.Error("expected a session-expiry notice")
		}
	})

	t.Run("Other Failures Leave State Alone", func(t *testing.T) {
		app, store := newTestApp(t, &tu.MockGateway{})
		if err := store.Save("tok123", models.User{ID: 1}); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
		app.Start()

		err := app.HandleFailure(&api.Error{Status: 500, Message: "boom"})
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *api.Error passthrough, got %v", err)
		}

		if app.State().Screen != ScreenBookList {
			t.Errorf("expected book list screen, got %s", app.State().Screen)
		}
		if !store.Current().Established() {
			t.Error("expected session to survive a non-auth failure")
		}
	})

	t.Run("Nil Error Is A No-Op", func(t *testing.T) {
		app, _ := newTestApp(t, &tu.MockGateway{})
		if err := app.HandleFailure(nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestScreenNavigation(t *testing.T) {
	app, store := newTestApp(t, &tu.MockGateway{})
	if err := store.Save("tok123", models.User{ID: 1}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	app.Start()

	app.ShowForm(FormEdit)
	if got := app.State(); got.Screen != ScreenBookForm || got.FormMode != FormEdit {
		t.Errorf("expected edit form state, got %+v", got)
	}

	app.ShowList()
	if app.State().Screen != ScreenBookList {
		t.Errorf("expected book list, got %s", app.State().Screen)
	}

	// Unauthenticated-only toggles do nothing while logged in.
	app.ShowRegister()
	if app.State().Screen != ScreenBookList {
		t.Errorf("expected register toggle to be ignored, got %s", app.State().Screen)
	}
}
