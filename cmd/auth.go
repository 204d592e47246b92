package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hyeonlog/booklog/internal/models"
)

// AuthRegister creates an account and reports where to go next.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
		Nickname: cmd.String("nickname"),
	}

	r.app.Start()
	if err := r.app.Register(ctx, reg); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	r.logger.Info("account created", "email", reg.Email)
	r.writePlain("%s Account created for %s\n", okMark, reg.Email)
	r.writePlain("Run 'booklog auth login -e %s -p <password>' to sign in\n", reg.Email)
	return nil
}

// AuthLogin exchanges credentials for a session and persists it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	r.app.Start()
	if err := r.app.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	sess := r.sessions.Current()
	r.writePlain("%s Logged in as %s (%s)\n", okMark, sess.User.Nickname, sess.User.Email)

	if expiry, err := r.sessions.TokenExpiry(); err == nil {
		r.writePlain("Session valid until %s\n", expiry.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthLogout discards the persisted session after confirmation.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.sessions.Load()
	if err != nil {
		r.logger.Warn("failed to load session", "error", err)
	}
	if !sess.Established() {
		return r.writePlain("Not logged in\n")
	}

	r.app.Start()
	if !r.app.Logout(func() bool { return cmd.Bool("yes") }) {
		return r.writePlain("Aborted; pass --yes to log out\n")
	}

	r.writePlain("%s Logged out\n", okMark)
	return nil
}

// AuthStatus shows whether a session exists and when its token expires.
//
// The expiry is decoded locally for display; only the server can actually
// reject the token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.sessions.Load()
	if err != nil {
		r.logger.Warn("failed to load session", "error", err)
	}

	if !sess.Established() {
		return r.writePlain("%s Not logged in\n", badMark)
	}

	r.writePlain("%s Logged in as %s (%s)\n", okMark, sess.User.Nickname, sess.User.Email)

	expiry, err := r.sessions.TokenExpiry()
	if err != nil {
		r.logger.Debug("could not decode token expiry", "error", err)
		return nil
	}

	if time.Now().After(expiry) {
		r.writePlain("%s Token expired %s; the next request will force a new login\n", badMark, expiry.Local().Format(time.RFC1123))
	} else {
		r.writePlain("Session valid until %s\n", expiry.Local().Format(time.RFC1123))
	}
	return nil
}
