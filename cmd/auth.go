package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

func (r *Runner) requireSessionStore() error {
	if r.session == nil {
		return fmt.Errorf("%w: session store not initialized, run 'shortsgrab setup' first", shared.ErrServiceUnavailable)
	}
	return nil
}

// AuthLogin signs in against the backend and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSessionStore(); err != nil {
		return err
	}

	r.logger.Info("logging in")
	profile, err := r.session.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}

	return r.writePlain("✓ Logged in as %s\n", profile.Email)
}

// AuthRegister creates an account and stores the resulting session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSessionStore(); err != nil {
		return err
	}

	r.logger.Info("registering account")
	profile, err := r.session.Register(ctx, cmd.String("email"), cmd.String("password"), cmd.String("confirm"))
	if err != nil {
		return err
	}

	return r.writePlain("✓ Account created, logged in as %s\n", profile.Email)
}

// AuthLogout discards the session locally and notifies the server best-effort.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSessionStore(); err != nil {
		return err
	}

	if err := r.session.Logout(ctx); err != nil {
		return err
	}

	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the stored session without any network call.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil || !r.session.IsAuthenticated() {
		return r.writePlain("✗ Not authenticated\n")
	}

	r.writePlain("✓ Authenticated\n")
	if profile := r.session.Profile(); profile != nil {
		r.writePlain("Email: %s\n", profile.Email)
	}
	return nil
}

// AuthVerify checks the stored session against the server. Only an explicit
// rejection discards the stored credential.
func (r *Runner) AuthVerify(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSessionStore(); err != nil {
		return err
	}

	r.logger.Info("verifying session")
	profile, err := r.session.Verify(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrAuthRejected) {
			r.writePlain("✗ Session rejected by the server, logged out\n")
		}
		return err
	}

	r.writePlain("✓ Session is valid\n")
	if profile != nil {
		r.writePlain("Email: %s\n", profile.Email)
	}
	return nil
}
