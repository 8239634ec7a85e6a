package cli

import (
	"context"

	"github.com/spf13/pflag"

	"citizen-portal/internal/application"
)

func (a *App) signupCommand() *Command {
	var form application.SignupForm
	return &Command{
		Name:    "signup",
		Summary: "Register a new account.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("signup", pflag.ContinueOnError)
			fs.StringVar(&form.Name, "name", "", "full name")
			fs.StringVar(&form.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
			fs.StringVar(&form.Gender, "gender", "", "male, female or other")
			fs.StringVar(&form.Caste, "caste", "", "SC, ST, OBC or General")
			fs.StringVar(&form.Mobile, "mobile", "", "10-digit mobile number")
			fs.StringVar(&form.Password, "password", "", "password")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			if err := a.Flows.Signup(ctx, form); err != nil {
				return a.fail(ctx, "sign up", err)
			}
			a.Reporter.Succeed(ctx, "Signup successful! Please login.")
			return nil
		},
	}
}

func (a *App) loginCommand() *Command {
	var form application.LoginForm
	return &Command{
		Name:    "login",
		Summary: "Sign in and remember the session.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&form.Mobile, "mobile", "", "registered mobile number")
			fs.StringVar(&form.Password, "password", "", "password")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			sess, err := a.Flows.LoginWithCredentials(ctx, form)
			if err != nil {
				return a.fail(ctx, "log in", err)
			}
			a.Reporter.Succeed(ctx, "Login successful")
			a.printf("Signed in as %s (%s)\n", sess.Name, sess.Role)
			return nil
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the stored session.",
		Run: func(ctx context.Context, _ []string) error {
			if err := a.Session.Logout(ctx); err != nil {
				return a.fail(ctx, "log out", err)
			}
			a.Reporter.Succeed(ctx, "Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the signed-in user.",
		Run: func(ctx context.Context, _ []string) error {
			sess, err := a.Session.Require()
			if err != nil {
				return a.fail(ctx, "load session", err)
			}
			a.printf("%s\t%s\t%s\t%s\n", sess.ID, sess.Name, sess.Mobile, sess.Role)
			return nil
		},
	}
}

func (a *App) otpCommand() *Command {
	var mobile string
	return &Command{
		Name:    "otp",
		Summary: "One-time password commands.",
		Subcommands: []*Command{{
			Name:    "send",
			Summary: "Send a reset code to a registered mobile.",
			Flags: func() *pflag.FlagSet {
				fs := pflag.NewFlagSet("otp send", pflag.ContinueOnError)
				fs.StringVar(&mobile, "mobile", "", "registered mobile number")
				return fs
			},
			Run: func(ctx context.Context, _ []string) error {
				if err := a.Flows.SendOTP(ctx, mobile); err != nil {
					return a.fail(ctx, "send OTP", err)
				}
				a.Reporter.Succeed(ctx, "OTP sent to your mobile")
				return nil
			},
		}},
	}
}

func (a *App) passwordCommand() *Command {
	var form application.ResetForm
	return &Command{
		Name:    "password",
		Summary: "Password commands.",
		Subcommands: []*Command{{
			Name:    "reset",
			Summary: "Set a new password with a one-time code.",
			Flags: func() *pflag.FlagSet {
				fs := pflag.NewFlagSet("password reset", pflag.ContinueOnError)
				fs.StringVar(&form.Mobile, "mobile", "", "registered mobile number")
				fs.StringVar(&form.OTP, "otp", "", "code received by SMS")
				fs.StringVar(&form.NewPassword, "new-password", "", "new password")
				return fs
			},
			Run: func(ctx context.Context, _ []string) error {
				if err := a.Flows.ResetPassword(ctx, form); err != nil {
					return a.fail(ctx, "reset password", err)
				}
				a.Reporter.Succeed(ctx, "Password reset successful! Please login.")
				return nil
			},
		}},
	}
}
