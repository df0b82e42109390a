// Command authcore-demo walks the full account lifecycle against an
// in-memory store: registration, admin approval, email verification, the
// two-stage login, and finally the audit trail that recorded all of it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vaultguard/authcore"
	"github.com/vaultguard/authcore/store"
)

func main() {
	var (
		email  = flag.String("email", "demo@example.com", "email for the demo registration")
		passwd = flag.String("password", "DemoPass123", "password for the demo registration")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "authcore-demo ", log.LstdFlags)
	if err := run(*email, *passwd, logger); err != nil {
		logger.Fatal(err)
	}
}

type printDispatcher struct{ last string }

func (d *printDispatcher) SendCode(_ context.Context, email, code string) error {
	fmt.Printf("  [mail] code for %s: %s\n", email, code)
	d.last = code
	return nil
}

func run(email, passwd string, logger *log.Logger) error {
	cfg := authcore.DefaultConfig()
	cfg.Token.PreAuthSecret = []byte("demo-pre-auth-secret-change-me!!")
	cfg.Token.AccessSecret = []byte("demo-access-secret-change-me!!!!")
	cfg.MFA.AllowStaticFallback = true

	trail := store.NewMemoryAuditLog()
	codes := &printDispatcher{}
	engine, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(store.NewMemoryStore()).
		WithAuditSink(trail).
		WithCodeDispatcher(codes).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := authcore.WithClientIP(context.Background(), "198.51.100.20")
	if err := engine.Seed(ctx); err != nil {
		return err
	}

	fmt.Println("== register ==")
	if _, err := engine.Register(ctx, email, "Demo Account", passwd); err != nil {
		return err
	}
	verifyCode := codes.last

	fmt.Println("== login before approval (expected to fail) ==")
	if _, err := engine.Login(ctx, email, passwd); err != nil {
		fmt.Printf("  denied: %v\n", err)
	}

	fmt.Println("== admin approves ==")
	adminLogin, err := engine.Login(ctx, "admin@vault.io", "Admin@123")
	if err != nil {
		return err
	}
	adminSession, err := engine.VerifyMFA(ctx, adminLogin.PreAuthToken, "247831")
	if err != nil {
		return err
	}
	target, err := findUserID(ctx, engine, adminSession.AccessToken, email)
	if err != nil {
		return err
	}
	if err := engine.ApproveUser(ctx, adminSession.AccessToken, target); err != nil {
		return err
	}

	fmt.Println("== verify email ==")
	if _, err := engine.VerifyEmail(ctx, email, verifyCode); err != nil {
		return err
	}

	fmt.Println("== two-stage login ==")
	login, err := engine.Login(ctx, email, passwd)
	if err != nil {
		return err
	}
	session, err := engine.VerifyMFA(ctx, login.PreAuthToken, codes.last)
	if err != nil {
		return err
	}
	fmt.Printf("  logged in as %s\n", session.User.Email)

	if err := engine.Logout(ctx, session.AccessToken); err != nil {
		return err
	}

	fmt.Println("== audit trail ==")
	entries, err := engine.AuditLog(ctx, adminSession.AccessToken, 20)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("  %s  %-18s %-8s %s\n", e.Timestamp.Format("15:04:05"), e.Event, e.Severity, e.UserEmail)
	}
	return nil
}

// findUserID digs the registered account's id out of the audit trail; the
// engine deliberately has no admin user-listing surface. Audit emission is
// asynchronous, so poll briefly.
func findUserID(ctx context.Context, engine *authcore.Engine, adminToken, email string) (string, error) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := engine.AuditLog(ctx, adminToken, 100)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.Event == "user_registered" && e.UserEmail == email {
				return e.UserID, nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return "", fmt.Errorf("no registration entry for %s", email)
}
