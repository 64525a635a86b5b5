package auth

import (
	"context"
	"errors"
	"net/mail"
	"testing"

	domain "github.com/example/task-tracker/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestAccountService(t *testing.T) *AccountService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	repo := NewUserRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	// Minimum cost keeps the hashing fast in tests.
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)
	return NewAccountService(repo, hasher, NewJWTManager(DefaultJWTConfig()))
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName: "Jane",
		LastName:  "Smith",
		Email:     "jane@example.com",
		Password:  "password123",
	}
}

func TestRegister(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.ID == "" {
		t.Error("no user ID assigned")
	}
	if user.Email != "jane@example.com" {
		t.Errorf("Email = %q", user.Email)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password stored unhashed or missing")
	}

	// A fresh account gets exactly the User role.
	roles := user.RoleNames()
	if len(roles) != 1 || roles[0] != domain.RoleUser {
		t.Errorf("roles = %v, want [User]", roles)
	}
	if user.IsAdmin() {
		t.Error("fresh account must not be admin")
	}

	// Registration doubles as the first sign-in.
	if tokens == nil || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("no token pair returned")
	}
	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("returned access token does not validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, user.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, _, err := svc.Register(ctx, validRegistration())
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		wantErr error
	}{
		{"missing first name", func(in *RegisterInput) { in.FirstName = "" }, ErrInvalidName},
		{"missing last name", func(in *RegisterInput) { in.LastName = "" }, ErrInvalidName},
		{"first name too long", func(in *RegisterInput) { in.FirstName = string(long) }, ErrInvalidName},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, ErrInvalidEmail},
		{"short password", func(in *RegisterInput) { in.Password = "1234567" }, ErrWeakPassword},
		{"long password", func(in *RegisterInput) {
			p := make([]byte, 73)
			for i := range p {
				p[i] = 'x'
			}
			in.Password = string(p)
		}, ErrPasswordTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validRegistration()
			tc.mutate(&in)
			_, _, err := svc.Register(ctx, in)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.LastLoginAt != nil {
		t.Error("LastLoginAt set before first login")
	}

	tokens, err := svc.Login(ctx, "jane@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if tokens.AccessToken == "" || tokens.TokenType != "Bearer" {
		t.Errorf("tokens = %+v", tokens)
	}

	stored, err := svc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Error("LastLoginAt not stamped by login")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "jane@example.com", "wrong-password"},
		{"unknown email", "nobody@example.com", "password123"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRefreshTokens(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	fresh, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens failed: %v", err)
	}
	if fresh.AccessToken == "" {
		t.Error("no access token issued")
	}

	// An access token is not accepted where a refresh token is expected.
	if _, err := svc.RefreshTokens(ctx, tokens.AccessToken); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{
		FirstName: "Janet",
		LastName:  "Smythe",
		Email:     "janet@example.com",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.FirstName != "Janet" || updated.Email != "janet@example.com" {
		t.Errorf("updated = %+v", updated)
	}

	// The change is persisted, and the old email no longer logs in.
	if _, err := svc.Login(ctx, "jane@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old email login: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "janet@example.com", "password123"); err != nil {
		t.Errorf("new email login failed: %v", err)
	}
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	other := validRegistration()
	other.Email = "other@example.com"
	second, _, err := svc.Register(ctx, other)
	if err != nil {
		t.Fatalf("second Register failed: %v", err)
	}

	_, err = svc.UpdateProfile(ctx, second.ID, ProfileInput{
		FirstName: "Jane",
		LastName:  "Smith",
		Email:     "jane@example.com",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("got %v, want ErrUserExists", err)
	}
}

func TestUserExists(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	exists, err := svc.UserExists(ctx, user.ID)
	if err != nil || !exists {
		t.Errorf("UserExists(%q) = %v, %v; want true, nil", user.ID, exists, err)
	}

	exists, err = svc.UserExists(ctx, "no-such-id")
	if err != nil || exists {
		t.Errorf("UserExists(no-such-id) = %v, %v; want false, nil", exists, err)
	}
}

func TestEmailValidation(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"valid email", "user@example.com", true},
		{"valid email with subdomain", "user@mail.example.com", true},
		{"valid email with plus", "user+tag@example.com", true},
		{"valid email with dots", "first.last@example.com", true},
		{"missing @", "userexample.com", false},
		{"missing domain", "user@", false},
		{"missing local part", "@example.com", false},
		{"empty string", "", false},
		{"multiple @", "user@@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mail.ParseAddress(tt.email)
			got := err == nil
			if got != tt.want {
				t.Errorf("mail.ParseAddress(%q) valid = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
