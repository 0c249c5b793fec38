// Package auth provides registration, login and bearer-token authorization.
//
// Passwords are stored as bcrypt hashes. A successful login returns an HS256
// JWT carrying the user's name and email; protected routes accept it in the
// Authorization header.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<random string>  # Required, startup fails without it
//	AUTH_TOKEN_EXPIRY=8h             # Bearer token lifetime
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5        # Failures per IP and email before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
//	authService, err := auth.NewService(userRepo, issuer, cfg.Auth)
//	middleware := auth.NewMiddleware(authService, authService)
//	api.POST("/santos", middleware.RequireAuth(), handler)
//
// Extract the caller in handlers:
//
//	email := auth.GetEmail(c)  // Empty for anonymous callers
package auth
